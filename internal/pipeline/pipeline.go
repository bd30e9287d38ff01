// Package pipeline runs a claim through classification, extraction,
// cross-document validation and the final decision.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/claims-cli/internal/decision"
	"github.com/sells-group/claims-cli/internal/model"
	"github.com/sells-group/claims-cli/internal/validate"
)

// DefaultConcurrency bounds per-document work when none is configured.
const DefaultConcurrency = 4

// Orchestrator processes one claim at a time. It holds no per-claim state and
// is safe for concurrent use.
type Orchestrator struct {
	strategy    Strategy
	concurrency int
}

// New returns an Orchestrator that classifies and extracts with strategy,
// working on at most concurrency documents at once.
func New(strategy Strategy, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{strategy: strategy, concurrency: concurrency}
}

// Strategy returns the configured strategy.
func (o *Orchestrator) Strategy() Strategy {
	return o.strategy
}

// Process classifies and extracts every document, then validates the
// required documents against each other and decides the claim. Documents in
// the result keep input order. When several documents share a required type,
// the last one in input order is the one validated.
func (o *Orchestrator) Process(ctx context.Context, docs []model.RawDocument) (*model.ClaimResult, error) {
	claimID := uuid.New()
	log := zap.L().With(
		zap.String("claim_id", claimID.String()),
		zap.String("strategy", o.strategy.Name()),
	)
	log.Info("pipeline: processing claim", zap.Int("documents", len(docs)))
	start := time.Now()

	processed := make([]model.ProcessedDocument, len(docs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			pd, err := o.processDocument(gCtx, doc)
			if err != nil {
				return err
			}
			processed[i] = pd
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: process documents")
	}

	bill, discharge, card := selectRequired(log, processed)
	validation := validate.Validate(bill, discharge, card)
	dec := decision.Decide(bill, validation)

	log.Info("pipeline: claim decided",
		zap.String("status", string(dec.Status)),
		zap.Int("issues", len(validation.Issues)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &model.ClaimResult{
		ClaimID:    claimID,
		Documents:  processed,
		Validation: validation,
		Decision:   dec,
	}, nil
}

func (o *Orchestrator) processDocument(ctx context.Context, doc model.RawDocument) (model.ProcessedDocument, error) {
	t, err := o.strategy.Classify(ctx, doc)
	if err != nil {
		return model.ProcessedDocument{}, err
	}
	rec, err := o.strategy.Extract(ctx, doc.Text, t)
	if err != nil {
		return model.ProcessedDocument{}, err
	}

	zap.L().Debug("pipeline: document processed",
		zap.String("file", doc.FileName),
		zap.String("doc_type", string(t)),
		zap.String("language", doc.Language),
	)
	return model.ProcessedDocument{Document: doc, Type: t, Record: rec}, nil
}

// selectRequired picks the record for each required type. A later document
// of the same type replaces an earlier one.
func selectRequired(log *zap.Logger, docs []model.ProcessedDocument) (*model.BillData, *model.DischargeData, *model.IDCardData) {
	var (
		bill      *model.BillData
		discharge *model.DischargeData
		card      *model.IDCardData
	)
	seen := make(map[model.DocumentType]string)
	for _, d := range docs {
		if !d.Type.Required() {
			continue
		}
		if prev, dup := seen[d.Type]; dup {
			log.Warn("pipeline: duplicate document type, keeping the later one",
				zap.String("doc_type", string(d.Type)),
				zap.String("replaced", prev),
				zap.String("kept", d.Document.FileName),
			)
		}
		seen[d.Type] = d.Document.FileName

		switch rec := d.Record.(type) {
		case *model.BillData:
			bill = rec
		case *model.DischargeData:
			discharge = rec
		case *model.IDCardData:
			card = rec
		}
	}
	return bill, discharge, card
}
