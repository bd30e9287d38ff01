package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/claims-cli/internal/classify"
	"github.com/sells-group/claims-cli/internal/completion"
	"github.com/sells-group/claims-cli/internal/config"
	"github.com/sells-group/claims-cli/internal/extract"
	"github.com/sells-group/claims-cli/internal/model"
)

// Strategy classifies documents and extracts their records. The orchestrator
// only ever talks to this contract.
type Strategy interface {
	Name() string
	Classify(ctx context.Context, doc model.RawDocument) (model.DocumentType, error)
	Extract(ctx context.Context, text string, t model.DocumentType) (model.Record, error)
}

// NewStrategy builds the strategy selected by pipeline.strategy. The model
// strategy builds its completion backend from cfg and fails when that backend
// is misconfigured.
func NewStrategy(cfg *config.Config) (Strategy, error) {
	switch cfg.Pipeline.Strategy {
	case "", config.StrategyPattern:
		return NewPatternStrategy(), nil
	case config.StrategyModel:
		c, err := completion.New(cfg)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: build model strategy")
		}
		return NewModelStrategy(c), nil
	default:
		return nil, eris.Errorf("pipeline: unknown strategy %q", cfg.Pipeline.Strategy)
	}
}

// PatternStrategy classifies by keyword and extracts with the pattern
// library. It never fails.
type PatternStrategy struct {
	extractor *extract.Extractor
}

// NewPatternStrategy returns a PatternStrategy over the default library.
func NewPatternStrategy() *PatternStrategy {
	return &PatternStrategy{extractor: extract.New(nil)}
}

func (s *PatternStrategy) Name() string { return config.StrategyPattern }

func (s *PatternStrategy) Classify(_ context.Context, doc model.RawDocument) (model.DocumentType, error) {
	return classify.Classify(doc.Text, doc.FileName), nil
}

func (s *PatternStrategy) Extract(_ context.Context, text string, t model.DocumentType) (model.Record, error) {
	return s.extractor.Extract(text, t), nil
}
