package main

import (
	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/ingest"
	"github.com/sells-group/claims-cli/internal/pipeline"
)

// pipelineEnv holds the ingestion service and orchestrator shared by the
// serve and process commands.
type pipelineEnv struct {
	Ingest   *ingest.Service
	Pipeline *pipeline.Orchestrator
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Ingest != nil {
		if err := pe.Ingest.Close(); err != nil {
			zap.L().Warn("close ingest service", zap.Error(err))
		}
	}
}

// initPipeline validates the config for mode, then builds the strategy,
// ingestion service and orchestrator. Callers should defer env.Close().
func initPipeline(mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	strategy, err := pipeline.NewStrategy(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := ingest.New(cfg.Ingest)
	if err != nil {
		return nil, err
	}

	zap.L().Info("pipeline ready",
		zap.String("strategy", strategy.Name()),
		zap.String("pdf_provider", cfg.Ingest.PDFProvider),
		zap.Bool("ocr", svc.OCREnabled()),
		zap.Int("concurrency", cfg.Pipeline.Concurrency),
	)

	return &pipelineEnv{
		Ingest:   svc,
		Pipeline: pipeline.New(strategy, cfg.Pipeline.Concurrency),
	}, nil
}
