package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/claims-cli/internal/ingest"
	"github.com/sells-group/claims-cli/internal/model"
	"github.com/sells-group/claims-cli/internal/pipeline"
)

var processFormat string

var processCmd = &cobra.Command{
	Use:   "process FILE...",
	Short: "Adjudicate a claim from local documents",
	Long:  "Ingests the given files as one claim, runs the pipeline and prints the result.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if processFormat != "json" && processFormat != "yaml" {
			return eris.Errorf("process: unsupported format %q (want json or yaml)", processFormat)
		}

		env, err := initPipeline("process")
		if err != nil {
			return err
		}
		defer env.Close()

		return runProcess(cmd.Context(), cmd.OutOrStdout(), env, args, processFormat)
	},
}

func init() {
	processCmd.Flags().StringVar(&processFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(processCmd)
}

// claimIngester is the slice of the ingest service the command needs.
type claimIngester interface {
	Ingest(ctx context.Context, fileName string, data []byte) model.RawDocument
}

func runProcess(ctx context.Context, out io.Writer, env *pipelineEnv, paths []string, format string) error {
	return processFiles(ctx, out, env.Ingest, env.Pipeline, paths, format)
}

// processFiles reads paths as one claim, in argument order.
func processFiles(ctx context.Context, out io.Writer, ing claimIngester, orch *pipeline.Orchestrator, paths []string, format string) error {
	docs := make([]model.RawDocument, 0, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		if !allowedFile(name) {
			return eris.Errorf("process: unsupported file type: %s", name)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return eris.Wrapf(err, "process: read %s", p)
		}
		docs = append(docs, ing.Ingest(ctx, name, data))
	}

	result, err := orch.Process(ctx, docs)
	if err != nil {
		return err
	}

	zap.L().Info("claim processed",
		zap.String("claim_id", result.ClaimID.String()),
		zap.String("status", string(result.Decision.Status)),
		zap.Int("documents", len(result.Documents)),
	)

	return writeResult(out, result, format)
}

func writeResult(out io.Writer, result *model.ClaimResult, format string) error {
	switch format {
	case "yaml":
		return writeYAML(out, result)
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(result), "process: encode json")
	}
}

// writeYAML goes through the JSON encoding so field names and decimal
// formatting match the API response.
func writeYAML(out io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "process: marshal result")
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return eris.Wrap(err, "process: convert to yaml")
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return eris.Wrap(err, "process: encode yaml")
	}
	return enc.Close()
}

// blockStyle clears the flow styling yaml.v3 keeps from JSON input.
func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = 0
	}
	if n.Kind == yaml.ScalarNode && n.Style == yaml.DoubleQuotedStyle {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func allowedFile(name string) bool {
	return ingest.AllowedExtension(name, cfg != nil && cfg.Upload.AllowImages)
}
