package completion

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/claims-cli/internal/resilience"
	"github.com/sells-group/claims-cli/pkg/anthropic"
)

// Anthropic completes requests with the Anthropic Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic returns an Anthropic completer using model.
func NewAnthropic(client anthropic.Client, model string, maxTokens int64) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Anthropic{client: client, model: model, maxTokens: maxTokens}
}

// Complete sends req as a single user turn. Responses with a retryable status
// come back as resilience.TransientError.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      req.System,
		CacheSystem: req.System != "",
		Prompt:      req.Prompt,
	})
	if err != nil {
		if code := anthropic.StatusCode(err); resilience.IsTransientHTTPStatus(code) {
			return "", resilience.NewTransientError(err, code)
		}
		return "", eris.Wrapf(err, "completion: anthropic %s", req.Operation)
	}

	resp.Usage.Log(a.model, req.Operation)
	return resp.Text, nil
}
