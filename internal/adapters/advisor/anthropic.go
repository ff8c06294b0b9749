// Package advisor generates disposal advice for a detected waste type.
package advisor

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"scwm-service/internal/platform/obs"
)

const (
	DefaultModel     = "claude-haiku-4-5-20251001"
	DefaultMaxTokens = 256
)

// AnthropicAdvisor asks the Messages API for two short recycling sentences.
type AnthropicAdvisor struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewAnthropicAdvisor builds an advisor. Extra request options (base URL,
// retries) are passed through to the SDK client.
func NewAnthropicAdvisor(apiKey, model string, opts ...option.RequestOption) *AnthropicAdvisor {
	if model == "" {
		model = DefaultModel
	}
	return &AnthropicAdvisor{
		client:    sdk.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
		model:     model,
		maxTokens: DefaultMaxTokens,
	}
}

func prompt(wasteType string) string {
	return fmt.Sprintf("Give me 2 short sentences on how to recycle construction waste of type: %s.", wasteType)
}

func (a *AnthropicAdvisor) Advise(ctx context.Context, wasteType string) (_ string, err error) {
	defer obs.Time(ctx, "advisor.Advise")(&err)

	msg, err := a.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt(wasteType))),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "anthropic: create message")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	advice := strings.TrimSpace(sb.String())
	if advice == "" {
		return "", eris.New("anthropic: empty advice")
	}
	return advice, nil
}
