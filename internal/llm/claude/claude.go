package claude

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/llm"
	"equity-advisor/internal/store"
	"equity-advisor/internal/types"
)

const defaultModel = "claude-3-5-haiku-latest"

// Reasoner scores prompts with the Anthropic Messages API.
type Reasoner struct {
	client      anthropic.Client
	model       string
	system      string
	maxTokens   int64
	temperature float64
}

var _ interfaces.Reasoner = (*Reasoner)(nil)

// NewReasoner reads CLAUDE_API_KEY. CLAUDE_API_ENDPOINT or llm.base_url override the endpoint.
func NewReasoner(cfg *store.Config, opts ...option.RequestOption) (*Reasoner, error) {
	apiKey := os.Getenv("CLAUDE_API_KEY")
	if apiKey == "" {
		return nil, errors.New("CLAUDE_API_KEY missing")
	}

	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	endpoint := cfg.LLM.BaseURL
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	if endpoint != "" {
		base = append(base, option.WithBaseURL(endpoint))
	}

	model := cfg.LLM.Model
	if model == "" {
		model = defaultModel
	}
	system := cfg.LLM.System
	if system == "" {
		system = llm.DefaultSystem
	}

	return &Reasoner{
		client:      anthropic.NewClient(append(base, opts...)...),
		model:       model,
		system:      system,
		maxTokens:   int64(cfg.LLM.MaxTokens),
		temperature: float64(cfg.LLM.Temperature),
	}, nil
}

func (r *Reasoner) Name() string { return "claude" }

func (r *Reasoner) Infer(ctx context.Context, p types.Prompt) (types.Inference, error) {
	system := r.system
	if p.System != "" {
		system = p.System
	}

	resp, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: r.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(p.User)),
		},
		Temperature: anthropic.Float(r.temperature),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return types.Inference{}, llm.Classify(apiErr.StatusCode, fmt.Errorf("claude request failed: %w", err))
		}
		return types.Inference{}, fmt.Errorf("claude request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return types.Inference{}, fmt.Errorf("%w: empty response", types.ErrUnparsableResponse)
	}
	return llm.ParseInference(text.String())
}
