package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/llm"
	"equity-advisor/internal/store"
	"equity-advisor/internal/types"
)

const defaultModel = "gpt-4o-mini"

// Reasoner scores prompts with the OpenAI chat completions API.
type Reasoner struct {
	client      openai.Client
	model       string
	system      string
	maxTokens   int64
	temperature float64
}

var _ interfaces.Reasoner = (*Reasoner)(nil)

// NewReasoner reads OPENAI_API_KEY; extra options are appended after the defaults.
func NewReasoner(cfg *store.Config, opts ...option.RequestOption) (*Reasoner, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY missing")
	}

	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if cfg.LLM.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.LLM.BaseURL))
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
		client:      openai.NewClient(append(base, opts...)...),
		model:       model,
		system:      system,
		maxTokens:   int64(cfg.LLM.MaxTokens),
		temperature: float64(cfg.LLM.Temperature),
	}, nil
}

func (r *Reasoner) Name() string { return "openai" }

func (r *Reasoner) Infer(ctx context.Context, p types.Prompt) (types.Inference, error) {
	system := r.system
	if p.System != "" {
		system = p.System
	}

	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(p.User),
		},
		Temperature: openai.Float(r.temperature),
		MaxTokens:   openai.Int(r.maxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return types.Inference{}, llm.Classify(apiErr.StatusCode, fmt.Errorf("openai request failed: %w", err))
		}
		return types.Inference{}, fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return types.Inference{}, fmt.Errorf("%w: no choices", types.ErrUnparsableResponse)
	}

	return llm.ParseInference(strings.TrimSpace(resp.Choices[0].Message.Content))
}
