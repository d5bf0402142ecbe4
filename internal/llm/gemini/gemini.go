package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/llm"
	"equity-advisor/internal/store"
	"equity-advisor/internal/types"
)

const defaultModel = "gemini-2.0-flash"

// Reasoner scores prompts with the Gemini API in JSON response mode.
type Reasoner struct {
	client      *genai.Client
	model       string
	system      string
	maxTokens   int32
	temperature float32
}

var _ interfaces.Reasoner = (*Reasoner)(nil)

// NewReasoner reads GEMINI_API_KEY, falling back to GOOGLE_API_KEY.
func NewReasoner(ctx context.Context, cfg *store.Config) (*Reasoner, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY missing")
	}

	cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if cfg.LLM.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.LLM.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
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
		client:      client,
		model:       model,
		system:      system,
		maxTokens:   int32(cfg.LLM.MaxTokens),
		temperature: cfg.LLM.Temperature,
	}, nil
}

func (r *Reasoner) Name() string { return "gemini" }

func (r *Reasoner) Infer(ctx context.Context, p types.Prompt) (types.Inference, error) {
	system := r.system
	if p.System != "" {
		system = p.System
	}

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(r.temperature),
		MaxOutputTokens:   r.maxTokens,
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}

	resp, err := r.client.Models.GenerateContent(ctx, r.model, genai.Text(p.User), config)
	if err != nil {
		return types.Inference{}, llm.Classify(statusOf(err), fmt.Errorf("gemini request failed: %w", err))
	}

	text := resp.Text()
	if text == "" {
		return types.Inference{}, fmt.Errorf("%w: empty response", types.ErrUnparsableResponse)
	}
	return llm.ParseInference(text)
}

func statusOf(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}
