package interfaces

import (
	"context"

	"equity-advisor/internal/types"
)

type Reasoner interface {
	Infer(ctx context.Context, prompt types.Prompt) (types.Inference, error)
	Name() string
}
