package ports

import (
	"context"

	"github.com/aretw0/jarvis/pkg/domain"
)

// Extractor turns one user turn (plus prior history) into intents and entities.
type Extractor interface {
	Extract(ctx context.Context, text string, history []domain.Message) (domain.Extraction, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, text string, history []domain.Message) (domain.Extraction, error)

func (f ExtractorFunc) Extract(ctx context.Context, text string, history []domain.Message) (domain.Extraction, error) {
	return f(ctx, text, history)
}

// ActionHandler performs a single task with the extracted entities.
type ActionHandler interface {
	Handle(ctx context.Context, entities domain.Entities) (*domain.ActionResult, error)
}

// ActionHandlerFunc adapts a plain function to the ActionHandler interface.
type ActionHandlerFunc func(ctx context.Context, entities domain.Entities) (*domain.ActionResult, error)

func (f ActionHandlerFunc) Handle(ctx context.Context, entities domain.Entities) (*domain.ActionResult, error) {
	return f(ctx, entities)
}
