// Package extraction turns cleaned publisher email text into a structured
// ParsedEmail via an AI completion endpoint. Two strategies coexist behind
// one interface: the single-prompt OpenAI extractor (default) and the legacy
// three-call Bedrock extractor. The completion response is untrusted input;
// postprocess.go validates and defaults every field before anything
// downstream sees it.
package extraction

import (
	"context"
	"fmt"

	"github.com/ignite/publisher-inbox/internal/config"
	"github.com/ignite/publisher-inbox/internal/domain"
)

// Extractor extracts a structured offer record from one email.
// Implementations must be safe for concurrent use.
type Extractor interface {
	// Extract parses the email body into a fully-defaulted ParsedEmail.
	// Transport failures are retried internally; an exhausted retry budget
	// surfaces as an error with nothing persisted.
	Extract(ctx context.Context, emailBody, senderEmail, subject string) (*domain.ParsedEmail, error)
}

// New selects an extraction strategy from config.
func New(cfg config.ExtractionConfig) (Extractor, error) {
	switch cfg.Strategy {
	case "", "openai":
		return NewOpenAIExtractor(cfg), nil
	case "bedrock":
		return NewBedrockExtractor(cfg)
	default:
		return nil, fmt.Errorf("unknown extraction strategy %q", cfg.Strategy)
	}
}
