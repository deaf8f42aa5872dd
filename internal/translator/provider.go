package translator

import (
	"context"
	"errors"
)

// ErrRateLimited marks a provider "too many requests" condition. It is the
// only provider error class the adapter retries.
var ErrRateLimited = errors.New("translation provider rate limited")

// Provider translates free-form text into a target language.
type Provider interface {
	Translate(ctx context.Context, req Request) (*Response, error)
	Name() string
}

// Request describes one translation request.
type Request struct {
	Text       string
	TargetLang string // ISO 639-1 (for example: "es", "fr")
}

// Response contains translated text and provider metadata.
type Response struct {
	Text         string
	ProviderName string
	LatencyMs    int64
}
