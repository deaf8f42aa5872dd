package translator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
)

// Adapter wraps a Provider with the pipeline's soft-failure contract: the
// caller always receives a usable title. Rate limiting is retried with
// exponential backoff; every other failure degrades to the original text so
// one bad provider response never blocks delivery.
type Adapter struct {
	provider    Provider
	logger      zerolog.Logger
	maxAttempts int
	retryDelay  time.Duration
}

func NewAdapter(provider Provider, logger zerolog.Logger) *Adapter {
	return &Adapter{
		provider:    provider,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}
}

// TranslateTitle translates text into targetLang. The result is never empty
// for non-empty input: on provider failure or retry exhaustion it is the
// original text.
func (a *Adapter) TranslateTitle(ctx context.Context, text, targetLang string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return trimmed
	}
	if a == nil || a.provider == nil {
		return trimmed
	}

	delay := a.retryDelay
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		resp, err := a.provider.Translate(ctx, Request{Text: trimmed, TargetLang: targetLang})
		if err == nil {
			cleaned := CleanTranslation(resp.Text)
			if cleaned == "" {
				a.logger.Warn().
					Str("provider", a.provider.Name()).
					Msg("translation response empty after cleanup, keeping original title")
				return trimmed
			}
			return cleaned
		}

		if !errors.Is(err, ErrRateLimited) {
			a.logger.Error().
				Err(err).
				Str("provider", a.provider.Name()).
				Msg("translation failed, keeping original title")
			return trimmed
		}

		if attempt < a.maxAttempts {
			a.logger.Warn().
				Int("attempt", attempt).
				Int("max_attempts", a.maxAttempts).
				Dur("delay", delay).
				Msg("translation provider rate limited, backing off")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				a.logger.Warn().Msg("translation cancelled during backoff, keeping original title")
				return trimmed
			}
			delay *= 2
		}
	}

	a.logger.Error().
		Int("attempts", a.maxAttempts).
		Msg("translation retries exhausted, keeping original title")
	return trimmed
}
