package delivery

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/docrelay/docrelay/internal/event"
	"github.com/docrelay/docrelay/internal/registry"
)

// Channel identifies which delivery path carried a translation result.
type Channel string

const (
	ChannelSync  Channel = "sync"
	ChannelAsync Channel = "async"
	ChannelNone  Channel = "none"
)

// Outcome reports where a result ended up. It is a transient value for
// logging, nothing persists it.
type Outcome struct {
	Channel   Channel
	Succeeded bool
}

// DocumentUpdater is the synchronous channel (REST write to the document
// service).
type DocumentUpdater interface {
	UpdateTranslatedTitle(ctx context.Context, docID event.DocumentID, title string) error
}

// ResultPublisher is the asynchronous fallback channel (result topic).
type ResultPublisher interface {
	PublishTranslationResult(result event.TranslationResult) error
}

// StatusSource answers whether a named dependency is currently usable.
type StatusSource interface {
	IsConnected(component string) bool
}

// Router delivers a translation result over exactly one channel: the sync
// channel when it is up and accepts the write, otherwise the async channel.
// Results are never sent on both, so the document record is written once.
type Router struct {
	updater   DocumentUpdater
	publisher ResultPublisher
	status    StatusSource
	logger    zerolog.Logger
}

func NewRouter(updater DocumentUpdater, publisher ResultPublisher, status StatusSource, logger zerolog.Logger) *Router {
	return &Router{
		updater:   updater,
		publisher: publisher,
		status:    status,
		logger:    logger,
	}
}

// Deliver attempts the sync channel first, falls back to async, and reports
// what happened. It never returns an error: with both channels down the
// outcome is {none, false} and the failure is logged.
func (r *Router) Deliver(ctx context.Context, result event.TranslationResult) Outcome {
	log := r.logger.With().Str("document_id", string(result.DocID)).Logger()

	if r.status.IsConnected(registry.ComponentDocumentService) {
		err := r.updater.UpdateTranslatedTitle(ctx, result.DocID, result.TranslatedTitle)
		if err == nil {
			log.Info().Str("channel", string(ChannelSync)).Msg("translation delivered")
			return Outcome{Channel: ChannelSync, Succeeded: true}
		}
		log.Warn().Err(err).Msg("sync delivery failed, falling back to event bus")
	} else {
		log.Warn().Msg("document service disconnected, falling back to event bus")
	}

	if r.status.IsConnected(registry.ComponentKafka) {
		err := r.publisher.PublishTranslationResult(result)
		if err == nil {
			log.Info().Str("channel", string(ChannelAsync)).Msg("translation delivered")
			return Outcome{Channel: ChannelAsync, Succeeded: true}
		}
		log.Error().Err(err).Msg("async delivery failed")
	} else {
		log.Warn().Msg("event bus disconnected, async channel unavailable")
	}

	log.Error().Msg("translation could not be delivered on any channel")
	return Outcome{Channel: ChannelNone, Succeeded: false}
}
