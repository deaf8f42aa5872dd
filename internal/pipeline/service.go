package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/docrelay/docrelay/internal/delivery"
	"github.com/docrelay/docrelay/internal/event"
)

// Translator produces a translated title, degrading to the original text on
// provider failure.
type Translator interface {
	TranslateTitle(ctx context.Context, text, targetLang string) string
}

// Deliverer routes a finished translation to the document record.
type Deliverer interface {
	Deliver(ctx context.Context, result event.TranslationResult) delivery.Outcome
}

// DetectFunc guesses the ISO 639-1 language of a title, "" when unsure.
type DetectFunc func(text string) string

// Service is the translate-then-deliver pipeline shared by the ingestion
// loop and the manual HTTP trigger.
type Service struct {
	translator Translator
	deliverer  Deliverer
	targetLang string
	skipTarget bool
	detect     DetectFunc
	logger     zerolog.Logger
}

func New(translator Translator, deliverer Deliverer, targetLang string, logger zerolog.Logger) *Service {
	return &Service{
		translator: translator,
		deliverer:  deliverer,
		targetLang: targetLang,
		logger:     logger,
	}
}

// SkipTargetLanguageTitles enables the detection shortcut: titles already in
// the target language are delivered as-is without a provider call.
func (s *Service) SkipTargetLanguageTitles(detect DetectFunc) {
	s.skipTarget = true
	s.detect = detect
}

// Process translates one title and delivers the result. The translated title
// is returned alongside the delivery outcome so the manual endpoint can echo
// it back.
func (s *Service) Process(ctx context.Context, docID event.DocumentID, title string) (string, delivery.Outcome) {
	title = strings.TrimSpace(title)
	if title == "" {
		s.logger.Warn().Str("document_id", string(docID)).Msg("skipping document with empty title")
		return "", delivery.Outcome{Channel: delivery.ChannelNone, Succeeded: false}
	}

	translated := title
	if s.skipTarget && s.detect != nil && s.detect(title) == s.targetLang {
		s.logger.Info().
			Str("document_id", string(docID)).
			Str("target_language", s.targetLang).
			Msg("title already in target language, skipping translation")
	} else {
		translated = s.translator.TranslateTitle(ctx, title, s.targetLang)
	}

	outcome := s.deliverer.Deliver(ctx, event.TranslationResult{
		DocID:           docID,
		TranslatedTitle: translated,
	})
	return translated, outcome
}

// HandleEvent adapts Process to the ingestion loop's handler signature.
func (s *Service) HandleEvent(ctx context.Context, ev event.DocumentEvent) error {
	_, outcome := s.Process(ctx, ev.DocumentID, ev.TitleEN)
	if !outcome.Succeeded {
		return fmt.Errorf("translation for document %s was not delivered", ev.DocumentID)
	}
	return nil
}
