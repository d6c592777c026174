// Package broadcast ties the pieces of one invitation together: compose the
// prompt, run the generation pipeline, deliver the image and open the
// attendance poll.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"beerbot/pkg/attendance"
	"beerbot/pkg/postcard"
	"beerbot/pkg/prompt"
	"beerbot/pkg/tracker"
)

// apologyText is sent instead of a poll when no image could be produced.
const apologyText = "Не получилось сгенерировать открытку, попробуй позже."

// Sender delivers messages and photos to the chat platform.
type Sender interface {
	SendPhoto(ctx context.Context, chatID int64, image []byte, caption string, replyTo int) error
	SendMessage(ctx context.Context, chatID int64, text string, replyTo int) error
}

// Generator is the generation pipeline boundary.
type Generator interface {
	Generate(ctx context.Context, req postcard.Request) postcard.Outcome
}

// Overrides carries the per-trigger payload. Empty fields fall back to the
// process-wide defaults.
type Overrides struct {
	Prompt         string
	NegativePrompt string
	Caption        string
	PollQuestion   string
	Extra          string // free text appended by the user, fed to the composer
	ReplyTo        int    // message id to reply to, 0 for none
}

// Defaults holds the process-wide broadcast configuration.
type Defaults struct {
	Prompt         string
	NegativePrompt string
	Caption        string
	PollQuestion   string
	PollOptions    []string
	Width          int
	Height         int
	GuidanceScale  float64
	Steps          int
}

// Service runs the composer → pipeline → send → poll sequence.
type Service struct {
	defaults  Defaults
	composer  *prompt.Composer
	generator Generator
	sender    Sender
	polls     *attendance.Store
	tracker   *tracker.Tracker
}

func NewService(defaults Defaults, composer *prompt.Composer, generator Generator, sender Sender, polls *attendance.Store, tr *tracker.Tracker) *Service {
	return &Service{
		defaults:  defaults,
		composer:  composer,
		generator: generator,
		sender:    sender,
		polls:     polls,
		tracker:   tr,
	}
}

// Send runs one full broadcast for the chat. A failed generation turns into
// an apology message, not an error; the poll opens only after the photo was
// delivered.
func (s *Service) Send(ctx context.Context, feature string, chatID int64, ov Overrides) error {
	log := slog.With("broadcast", uuid.NewString(), "feature", feature, "chat", chatID)

	base := orDefault(ov.Prompt, s.defaults.Prompt)
	text := s.composer.Compose(base, ov.Extra)

	req := postcard.Request{
		Prompt:         text,
		NegativePrompt: orDefault(ov.NegativePrompt, s.defaults.NegativePrompt),
		Width:          s.defaults.Width,
		Height:         s.defaults.Height,
		GuidanceScale:  s.defaults.GuidanceScale,
		Steps:          s.defaults.Steps,
	}

	outcome := s.generator.Generate(ctx, req)
	s.trackOutcome(feature, outcome.Kind)

	if outcome.Kind == postcard.KindFailed {
		log.Error("broadcast generation failed", "error", outcome.Err)
		if err := s.sender.SendMessage(ctx, chatID, apologyText, ov.ReplyTo); err != nil {
			return fmt.Errorf("failed to send apology: %w", err)
		}
		return nil
	}

	caption := orDefault(ov.Caption, s.defaults.Caption)
	if err := s.sender.SendPhoto(ctx, chatID, outcome.Image, caption, ov.ReplyTo); err != nil {
		return fmt.Errorf("failed to send postcard: %w", err)
	}
	log.Info("postcard sent", "source", outcome.Kind)

	question := orDefault(ov.PollQuestion, s.defaults.PollQuestion)
	if _, err := s.polls.Open(ctx, chatID, question, s.defaults.PollOptions); err != nil {
		return err
	}
	return nil
}

func (s *Service) trackOutcome(feature string, kind postcard.Kind) {
	switch kind {
	case postcard.KindRemote:
		s.tracker.TrackRemoteImage(feature)
	case postcard.KindLocal:
		s.tracker.TrackLocalRender(feature)
	case postcard.KindPlaceholder:
		s.tracker.TrackPlaceholder(feature)
	case postcard.KindFailed:
		s.tracker.TrackFailure(feature)
	}
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
