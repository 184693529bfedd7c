/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package rotation drives the per-station RDS message rotation loop: pull
// configured messages, filter to the eligible ones, rotate through them, and
// keep the encoder's displayed text asserted.
package rotation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skald/internal/events"
	"github.com/friendsincode/skald/internal/models"
	"github.com/friendsincode/skald/internal/nowplaying"
	"github.com/friendsincode/skald/internal/rds"
	"github.com/friendsincode/skald/internal/telemetry"
)

const (
	tickInterval = time.Second

	// keepaliveInterval re-asserts an unchanged text; encoders can lose the
	// displayed message without periodic re-sends.
	keepaliveInterval = 60 * time.Second

	errorCooldown = 15 * time.Second

	defaultDisplay = 10 * time.Second
)

// MessageSource supplies configured messages and settings.
type MessageSource interface {
	StationMessages(ctx context.Context, stationID string) ([]models.Message, error)
	Setting(ctx context.Context, stationID, key, def string) string
}

// TrackSource supplies the current playout state.
type TrackSource interface {
	CurrentTrack() *nowplaying.Track
}

// Classifier reports lecture content.
type Classifier interface {
	IsLecture(track *nowplaying.Track) bool
}

// Sender transmits one radiotext command.
type Sender interface {
	Send(ctx context.Context, text string) rds.Result
}

// Engine is one station's rotation loop. All state is owned by the loop
// goroutine; it is never persisted.
type Engine struct {
	stationID   string
	source      MessageSource
	tracks      TrackSource
	classifier  Classifier
	sender      Sender
	bus         *events.Bus
	logger      zerolog.Logger
	defaultText string

	index       int
	lastText    string
	lastSentAt  time.Time
	lastDisplay time.Duration
}

// New creates a rotation engine for one station.
func New(stationID string, source MessageSource, tracks TrackSource, classifier Classifier, sender Sender, bus *events.Bus, defaultText string, logger zerolog.Logger) *Engine {
	return &Engine{
		stationID:   stationID,
		source:      source,
		tracks:      tracks,
		classifier:  classifier,
		sender:      sender,
		bus:         bus,
		defaultText: defaultText,
		logger:      logger.With().Str("component", "rotation").Str("station", stationID).Logger(),
	}
}

// Run executes the rotation loop until context cancellation. A failed
// iteration is logged and followed by an extended cooldown; the loop itself
// never terminates on a transient fault.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info().Msg("message rotation engine started")
	telemetry.EngineUp.WithLabelValues(e.stationID, "rotation").Set(1)
	defer telemetry.EngineUp.WithLabelValues(e.stationID, "rotation").Set(0)

	for {
		if ctx.Err() != nil {
			e.logger.Info().Msg("message rotation engine stopped")
			return
		}

		wait := tickInterval
		if err := e.step(ctx, time.Now()); err != nil {
			e.logger.Error().Err(err).Msg("rotation tick failed")
			telemetry.LoopErrors.WithLabelValues(e.stationID, "rotation").Inc()
			wait = errorCooldown
		}

		select {
		case <-ctx.Done():
			e.logger.Info().Msg("message rotation engine stopped")
			return
		case <-time.After(wait):
		}
	}
}

// step runs one tick: select the text to display and decide whether to
// transmit it now.
func (e *Engine) step(ctx context.Context, now time.Time) error {
	messages, err := e.source.StationMessages(ctx, e.stationID)
	if err != nil {
		return err
	}

	cur := e.tracks.CurrentTrack()
	eligible := e.eligibleMessages(messages, cur, now)

	var text string
	display := defaultDisplay
	if len(eligible) == 0 {
		text = e.source.Setting(ctx, e.stationID, "rds.default_text", e.defaultText)
	} else {
		msg := eligible[e.index%len(eligible)]
		text = RenderMessage(msg.Text, cur)
		if text == "" {
			// Substitution emptied the message; skip it without sending.
			// The next tick re-evaluates from the advanced index.
			e.index++
			return nil
		}
		display = msg.Display()
	}

	rotationDue := e.lastSentAt.IsZero() || now.Sub(e.lastSentAt) >= e.lastDisplay
	keepaliveDue := text == e.lastText && now.Sub(e.lastSentAt) >= keepaliveInterval
	if !rotationDue && !keepaliveDue {
		return nil
	}

	result := e.sender.Send(ctx, text)
	telemetry.RDSSends.WithLabelValues(e.stationID, string(result.Status)).Inc()
	if e.bus != nil {
		e.bus.Publish(events.EventRDSSend, events.Payload{
			"station": e.stationID,
			"text":    text,
			"status":  string(result.Status),
		})
	}

	// Only a rotation-due send moves the rotation forward; a keepalive
	// repeats the same message.
	if rotationDue && len(eligible) > 0 {
		e.index++
	}
	e.lastText = text
	e.lastSentAt = now
	e.lastDisplay = display
	return nil
}

// eligibleMessages filters in configured order, discarding on the first
// failing check.
func (e *Engine) eligibleMessages(messages []models.Message, cur *nowplaying.Track, now time.Time) []models.Message {
	lectureKnown := false
	lecture := false
	isLecture := func() bool {
		if !lectureKnown {
			lecture = e.classifier.IsLecture(cur)
			lectureKnown = true
		}
		return lecture
	}

	var eligible []models.Message
	for _, msg := range messages {
		if !msg.Enabled {
			continue
		}

		wantsArtist := strings.Contains(msg.Text, "{artist}")
		wantsTitle := strings.Contains(msg.Text, "{title}")

		// Artist mentions are reserved for lecture content.
		if wantsArtist && !isLecture() {
			continue
		}
		if wantsArtist && (cur == nil || strings.TrimSpace(cur.Artist) == "") {
			continue
		}
		if wantsTitle && (cur == nil || strings.TrimSpace(cur.Title) == "") {
			continue
		}
		if !msg.ActiveAt(now) {
			continue
		}

		eligible = append(eligible, msg)
	}
	return eligible
}

// RenderMessage substitutes {artist} (upper-cased) and {title} (verbatim)
// and trims the result.
func RenderMessage(text string, cur *nowplaying.Track) string {
	artist, title := "", ""
	if cur != nil {
		artist = strings.ToUpper(cur.Artist)
		title = cur.Title
	}
	text = strings.ReplaceAll(text, "{artist}", artist)
	text = strings.ReplaceAll(text, "{title}", title)
	return strings.TrimSpace(text)
}
