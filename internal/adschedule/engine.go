/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package adschedule watches the clock and track boundaries and decides when
// and in what mode an ad insertion must run. The bias is fixed: an hour's
// sponsor commitment is never missed for the sake of clean timing.
package adschedule

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skald/internal/events"
	"github.com/friendsincode/skald/internal/nowplaying"
	"github.com/friendsincode/skald/internal/telemetry"
)

// State is the engine's scheduling state.
type State int

const (
	StateIdle State = iota
	StateWaitingForTrackBoundary
)

const (
	// trackPollInterval drives change detection while a decision is pending.
	trackPollInterval = 5 * time.Second

	// hourBuffer lands the wakeup just past the hour boundary.
	hourBuffer = 2 * time.Second

	maxSleep = 60 * time.Second
	minSleep = time.Second

	errorCooldown = 300 * time.Second

	// hourStartWindow marks the first seconds of a new hour, during which
	// an instant insertion gets the station identifier prepended.
	hourStartWindow = 5 * time.Second
)

// TrackSource supplies the playout state needed for decisions.
type TrackSource interface {
	CurrentTrack() *nowplaying.Track
	NextTrack() *nowplaying.Track
}

// Classifier reports lecture content.
type Classifier interface {
	IsLecture(track *nowplaying.Track) bool
}

// Inserter executes one ad insertion.
type Inserter interface {
	InsertInstant(ctx context.Context, isHourStart bool) error
	InsertScheduled(ctx context.Context) error
}

// Engine is one station's scheduling loop. State is owned by the loop
// goroutine and discarded on stop.
type Engine struct {
	stationID  string
	tracks     TrackSource
	classifier Classifier
	inserter   Inserter
	bus        *events.Bus
	logger     zerolog.Logger

	state           State
	lastHourChecked int
	lastTrackKey    string
	nextTrackPoll   time.Time
}

// New creates a scheduling engine for one station.
func New(stationID string, tracks TrackSource, classifier Classifier, inserter Inserter, bus *events.Bus, logger zerolog.Logger) *Engine {
	return &Engine{
		stationID:       stationID,
		tracks:          tracks,
		classifier:      classifier,
		inserter:        inserter,
		bus:             bus,
		logger:          logger.With().Str("component", "adschedule").Str("station", stationID).Logger(),
		lastHourChecked: -1,
	}
}

// Run executes the scheduling loop until context cancellation. The starting
// lastHourChecked of -1 makes the first iteration evaluate the current hour,
// so a restart mid-hour still covers that hour's commitment.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info().Msg("ad scheduling engine started")
	telemetry.EngineUp.WithLabelValues(e.stationID, "adschedule").Set(1)
	defer telemetry.EngineUp.WithLabelValues(e.stationID, "adschedule").Set(0)

	for {
		if ctx.Err() != nil {
			e.logger.Info().Msg("ad scheduling engine stopped")
			return
		}

		now := time.Now()
		err := e.tick(ctx, now)
		wait := e.sleepInterval(time.Now())
		if err != nil {
			e.logger.Error().Err(err).Msg("scheduling tick failed")
			telemetry.LoopErrors.WithLabelValues(e.stationID, "adschedule").Inc()
			wait = errorCooldown
		}

		select {
		case <-ctx.Done():
			e.logger.Info().Msg("ad scheduling engine stopped")
			return
		case <-time.After(wait):
		}
	}
}

// tick checks the hour boundary on every iteration, and the track boundary
// only while a decision is pending.
func (e *Engine) tick(ctx context.Context, now time.Time) error {
	if now.Hour() != e.lastHourChecked {
		e.lastHourChecked = now.Hour()
		return e.evaluate(ctx, now)
	}

	if e.state == StateWaitingForTrackBoundary && !now.Before(e.nextTrackPoll) {
		e.nextTrackPoll = now.Add(trackPollInterval)
		key := ""
		if cur := e.tracks.CurrentTrack(); cur != nil {
			key = cur.Key()
		}
		if key != e.lastTrackKey {
			e.logger.Debug().Str("track", key).Msg("track boundary detected")
			return e.evaluate(ctx, now)
		}
	}

	return nil
}

// evaluate runs the decision function and acts on the outcome. A failure
// inside the decision maps to an instant insertion: the hourly commitment
// takes priority over elegant failure handling.
func (e *Engine) evaluate(ctx context.Context, now time.Time) error {
	cur := e.tracks.CurrentTrack()
	next := e.tracks.NextTrack()

	decision := func() (d Decision) {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error().Interface("panic", r).Msg("decision evaluation failed; defaulting to instant insertion")
				d = DecisionInstant
			}
		}()
		return Decide(now, cur, next, e.classifier.IsLecture)
	}()

	telemetry.AdDecisions.WithLabelValues(e.stationID, decision.String()).Inc()
	if e.bus != nil {
		e.bus.Publish(events.EventAdDecision, events.Payload{
			"station":  e.stationID,
			"decision": decision.String(),
			"hour":     now.Hour(),
		})
	}

	switch decision {
	case DecisionNone:
		e.state = StateIdle
		e.logger.Debug().Msg("playlist ended; no insertion this hour")

	case DecisionWait:
		e.state = StateWaitingForTrackBoundary
		e.lastTrackKey = ""
		if cur != nil {
			e.lastTrackKey = cur.Key()
		}
		e.nextTrackPoll = now.Add(trackPollInterval)
		e.logger.Info().Str("track", e.lastTrackKey).Msg("waiting for track boundary")

	case DecisionInstant:
		e.state = StateIdle
		isHourStart := now.Sub(hourStart(now)) <= hourStartWindow
		e.logger.Info().Bool("hour_start", isHourStart).Msg("inserting ads instantly")
		if err := e.inserter.InsertInstant(ctx, isHourStart); err != nil {
			e.logger.Warn().Err(err).Msg("instant insertion failed")
		}

	case DecisionScheduled:
		e.state = StateIdle
		e.logger.Info().Msg("inserting ads before next lecture")
		if err := e.inserter.InsertScheduled(ctx); err != nil {
			e.logger.Warn().Err(err).Msg("scheduled insertion failed")
		}
	}

	return nil
}

// sleepInterval keeps the loop responsive near both the hour boundary and a
// pending track-change check without busy-waiting.
func (e *Engine) sleepInterval(now time.Time) time.Duration {
	wait := hourEnd(now).Sub(now) + hourBuffer
	if e.state == StateWaitingForTrackBoundary {
		if untilPoll := e.nextTrackPoll.Sub(now); untilPoll < wait {
			wait = untilPoll
		}
	}
	if wait > maxSleep {
		wait = maxSleep
	}
	if wait < minSleep {
		wait = minSleep
	}
	return wait
}
