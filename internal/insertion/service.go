/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package insertion executes one ad insertion end to end: select the
// eligible ads, assemble one concatenated audio artifact, trigger the
// playout automation system, and confirm (or log the failure of) the play.
package insertion

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skald/internal/config"
	"github.com/friendsincode/skald/internal/events"
	"github.com/friendsincode/skald/internal/models"
	"github.com/friendsincode/skald/internal/nowplaying"
	"github.com/friendsincode/skald/internal/telemetry"
)

const (
	// durationTolerance is the accepted deviation between the artifact's
	// measured duration and the sum of its parts.
	durationTolerance = 500 * time.Millisecond

	confirmPollInterval = 5 * time.Second

	// minConfirmWindow floors the confirmation deadline even when the hour
	// is nearly over.
	minConfirmWindow = 60 * time.Second

	defaultSentinelArtist = "Ad Break"
)

// AdSource supplies ad definitions and settings.
type AdSource interface {
	StationAds(ctx context.Context, stationID string) ([]models.Ad, error)
	Setting(ctx context.Context, stationID, key, def string) string
}

// TrackSource confirms plays through the status file.
type TrackSource interface {
	HasNextTrack() bool
	WaitForArtist(ctx context.Context, target string, timeout, pollInterval time.Duration, requireSameHour bool) nowplaying.WaitResult
}

// Trigger drives the playout automation system.
type Trigger interface {
	Stop(ctx context.Context) error
	PlayFile(ctx context.Context, path string) error
	Enqueue(ctx context.Context, path string) error
}

// DurationProber measures an audio file's duration.
type DurationProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// PlayLogger records confirmed plays and failures.
type PlayLogger interface {
	LogPlay(ctx context.Context, stationID, adName string) error
	LogFailure(ctx context.Context, stationID string, adNames []string, detail string) error
}

// Service executes insertions for one station.
type Service struct {
	station config.Station
	ads     AdSource
	tracks  TrackSource
	trigger Trigger
	prober  DurationProber
	plog    PlayLogger
	bus     *events.Bus
	logger  zerolog.Logger
}

// NewService creates an insertion service.
func NewService(station config.Station, ads AdSource, tracks TrackSource, trigger Trigger, prober DurationProber, plog PlayLogger, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{
		station: station,
		ads:     ads,
		tracks:  tracks,
		trigger: trigger,
		prober:  prober,
		plog:    plog,
		bus:     bus,
		logger:  logger.With().Str("component", "insertion").Str("station", station.ID).Logger(),
	}
}

// InsertInstant stops playback and plays the ad break directly. Instant
// insertion is synchronous by construction, so plays are logged immediately.
func (s *Service) InsertInstant(ctx context.Context, isHourStart bool) error {
	return s.run(ctx, false, isHourStart)
}

// InsertScheduled queues the ad break as the next playlist item and waits
// for the playout system to confirm it aired within the hour.
func (s *Service) InsertScheduled(ctx context.Context) error {
	return s.run(ctx, true, false)
}

type selectedAd struct {
	ad       models.Ad
	duration time.Duration
}

func (s *Service) run(ctx context.Context, scheduled, isHourStart bool) error {
	mode := "instant"
	if scheduled {
		mode = "scheduled"
	}

	// Final safety check before committing: never insert into an empty queue.
	if !s.tracks.HasNextTrack() {
		s.logger.Debug().Msg("no next track queued; aborting insertion")
		return nil
	}

	selected, err := s.selectAds(ctx)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		s.logger.Debug().Msg("no eligible ads; nothing to play")
		return nil
	}

	names := make([]string, len(selected))
	for i, sel := range selected {
		names[i] = sel.ad.Name
	}

	if err := s.assemble(ctx, selected, isHourStart); err != nil {
		telemetry.AdInsertions.WithLabelValues(s.station.ID, mode, "build_failed").Inc()
		return err
	}

	if scheduled {
		err = s.triggerScheduled(ctx, names)
	} else {
		err = s.triggerInstant(ctx, names)
	}

	outcome := "success"
	if err != nil {
		outcome = "failed"
	}
	telemetry.AdInsertions.WithLabelValues(s.station.ID, mode, outcome).Inc()
	if s.bus != nil {
		s.bus.Publish(events.EventInsertionResult, events.Payload{
			"station": s.station.ID,
			"mode":    mode,
			"outcome": outcome,
			"ads":     strings.Join(names, ", "),
		})
	}
	return err
}

// selectAds keeps enabled, schedule-eligible ads whose audio file exists and
// can be measured.
func (s *Service) selectAds(ctx context.Context) ([]selectedAd, error) {
	ads, err := s.ads.StationAds(ctx, s.station.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var selected []selectedAd
	for _, ad := range ads {
		if !ad.Enabled || !ad.EligibleAt(now) {
			continue
		}
		if _, err := os.Stat(ad.AudioPath); err != nil {
			s.logger.Warn().Str("ad", ad.Name).Str("path", ad.AudioPath).Msg("ad audio file missing; skipping")
			continue
		}
		duration, err := s.prober.Duration(ctx, ad.AudioPath)
		if err != nil {
			s.logger.Warn().Err(err).Str("ad", ad.Name).Msg("ad duration unreadable; skipping")
			continue
		}
		selected = append(selected, selectedAd{ad: ad, duration: duration})
	}
	return selected, nil
}

// assemble writes the concatenated artifact and verifies its measured
// duration against the sum of the parts.
func (s *Service) assemble(ctx context.Context, selected []selectedAd, isHourStart bool) error {
	var paths []string
	var expected time.Duration

	if isHourStart && s.station.StationIDClip != "" {
		if clipDur, err := s.prober.Duration(ctx, s.station.StationIDClip); err == nil {
			paths = append(paths, s.station.StationIDClip)
			expected += clipDur
		} else {
			s.logger.Warn().Err(err).Msg("station id clip unreadable; skipping")
		}
	}

	for _, sel := range selected {
		paths = append(paths, sel.ad.AudioPath)
		expected += sel.duration
	}

	if err := concatFiles(s.station.OutputFile, paths); err != nil {
		detail := fmt.Sprintf("concat: %v", err)
		s.logFailure(ctx, selected, detail)
		return fmt.Errorf("%s", detail)
	}

	actual, err := s.prober.Duration(ctx, s.station.OutputFile)
	if err != nil {
		detail := fmt.Sprintf("concat: artifact unreadable: %v", err)
		s.logFailure(ctx, selected, detail)
		return fmt.Errorf("%s", detail)
	}

	deviation := actual - expected
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation > durationTolerance {
		detail := fmt.Sprintf("concat: duration mismatch: built %s, expected %s", actual, expected)
		s.logFailure(ctx, selected, detail)
		return fmt.Errorf("%s", detail)
	}

	s.logger.Debug().Dur("duration", actual).Int("files", len(paths)).Msg("ad artifact assembled")
	return nil
}

func (s *Service) triggerInstant(ctx context.Context, names []string) error {
	if err := s.trigger.Stop(ctx); err != nil {
		s.logFailureNames(ctx, names, err.Error())
		return err
	}
	if err := s.trigger.PlayFile(ctx, s.station.OutputFile); err != nil {
		s.logFailureNames(ctx, names, err.Error())
		return err
	}

	for _, name := range names {
		if err := s.plog.LogPlay(ctx, s.station.ID, name); err != nil {
			s.logger.Warn().Err(err).Str("ad", name).Msg("failed to record play")
		}
	}
	s.logger.Info().Strs("ads", names).Msg("instant ad break playing")
	return nil
}

func (s *Service) triggerScheduled(ctx context.Context, names []string) error {
	if err := s.trigger.Enqueue(ctx, s.station.OutputFile); err != nil {
		s.logFailureNames(ctx, names, err.Error())
		return err
	}

	now := time.Now()
	window := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location()).
		Add(time.Hour).Sub(now)
	if window < minConfirmWindow {
		window = minConfirmWindow
	}

	sentinel := s.ads.Setting(ctx, s.station.ID, "ads.sentinel_artist", defaultSentinelArtist)
	s.logger.Info().Strs("ads", names).Dur("window", window).Msg("ad break queued; awaiting confirmation")

	result := s.tracks.WaitForArtist(ctx, sentinel, window, confirmPollInterval, true)
	if !result.OK {
		detail := fmt.Sprintf("timeout: ad break not confirmed (last artist %q)", result.LastArtist)
		s.logFailureNames(ctx, names, detail)
		return fmt.Errorf("%s", detail)
	}

	if !result.SameHour {
		s.logger.Warn().Strs("ads", names).Msg("ad break aired after its scheduled hour")
	}
	for _, name := range names {
		if err := s.plog.LogPlay(ctx, s.station.ID, name); err != nil {
			s.logger.Warn().Err(err).Str("ad", name).Msg("failed to record play")
		}
	}
	s.logger.Info().Strs("ads", names).Bool("same_hour", result.SameHour).Msg("ad break confirmed")
	return nil
}

func (s *Service) logFailure(ctx context.Context, selected []selectedAd, detail string) {
	names := make([]string, len(selected))
	for i, sel := range selected {
		names[i] = sel.ad.Name
	}
	s.logFailureNames(ctx, names, detail)
}

func (s *Service) logFailureNames(ctx context.Context, names []string, detail string) {
	s.logger.Warn().Strs("ads", names).Str("detail", detail).Msg("insertion failed")
	if err := s.plog.LogFailure(ctx, s.station.ID, names, detail); err != nil {
		s.logger.Error().Err(err).Msg("failed to record failure")
	}
}
