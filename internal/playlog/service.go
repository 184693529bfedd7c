/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package playlog persists confirmed ad plays and insertion failures. The
// engines only append; report formatting over these records belongs to
// external tooling.
package playlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/skald/internal/models"
)

// Service is the gorm-backed play logger.
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewService creates a play logger.
func NewService(database *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     database,
		logger: logger.With().Str("component", "playlog").Logger(),
	}
}

// LogPlay records one confirmed ad play.
func (s *Service) LogPlay(ctx context.Context, stationID, adName string) error {
	event := &models.PlayEvent{
		ID:        uuid.NewString(),
		StationID: stationID,
		AdName:    adName,
		PlayedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("record play: %w", err)
	}

	s.logger.Info().Str("station", stationID).Str("ad", adName).Msg("ad play recorded")
	return nil
}

// LogFailure records one failed insertion attempt.
func (s *Service) LogFailure(ctx context.Context, stationID string, adNames []string, detail string) error {
	event := &models.FailureEvent{
		ID:         uuid.NewString(),
		StationID:  stationID,
		AdNames:    strings.Join(adNames, ", "),
		Detail:     detail,
		OccurredAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("record failure: %w", err)
	}

	s.logger.Warn().Str("station", stationID).Str("ads", event.AdNames).Str("detail", detail).Msg("ad failure recorded")
	return nil
}

// RecentPlays returns the newest play events, optionally filtered by station.
func (s *Service) RecentPlays(ctx context.Context, stationID string, limit int) ([]models.PlayEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := s.db.WithContext(ctx).Order("played_at DESC").Limit(limit)
	if stationID != "" {
		query = query.Where("station_id = ?", stationID)
	}

	var plays []models.PlayEvent
	if err := query.Find(&plays).Error; err != nil {
		return nil, fmt.Errorf("load plays: %w", err)
	}
	return plays, nil
}

// RecentFailures returns the newest failure events, optionally filtered by
// station.
func (s *Service) RecentFailures(ctx context.Context, stationID string, limit int) ([]models.FailureEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := s.db.WithContext(ctx).Order("occurred_at DESC").Limit(limit)
	if stationID != "" {
		query = query.Where("station_id = ?", stationID)
	}

	var failures []models.FailureEvent
	if err := query.Find(&failures).Error; err != nil {
		return nil, fmt.Errorf("load failures: %w", err)
	}
	return failures, nil
}

// Nop is the play logger used when persistence is not configured.
type Nop struct{}

// LogPlay discards the record.
func (Nop) LogPlay(context.Context, string, string) error { return nil }

// LogFailure discards the record.
func (Nop) LogFailure(context.Context, string, []string, string) error { return nil }
