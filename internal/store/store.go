/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package store supplies mutable configuration to the engines: rotating
// messages, ad definitions, station settings, and the shared artist lists
// used by the lecture classifier. Mutations commit to the database and then
// notify registered observers.
package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/skald/internal/models"
)

// Store is the configuration store shared by all station engines.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger

	// mu guards read-modify-write sequences and the observer list. Observer
	// callbacks are invoked outside the lock; a callback that reads the
	// store must not deadlock against the mutation that triggered it.
	mu        sync.RWMutex
	observers []func()
}

// New creates a configuration store.
func New(database *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     database,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// RegisterObserver registers a callback invoked after every committed
// mutation, in registration order.
func (s *Store) RegisterObserver(fn func()) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	observers := append([]func(){}, s.observers...)
	s.mu.RUnlock()
	for _, fn := range observers {
		fn()
	}
}

// StationMessages returns the configured messages for a station in rotation
// order.
func (s *Store) StationMessages(ctx context.Context, stationID string) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("station_id = ?", stationID).
		Order("position ASC, created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	return messages, nil
}

// StationAds returns the configured ads for a station in playback order.
func (s *Store) StationAds(ctx context.Context, stationID string) ([]models.Ad, error) {
	var ads []models.Ad
	err := s.db.WithContext(ctx).
		Where("station_id = ?", stationID).
		Order("position ASC, created_at ASC").
		Find(&ads).Error
	if err != nil {
		return nil, fmt.Errorf("load ads: %w", err)
	}
	return ads, nil
}

// Setting returns a station-scoped setting value, or def when unset.
func (s *Store) Setting(ctx context.Context, stationID, key, def string) string {
	var setting models.Setting
	err := s.db.WithContext(ctx).
		Where("station_id = ? AND key = ?", stationID, key).
		First(&setting).Error
	if err != nil {
		return def
	}
	return setting.Value
}

// SettingInt returns a setting parsed as an integer, or def.
func (s *Store) SettingInt(ctx context.Context, stationID, key string, def int) int {
	raw := s.Setting(ctx, stationID, key, "")
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return parsed
}

// PutSetting upserts a station-scoped setting and notifies observers.
func (s *Store) PutSetting(ctx context.Context, stationID, key, value string) error {
	s.mu.Lock()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "station_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{
		ID:        uuid.NewString(),
		StationID: stationID,
		Key:       key,
		Value:     value,
	}).Error
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("put setting: %w", err)
	}

	s.notify()
	return nil
}

// SaveMessage creates or updates a message and notifies observers.
func (s *Store) SaveMessage(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	s.mu.Lock()
	err := s.db.WithContext(ctx).Save(message).Error
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}

	s.logger.Info().Str("station", message.StationID).Str("message", message.ID).Msg("message saved")
	s.notify()
	return nil
}

// DeleteMessage removes a message and notifies observers.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	err := s.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", id).Error
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	s.notify()
	return nil
}

// SaveAd creates or updates an ad and notifies observers.
func (s *Store) SaveAd(ctx context.Context, ad *models.Ad) error {
	if ad.ID == "" {
		ad.ID = uuid.NewString()
	}

	s.mu.Lock()
	err := s.db.WithContext(ctx).Save(ad).Error
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("save ad: %w", err)
	}

	s.logger.Info().Str("station", ad.StationID).Str("ad", ad.Name).Msg("ad saved")
	s.notify()
	return nil
}

// DeleteAd removes an ad and notifies observers.
func (s *Store) DeleteAd(ctx context.Context, id string) error {
	s.mu.Lock()
	err := s.db.WithContext(ctx).Delete(&models.Ad{}, "id = ?", id).Error
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete ad: %w", err)
	}

	s.notify()
	return nil
}

// Blacklist returns the shared never-lecture artist set, keyed lowercase.
func (s *Store) Blacklist(ctx context.Context) (map[string]bool, error) {
	return s.artistList(ctx, models.ListBlacklist)
}

// Whitelist returns the shared always-lecture artist set, keyed lowercase.
func (s *Store) Whitelist(ctx context.Context) (map[string]bool, error) {
	return s.artistList(ctx, models.ListWhitelist)
}

func (s *Store) artistList(ctx context.Context, kind models.ListKind) (map[string]bool, error) {
	var entries []models.ArtistListEntry
	err := s.db.WithContext(ctx).Where("kind = ?", kind).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}

	set := make(map[string]bool, len(entries))
	for _, entry := range entries {
		set[strings.ToLower(strings.TrimSpace(entry.Artist))] = true
	}
	return set, nil
}

// AddListEntry adds an artist to a shared list and notifies observers.
// The name is lowercased on write; duplicates are ignored.
func (s *Store) AddListEntry(ctx context.Context, kind models.ListKind, artist string) error {
	artist = strings.ToLower(strings.TrimSpace(artist))
	if artist == "" {
		return fmt.Errorf("empty artist name")
	}

	s.mu.Lock()
	var count int64
	s.db.WithContext(ctx).Model(&models.ArtistListEntry{}).
		Where("kind = ? AND artist = ?", kind, artist).
		Count(&count)
	var err error
	if count == 0 {
		err = s.db.WithContext(ctx).Create(&models.ArtistListEntry{
			ID:     uuid.NewString(),
			Kind:   kind,
			Artist: artist,
		}).Error
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("add %s entry: %w", kind, err)
	}

	s.notify()
	return nil
}

// RemoveListEntry removes an artist from a shared list and notifies observers.
func (s *Store) RemoveListEntry(ctx context.Context, kind models.ListKind, artist string) error {
	artist = strings.ToLower(strings.TrimSpace(artist))

	s.mu.Lock()
	err := s.db.WithContext(ctx).
		Where("kind = ? AND artist = ?", kind, artist).
		Delete(&models.ArtistListEntry{}).Error
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("remove %s entry: %w", kind, err)
	}

	s.notify()
	return nil
}
