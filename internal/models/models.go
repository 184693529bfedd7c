/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxMessageLength is the RDS radiotext limit enforced on send.
const MaxMessageLength = 64

// Message is one rotating RDS text. Text may embed {artist} and {title}
// placeholders which are substituted from the currently playing track.
type Message struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	StationID string `gorm:"type:varchar(64);index;not null" json:"station_id"`
	Position  int    `gorm:"not null;default:0" json:"position"`
	Text      string `gorm:"type:varchar(64);not null" json:"text"`
	Enabled   bool   `gorm:"not null;default:true" json:"enabled"`

	// DisplaySeconds is how long the message stays on the encoder before the
	// rotation moves on. Clamped to 1..60, default 10.
	DisplaySeconds int `gorm:"not null;default:10" json:"display_seconds"`

	ScheduleEnabled bool   `gorm:"not null;default:false" json:"schedule_enabled"`
	ScheduleDays    string `gorm:"type:varchar(255)" json:"schedule_days,omitempty"`
	ScheduleHours   string `gorm:"type:varchar(255)" json:"schedule_hours,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Message) TableName() string {
	return "messages"
}

// NewMessage creates a message with defaults applied.
func NewMessage(stationID, text string) *Message {
	return &Message{
		ID:             uuid.NewString(),
		StationID:      stationID,
		Text:           text,
		Enabled:        true,
		DisplaySeconds: 10,
	}
}

// Display returns the clamped display duration.
func (m *Message) Display() time.Duration {
	secs := m.DisplaySeconds
	if secs < 1 {
		secs = 10
	}
	if secs > 60 {
		secs = 60
	}
	return time.Duration(secs) * time.Second
}

// ActiveAt reports whether the message's schedule admits the given time.
// Messages without scheduling enabled are always active; an empty day or
// hour set places no constraint on that axis.
func (m *Message) ActiveAt(t time.Time) bool {
	if !m.ScheduleEnabled {
		return true
	}
	return scheduleAdmits(m.ScheduleDays, m.ScheduleHours, t)
}

// Ad is one sponsor audio insertion configured for a station.
type Ad struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	StationID string `gorm:"type:varchar(64);index;not null" json:"station_id"`
	Position  int    `gorm:"not null;default:0" json:"position"`
	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	Enabled   bool   `gorm:"not null;default:true" json:"enabled"`
	AudioPath string `gorm:"type:text;not null" json:"audio_path"`

	// Scheduled=false means the ad joins every insertion (always-on).
	Scheduled bool   `gorm:"not null;default:false" json:"scheduled"`
	Days      string `gorm:"type:varchar(255)" json:"days,omitempty"`
	Hours     string `gorm:"type:varchar(255)" json:"hours,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Ad) TableName() string {
	return "ads"
}

// NewAd creates an always-on ad.
func NewAd(stationID, name, audioPath string) *Ad {
	return &Ad{
		ID:        uuid.NewString(),
		StationID: stationID,
		Name:      name,
		AudioPath: audioPath,
		Enabled:   true,
	}
}

// EligibleAt reports whether the ad may join an insertion at the given time.
// An unscheduled ad is always eligible; a scheduled ad with empty day and
// hour sets is eligible at any time.
func (a *Ad) EligibleAt(t time.Time) bool {
	if !a.Scheduled {
		return true
	}
	return scheduleAdmits(a.Days, a.Hours, t)
}

// ListKind distinguishes the shared artist lists.
type ListKind string

const (
	ListBlacklist ListKind = "blacklist"
	ListWhitelist ListKind = "whitelist"
)

// ArtistListEntry is one artist name on a shared classification list.
// Names are stored lowercase; matching is case-insensitive.
type ArtistListEntry struct {
	ID     string   `gorm:"type:uuid;primaryKey" json:"id"`
	Kind   ListKind `gorm:"type:varchar(16);index;not null" json:"kind"`
	Artist string   `gorm:"type:varchar(255);not null" json:"artist"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for GORM.
func (ArtistListEntry) TableName() string {
	return "artist_list_entries"
}

// Setting is one station-scoped configuration value under a dotted key.
type Setting struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	StationID string `gorm:"type:varchar(64);uniqueIndex:idx_settings_station_key;not null" json:"station_id"`
	Key       string `gorm:"type:varchar(128);uniqueIndex:idx_settings_station_key;not null" json:"key"`
	Value     string `gorm:"type:text" json:"value"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Setting) TableName() string {
	return "settings"
}

// PlayEvent records one confirmed ad play.
type PlayEvent struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	StationID string    `gorm:"type:varchar(64);index;not null" json:"station_id"`
	AdName    string    `gorm:"type:varchar(255);not null" json:"ad_name"`
	PlayedAt  time.Time `gorm:"index;not null" json:"played_at"`
}

// TableName returns the table name for GORM.
func (PlayEvent) TableName() string {
	return "play_events"
}

// FailureEvent records one failed insertion attempt. AdNames is the
// comma-separated list of ads that were attempted.
type FailureEvent struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	StationID  string    `gorm:"type:varchar(64);index;not null" json:"station_id"`
	AdNames    string    `gorm:"type:text" json:"ad_names"`
	Detail     string    `gorm:"type:text" json:"detail"`
	OccurredAt time.Time `gorm:"index;not null" json:"occurred_at"`
}

// TableName returns the table name for GORM.
func (FailureEvent) TableName() string {
	return "failure_events"
}
