/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package classify decides whether a track carries spoken-word lecture
// programming. The decision gates artist mentions in RDS messages and
// changes ad insertion timing around track boundaries.
package classify

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skald/internal/nowplaying"
)

// Classifier reports whether a track is lecture content.
type Classifier interface {
	IsLecture(track *nowplaying.Track) bool
}

// Nop is the classifier used when no list source is configured; nothing is
// ever a lecture.
type Nop struct{}

// IsLecture always returns false.
func (Nop) IsLecture(*nowplaying.Track) bool { return false }

// ListSource supplies the shared artist lists. Both sets are keyed by
// lowercase artist name.
type ListSource interface {
	Blacklist(ctx context.Context) (map[string]bool, error)
	Whitelist(ctx context.Context) (map[string]bool, error)
}

// ListClassifier classifies using the shared blacklist and whitelist plus a
// first-letter heuristic. Lists are refreshed from the source on every
// decision so operator edits take effect without a restart.
type ListClassifier struct {
	lists  ListSource
	logger zerolog.Logger
}

// NewListClassifier creates a list-backed classifier.
func NewListClassifier(lists ListSource, logger zerolog.Logger) *ListClassifier {
	return &ListClassifier{
		lists:  lists,
		logger: logger.With().Str("component", "classifier").Logger(),
	}
}

// IsLecture applies the ordered rule set. The blacklist short-circuits
// before the whitelist and before the heuristic; that ordering is a
// correctness requirement, not an optimization.
func (c *ListClassifier) IsLecture(track *nowplaying.Track) bool {
	if track == nil {
		return false
	}
	artist := strings.ToLower(strings.TrimSpace(track.Artist))
	if artist == "" {
		return false
	}

	ctx := context.Background()

	blacklist, err := c.lists.Blacklist(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("blacklist unavailable")
		blacklist = nil
	}
	if blacklist[artist] {
		return false
	}

	whitelist, err := c.lists.Whitelist(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("whitelist unavailable")
		whitelist = nil
	}
	if whitelist[artist] {
		return true
	}

	first, _ := utf8.DecodeRuneInString(artist)
	return unicode.ToLower(first) == 'r'
}
