/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package nowplaying

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Track is a snapshot of one playout entry from the status file.
// StartedAt and Duration are zero when the playout system did not report them.
type Track struct {
	Artist    string
	Title     string
	StartedAt time.Time
	Duration  time.Duration
}

// Key returns the identity key used for change detection. It is a plain
// case-sensitive string; classification never uses it.
func (t *Track) Key() string {
	return t.Artist + " - " + t.Title
}

// ProjectedEnd returns the projected end time of the track when both start
// and duration are known.
func (t *Track) ProjectedEnd() (time.Time, bool) {
	if t.StartedAt.IsZero() || t.Duration <= 0 {
		return time.Time{}, false
	}
	return t.StartedAt.Add(t.Duration), true
}

const timestampLayout = "2006-01-02 15:04:05"

// parseTimestamp parses the playout system's YYYY-MM-DD HH:MM:SS form in
// local time.
func parseTimestamp(raw string) (time.Time, error) {
	return time.ParseInLocation(timestampLayout, strings.TrimSpace(raw), time.Local)
}

// parseClockDuration parses MM:SS or H:MM:SS durations.
func parseClockDuration(raw string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}

	var total time.Duration
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		total = total*60 + time.Duration(n)
	}
	return total * time.Second, nil
}
