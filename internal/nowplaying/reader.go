/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package nowplaying observes the playout automation system through the
// status file it periodically rewrites. The file lives on a share whose OS
// read cache can serve stale content, so every observation is a full fresh
// open-and-read; parsing happens from the in-memory buffer only.
package nowplaying

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// settleDelay absorbs writer-side partial-write races before parsing.
	settleDelay = 100 * time.Millisecond

	// memoTTL bounds read frequency for the high-frequency rotation loop.
	// The memo is keyed by file modification time and never outlives this.
	memoTTL = 2 * time.Second
)

// Reader reads the status file for one station. Each engine holds its own
// Reader, so two engines may briefly observe different snapshots; the memo
// TTL bounds that divergence.
type Reader struct {
	path   string
	logger zerolog.Logger

	// Test seams; production uses the defaults above.
	settle time.Duration
	ttl    time.Duration

	mu        sync.Mutex
	memoAt    time.Time
	memoMod   time.Time
	memoCur   *Track
	memoNext  *Track
	memoValid bool
}

// NewReader creates a status file reader.
func NewReader(path string, logger zerolog.Logger) *Reader {
	return &Reader{
		path:   path,
		logger: logger.With().Str("component", "nowplaying").Logger(),
		settle: settleDelay,
		ttl:    memoTTL,
	}
}

// CurrentTrack returns the currently playing track, or nil when the status
// file is missing, unreadable, or has no current entry. Callers must
// tolerate "no data yet".
func (r *Reader) CurrentTrack() *Track {
	cur, _ := r.snapshot()
	return cur
}

// NextTrack returns the queued next track, or nil.
func (r *Reader) NextTrack() *Track {
	_, next := r.snapshot()
	return next
}

// HasNextTrack reports whether the playout system has a next track queued.
func (r *Reader) HasNextTrack() bool {
	return r.NextTrack() != nil
}

// WaitResult is the outcome of WaitForArtist.
type WaitResult struct {
	OK            bool
	MatchedArtist string
	StartedAt     time.Time

	// SameHour is false when the match arrived after the wall-clock hour in
	// which the wait began. Only meaningful when requireSameHour was set.
	SameHour bool

	Reason     string
	LastArtist string
}

// WaitForArtist polls until the current track's artist equals target
// (case-insensitive) or timeout elapses. A match found after the hour has
// advanced is still reported, flagged SameHour=false.
func (r *Reader) WaitForArtist(ctx context.Context, target string, timeout, pollInterval time.Duration, requireSameHour bool) WaitResult {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	attemptHour := time.Now().Hour()
	deadline := time.Now().Add(timeout)

	var lastArtist string
	for {
		if cur := r.CurrentTrack(); cur != nil {
			lastArtist = cur.Artist
			if strings.EqualFold(strings.TrimSpace(cur.Artist), strings.TrimSpace(target)) {
				sameHour := true
				if requireSameHour {
					sameHour = time.Now().Hour() == attemptHour
				}
				return WaitResult{
					OK:            true,
					MatchedArtist: cur.Artist,
					StartedAt:     cur.StartedAt,
					SameHour:      sameHour,
				}
			}
		}

		if time.Now().After(deadline) {
			return WaitResult{Reason: "timeout", LastArtist: lastArtist}
		}

		select {
		case <-ctx.Done():
			return WaitResult{Reason: "canceled", LastArtist: lastArtist}
		case <-time.After(pollInterval):
		}
	}
}

// snapshot returns the memoized parse when it is still fresh for the current
// file modification time, otherwise re-reads the file.
func (r *Reader) snapshot() (*Track, *Track) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.path)
	if err != nil {
		r.memoValid = false
		return nil, nil
	}

	if r.memoValid && info.ModTime().Equal(r.memoMod) && time.Since(r.memoAt) < r.ttl {
		return r.memoCur, r.memoNext
	}

	// The writer rewrites the whole file; a short settle keeps us from
	// parsing a half-written snapshot.
	if r.settle > 0 {
		time.Sleep(r.settle)
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		r.logger.Debug().Err(err).Msg("status file read failed")
		r.memoValid = false
		return nil, nil
	}

	cur, next := parseStatus(data)

	r.memoAt = time.Now()
	r.memoMod = info.ModTime()
	r.memoCur = cur
	r.memoNext = next
	r.memoValid = true
	return cur, next
}

// parseStatus parses the key=value status file shape. Unknown keys are
// ignored; a record without an artist is treated as absent.
func parseStatus(data []byte) (cur, next *Track) {
	fields := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	cur = trackFromFields(fields, "")
	next = trackFromFields(fields, "next_")
	return cur, next
}

func trackFromFields(fields map[string]string, prefix string) *Track {
	artist := fields[prefix+"artist"]
	title := fields[prefix+"title"]
	if artist == "" && title == "" {
		return nil
	}

	track := &Track{Artist: artist, Title: title}
	if raw, ok := fields[prefix+"started"]; ok {
		if ts, err := parseTimestamp(raw); err == nil {
			track.StartedAt = ts
		}
	}
	if raw, ok := fields[prefix+"duration"]; ok {
		if d, err := parseClockDuration(raw); err == nil {
			track.Duration = d
		}
	}
	return track
}
