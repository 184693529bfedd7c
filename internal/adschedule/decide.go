/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package adschedule

import (
	"time"

	"github.com/friendsincode/skald/internal/nowplaying"
)

// Decision is the outcome of one scheduling evaluation.
type Decision int

const (
	// DecisionNone skips the hour entirely (playlist ended).
	DecisionNone Decision = iota
	// DecisionInstant interrupts playback and inserts now.
	DecisionInstant
	// DecisionScheduled queues the ad break as the next playlist item and
	// waits for the playout system to confirm it aired.
	DecisionScheduled
	// DecisionWait re-evaluates at the next detected track boundary.
	DecisionWait
)

func (d Decision) String() string {
	switch d {
	case DecisionNone:
		return "none"
	case DecisionInstant:
		return "instant"
	case DecisionScheduled:
		return "scheduled"
	case DecisionWait:
		return "wait"
	}
	return "unknown"
}

// minSafeWindow is the point past which waiting for a track boundary risks
// missing the hour's commitment.
const minSafeWindow = 3 * time.Minute

// hourEnd returns the end of the clock hour containing t.
func hourEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location()).Add(time.Hour)
}

// hourStart returns the start of the clock hour containing t.
func hourStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// Decide applies the fixed decision precedence; the first matching rule
// wins. The hourly commitment dominates: whenever timing cannot be reasoned
// about safely, the answer is an immediate insertion.
func Decide(now time.Time, cur, next *nowplaying.Track, isLecture func(*nowplaying.Track) bool) Decision {
	// Never insert into an empty queue.
	if next == nil {
		return DecisionNone
	}

	boundary := hourEnd(now)

	// Too close to the hour boundary to wait for anything.
	if boundary.Sub(now) < minSafeWindow {
		return DecisionInstant
	}

	// Without a projected end for the current track there is no safe way to
	// time a boundary; take the hour's commitment now.
	if cur == nil {
		return DecisionInstant
	}
	projectedEnd, ok := cur.ProjectedEnd()
	if !ok {
		return DecisionInstant
	}

	// The current track outlasts the hour; it would consume all remaining
	// time if we waited.
	if projectedEnd.After(boundary) {
		return DecisionInstant
	}

	if isLecture(next) {
		// Lectures are not interrupted mid-utterance: queue the break for
		// the gap, provided that gap still falls inside this hour.
		if projectedEnd.Before(boundary) {
			return DecisionScheduled
		}
		return DecisionInstant
	}

	// Next track is regular content: wait for its boundary unless the time
	// left after the current track ends is already too tight.
	if boundary.Sub(projectedEnd) < minSafeWindow {
		return DecisionInstant
	}
	return DecisionWait
}
