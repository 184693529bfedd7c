/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"sync"
	"time"

	"github.com/friendsincode/skald/internal/events"
)

// StationStatus is the latest observed activity for one station.
type StationStatus struct {
	StationID     string         `json:"station_id"`
	LastRDSText   string         `json:"last_rds_text,omitempty"`
	LastRDSStatus string         `json:"last_rds_status,omitempty"`
	LastRDSAt     *time.Time     `json:"last_rds_at,omitempty"`
	LastDecision  string         `json:"last_decision,omitempty"`
	LastDecisionAt *time.Time    `json:"last_decision_at,omitempty"`
	LastInsertion map[string]any `json:"last_insertion,omitempty"`
}

// statusHub folds engine events into per-station snapshots for the admin API.
type statusHub struct {
	bus *events.Bus

	mu       sync.RWMutex
	stations map[string]*StationStatus
}

func newStatusHub(bus *events.Bus) *statusHub {
	return &statusHub{
		bus:      bus,
		stations: make(map[string]*StationStatus),
	}
}

// run consumes bus events until context cancellation.
func (h *statusHub) run(ctx context.Context) {
	rdsSends := h.bus.Subscribe(events.EventRDSSend)
	decisions := h.bus.Subscribe(events.EventAdDecision)
	insertions := h.bus.Subscribe(events.EventInsertionResult)
	defer func() {
		h.bus.Unsubscribe(events.EventRDSSend, rdsSends)
		h.bus.Unsubscribe(events.EventAdDecision, decisions)
		h.bus.Unsubscribe(events.EventInsertionResult, insertions)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-rdsSends:
			now := time.Now()
			h.update(payload, func(st *StationStatus) {
				st.LastRDSText, _ = payload["text"].(string)
				st.LastRDSStatus, _ = payload["status"].(string)
				st.LastRDSAt = &now
			})
		case payload := <-decisions:
			now := time.Now()
			h.update(payload, func(st *StationStatus) {
				st.LastDecision, _ = payload["decision"].(string)
				st.LastDecisionAt = &now
			})
		case payload := <-insertions:
			h.update(payload, func(st *StationStatus) {
				st.LastInsertion = map[string]any(payload)
			})
		}
	}
}

func (h *statusHub) update(payload events.Payload, apply func(*StationStatus)) {
	stationID, _ := payload["station"].(string)
	if stationID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.stations[stationID]
	if !ok {
		st = &StationStatus{StationID: stationID}
		h.stations[stationID] = st
	}
	apply(st)
}

// snapshot returns a copy of all station statuses.
func (h *statusHub) snapshot() []StationStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]StationStatus, 0, len(h.stations))
	for _, st := range h.stations {
		result = append(result, *st)
	}
	return result
}
