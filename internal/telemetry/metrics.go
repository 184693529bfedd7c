/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes prometheus metrics for the engines.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RDSSends counts radiotext send attempts by outcome status.
	RDSSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skald_rds_sends_total",
		Help: "RDS radiotext send attempts by status.",
	}, []string{"station", "status"})

	// AdDecisions counts scheduling decisions by outcome.
	AdDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skald_ad_decisions_total",
		Help: "Ad scheduling decisions by outcome.",
	}, []string{"station", "decision"})

	// AdInsertions counts insertion attempts by mode and outcome.
	AdInsertions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skald_ad_insertions_total",
		Help: "Ad insertion attempts by mode and outcome.",
	}, []string{"station", "mode", "outcome"})

	// EngineUp marks which engine loops are currently running.
	EngineUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "skald_engine_up",
		Help: "Whether an engine loop is running (1) or stopped (0).",
	}, []string{"station", "engine"})

	// LoopErrors counts recovered engine loop failures.
	LoopErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skald_engine_loop_errors_total",
		Help: "Recovered engine loop errors by engine.",
	}, []string{"station", "engine"})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
