/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/skald/internal/adschedule"
	"github.com/friendsincode/skald/internal/classify"
	"github.com/friendsincode/skald/internal/config"
	"github.com/friendsincode/skald/internal/db"
	"github.com/friendsincode/skald/internal/events"
	"github.com/friendsincode/skald/internal/insertion"
	"github.com/friendsincode/skald/internal/logbuffer"
	"github.com/friendsincode/skald/internal/logging"
	"github.com/friendsincode/skald/internal/nowplaying"
	"github.com/friendsincode/skald/internal/playlog"
	"github.com/friendsincode/skald/internal/playout"
	"github.com/friendsincode/skald/internal/rds"
	"github.com/friendsincode/skald/internal/rotation"
	"github.com/friendsincode/skald/internal/server"
	"github.com/friendsincode/skald/internal/store"
	"github.com/friendsincode/skald/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "skald",
	Short: "Skald - RDS messaging and sponsor-ad insertion for radio stations",
	Long:  "Skald keeps RDS encoders rotating now-playing messages and guarantees sponsor ad breaks air within their scheduled hour, coordinating with an external playout automation system.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the station engines and the admin API",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logBuf := logbuffer.New(cfg.LogBufferSize)
	logger = logging.SetupWithWriter(cfg.Environment, logBuf)
	logger.Info().Str("version", version.Version).Msg("Skald starting")

	stations, err := config.LoadStations(cfg.StationsFile)
	if err != nil {
		return fmt.Errorf("load stations: %w", err)
	}

	database, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	bus := events.NewBus()
	configStore := store.New(database, logger)
	configStore.RegisterObserver(func() {
		bus.Publish(events.EventConfigUpdated, events.Payload{"at": time.Now()})
	})
	playLog := playlog.NewService(database, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	started := 0
	for _, station := range stations {
		if !station.IsEnabled() {
			logger.Info().Str("station", station.ID).Msg("station disabled; skipping")
			continue
		}
		startStation(ctx, &wg, station, configStore, playLog, bus)
		started++
	}
	if started == 0 {
		logger.Warn().Msg("no enabled stations configured")
	}

	adminServer := server.New(cfg, bus, logBuf, playLog, logger)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- adminServer.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("admin API failed")
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("admin API shutdown failed")
	}

	wg.Wait()
	logger.Info().Msg("Skald stopped")
	return nil
}

// startStation wires and launches the two engine loops for one station.
// Each engine gets its own status file reader so neither loop blocks the
// other on a slow read; the 2 s memo bounds their divergence.
func startStation(ctx context.Context, wg *sync.WaitGroup, station config.Station, configStore *store.Store, playLog *playlog.Service, bus *events.Bus) {
	stationLogger := logger.With().Str("station", station.ID).Logger()
	classifier := classify.NewListClassifier(configStore, stationLogger)

	if station.RDSHost != "" {
		reader := nowplaying.NewReader(station.StatusFile, stationLogger)
		sender := rds.NewClient(station.RDSHost, station.RDSPort, cfg.DefaultMessage, stationLogger)
		engine := rotation.New(station.ID, configStore, reader, classifier, sender, bus, cfg.DefaultMessage, stationLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine.Run(ctx)
		}()
	} else {
		stationLogger.Info().Msg("no RDS encoder configured; rotation engine not started")
	}

	if station.PlayoutURL != "" {
		reader := nowplaying.NewReader(station.StatusFile, stationLogger)
		trigger := playout.NewClient(station.PlayoutURL, stationLogger)
		inserter := insertion.NewService(station, configStore, reader, trigger,
			insertion.FFProbe{Bin: cfg.FFProbeBin}, playLog, bus, stationLogger)
		engine := adschedule.New(station.ID, reader, classifier, inserter, bus, stationLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine.Run(ctx)
		}()
	} else {
		stationLogger.Info().Msg("no playout endpoint configured; ad engine not started")
	}
}
