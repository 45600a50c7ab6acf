// Command planetgen generates a planet terrain grid and optionally keeps it
// evolving: climate turns, continental drift and an HTTP API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/mini-planet/internal/api"
	"github.com/talgya/mini-planet/internal/climate"
	"github.com/talgya/mini-planet/internal/engine"
	"github.com/talgya/mini-planet/internal/entropy"
	"github.com/talgya/mini-planet/internal/persistence"
	"github.com/talgya/mini-planet/internal/world"
)

// overrideFlag collects repeated -set key=value pairs.
type overrideFlag map[string]string

func (o overrideFlag) String() string {
	parts := make([]string, 0, len(o))
	for k, v := range o {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (o overrideFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("want key=value, got %q", s)
	}
	o[strings.TrimSpace(k)] = v
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("planetgen failed", "error", err)
		os.Exit(1)
	}
}

// run does the work of main and returns instead of exiting so deferred
// cleanup, the database close in particular, always happens.
func run() error {
	def := world.DefaultGenConfig()
	overrides := overrideFlag{}

	width := flag.Int("w", def.Width, "grid width (wraps horizontally)")
	height := flag.Int("h", def.Height, "grid height")
	seed := flag.String("seed", def.Seed, "generation seed; empty for a non-reproducible planet")
	era := flag.String("era", string(def.Era), "era: primordial, ancient, industrial or modern")
	mode := flag.String("mode", string(world.ModeGenerate), "first run mode: generate, update, revise or drift")
	turns := flag.Uint64("turns", 0, "climate turns to run after the first generation (0 = none)")
	driftEvery := flag.Uint64("drift-every", envUintOrDefault("PLANETGEN_DRIFT_EVERY", 10), "drift the continents every N turns (0 = never)")
	interval := flag.Duration("interval", 2*time.Second, "minimum wall time per turn")
	dbPath := flag.String("db", envOrDefault("PLANETGEN_DB", "data/planet.db"), "SQLite database path (empty disables storage)")
	serve := flag.Bool("serve", false, "serve the HTTP API and keep turning until interrupted")
	port := flag.Int("port", envIntOrDefault("PLANETGEN_PORT", 8080), "HTTP API port")
	logLevel := flag.String("log-level", envOrDefault("PLANETGEN_LOG_LEVEL", "info"), "debug, info, warn or error")
	flag.Var(overrides, "set", "config override key=value (repeatable); see -keys")
	keys := flag.Bool("keys", false, "list override keys and exit")
	flag.Parse()

	if *keys {
		fmt.Println(strings.Join(world.OverrideKeys(), "\n"))
		return nil
	}

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	cfg := def
	cfg.Width, cfg.Height, cfg.Seed, cfg.Era = *width, *height, *seed, world.Era(*era)
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return fmt.Errorf("invalid override: %w", err)
	}
	runMode, err := world.ParseRunMode(*mode)
	if err != nil {
		return err
	}

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if *dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		db, err = persistence.Open(*dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		slog.Info("database opened", "path", *dbPath)
	}

	// ── Planet ────────────────────────────────────────────────────────
	rng := entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY"))
	if rng.Enabled() {
		slog.Info("random.org entropy enabled for unseeded runs")
	}
	gen := world.NewGenerator(logger, rng)

	model := climate.DefaultModel()
	model.Baseline = cfg.AverageTemperature
	planet := engine.NewPlanet(gen, cfg, model)
	planet.DB = db
	planet.Weather = climate.NewWeatherClient(os.Getenv("OPENWEATHER_API_KEY"), os.Getenv("OPENWEATHER_LOCATION"))
	if planet.RestoreClimate() {
		_, restored := planet.Current()
		slog.Info("climate restored", "temperature", restored.AverageTemperature, "green_index", restored.GreenIndex)
	}

	res, err := planet.Run(runMode, nil)
	if err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	logCounts(res)

	if *turns == 0 && !*serve {
		return nil
	}

	// ── Turn engine ───────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Interval = *interval
	eng.MaxTurns = *turns
	eng.DriftEvery = *driftEvery
	eng.OnTurn = planet.ClimateTurn
	eng.OnDrift = planet.DriftTurn

	if *serve {
		apiServer := &api.Server{
			Planet:   planet,
			Eng:      eng,
			DB:       db,
			Port:     *port,
			AdminKey: os.Getenv("PLANETGEN_ADMIN_KEY"),
		}
		apiServer.Start()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
		close(done)
	}()

	eng.Run()
	if *serve {
		// A bounded turn count ends the loop, not the API.
		<-done
	}

	if last, _ := planet.Current(); last != nil {
		logCounts(last)
	}
	return nil
}

// newLogger writes human-readable text to terminals and JSON otherwise.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// logCounts logs the category breakdown of a result.
func logCounts(res *world.Result) {
	counts := res.Counts()
	for _, cat := range world.Categories() {
		if n := counts.ByCategory[cat]; n > 0 {
			slog.Info("terrain", "category", cat, "cells", humanize.Comma(int64(n)),
				"share", fmt.Sprintf("%.1f%%", 100*float64(n)/float64(counts.Total)))
		}
	}
	slog.Info("planet summary",
		"run", res.Run.ID,
		"executed", res.Executed,
		"land_ratio", fmt.Sprintf("%.3f", res.PreGlacier.LandRatio),
		"glacier_rows", res.TopGlacierRows,
		"centers", len(res.Centers),
		"reproducible", res.Reproducible,
	)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envUintOrDefault(key string, defaultVal uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}
