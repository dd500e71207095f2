// Command ugsim runs the grouped ultimatum-game population simulation.
package main

import (
	"context"
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
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/talgya/ugworld/internal/api"
	"github.com/talgya/ugworld/internal/config"
	"github.com/talgya/ugworld/internal/engine"
	"github.com/talgya/ugworld/internal/entropy"
	"github.com/talgya/ugworld/internal/experiment"
	"github.com/talgya/ugworld/internal/persistence"
	"github.com/talgya/ugworld/internal/persistence/archive"
	"github.com/talgya/ugworld/internal/persistence/recordlog"
)

// publishEvery is how often, in ticks, the API snapshot is refreshed.
const publishEvery = 10

func main() {
	configPath := flag.String("config", "", "YAML parameter file (defaults when empty)")
	flag.Parse()

	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("UGSIM_LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(*configPath); err != nil {
		slog.Error("ugsim failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// ── Parameters ────────────────────────────────────────────────────
	p := config.Default()
	if configPath != "" {
		var err error
		if p, err = config.Load(configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else if err := p.Validate(); err != nil {
		return err
	}
	if p.Seed == 0 {
		p.Seed = entropy.SeedFromSource(entropy.NewClient(os.Getenv("UGSIM_RANDOM_ORG_KEY")))
	}
	rng := entropy.New(p.Seed)

	dbPath := envOrDefault("UGSIM_DB", "data/ugworld.db")
	recordDir := envOrDefault("UGSIM_RECORD_DIR", "data/records")
	apiPort := envIntOrDefault("UGSIM_PORT", 8080)
	tickMS := envIntOrDefault("UGSIM_TICK_MS", 0)

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	runID := uuid.NewString()
	if dbPath != "off" {
		if err := ensureDBDir(dbPath); err != nil {
			return fmt.Errorf("create database dir: %w", err)
		}
		var err error
		db, err = persistence.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		r, err := db.CreateRun(p)
		if err != nil {
			return err
		}
		runID = r.ID
		if err := db.SaveMeta("last_run", runID); err != nil {
			slog.Warn("save meta failed", "error", err)
		}
		slog.Info("database opened", "dsn", dbPath)
	}

	// ── Simulation ────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	sim := engine.NewSimulation(p, rng)
	sim.Diag = engine.NewDiagnostics(reg)

	exp := experiment.New(sim, rng, p)
	exp.RunID = runID
	exp.Metrics = experiment.NewMetrics(reg)
	sim.Recorder = exp

	if err := sim.Populate(); err != nil {
		return err
	}
	sim.Schedule.ScheduleRepeating(exp, engine.OrderObservers)

	// ── Record sinks ──────────────────────────────────────────────────
	if db != nil {
		exp.AddSink(db)
	}
	var rlog *recordlog.Writer
	if recordDir != "off" {
		var err error
		rlog, err = recordlog.Create(recordDir, runID)
		if err != nil {
			return fmt.Errorf("create record log: %w", err)
		}
		defer rlog.Close()
		exp.AddSink(rlog)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var apiServer *api.Server
	if apiPort > 0 {
		var runs api.RunStore
		if db != nil {
			runs = db
		}
		apiServer = api.NewServer(apiPort, runs, reg)
		exp.AddSink(apiServer)
		apiServer.Start()
	}

	publish := func(tick uint64) {
		if apiServer == nil {
			return
		}
		apiServer.PublishState(api.State{
			RunID:      runID,
			Seed:       p.Seed,
			Tick:       tick,
			Population: sim.Population(),
			Groups:     sim.Summaries(),
			Extinct:    sim.Extinct(),
		})
	}
	publish(0)

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(sim.Schedule)
	eng.MaxTicks = p.MaxTicks
	eng.Interval = time.Duration(tickMS) * time.Millisecond
	eng.Done = sim.Extinct
	eng.OnTick = func(tick uint64) {
		if p.CheckInvariants {
			if err := sim.CheckInvariants(); err != nil {
				slog.Error("invariant violated", "tick", tick, "error", err)
			}
		}
		if tick%publishEvery == 0 {
			publish(tick)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\nugworld run %s: %s agents in %s groups on a %dx%d grid (seed %d).\n",
		runID,
		humanize.Comma(int64(sim.Population())),
		humanize.Comma(int64(len(sim.Groups))),
		p.GridWidth, p.GridHeight, p.Seed,
	)
	if apiServer != nil {
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", apiPort)
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	started := time.Now()
	final := eng.Run(ctx)
	publish(final)

	// ── Shutdown ──────────────────────────────────────────────────────
	if db != nil {
		if err := db.FinishRun(runID, final); err != nil {
			slog.Error("finish run failed", "error", err)
		}
	}
	if rlog != nil {
		if err := rlog.Close(); err != nil {
			slog.Error("close record log failed", "error", err)
		}
		archiveLog(rlog)
	}

	slog.Info("simulation finished",
		"run", runID,
		"ticks", humanize.Comma(int64(final)),
		"records", exp.Records,
		"population", humanize.Comma(int64(sim.Population())),
		"extinct", sim.Extinct(),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return nil
}

// archiveLog uploads the record log when UGSIM_S3_BUCKET is set.
func archiveLog(rlog *recordlog.Writer) {
	if os.Getenv("UGSIM_S3_BUCKET") == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	up, err := archive.OpenFromEnv(ctx)
	if err != nil {
		slog.Error("archive disabled", "error", err)
		return
	}
	if _, err := up.Upload(ctx, filepath.Base(rlog.Path()), rlog.Path()); err != nil {
		slog.Error("archive upload failed", "error", err)
	}
}

// ensureDBDir creates the parent directory of a SQLite path. Server DSNs
// are left alone.
func ensureDBDir(dsn string) error {
	if strings.Contains(dsn, "://") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(dsn), 0o755)
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
