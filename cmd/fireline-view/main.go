package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"

	"github.com/veldtsim/fireline/internal/config"
	"github.com/veldtsim/fireline/internal/content"
	"github.com/veldtsim/fireline/internal/doctrine"
	"github.com/veldtsim/fireline/internal/sim"
	"github.com/veldtsim/fireline/internal/telemetry"
)

func main() {
	var (
		scenario   string
		configDir  string
		contentDir string
		seed       int64
		verbose    bool
		logFile    string
	)

	flag.StringVar(&scenario, "scenario", "skirmish", "scenario name (built-in: skirmish)")
	flag.StringVar(&configDir, "config", ".", "directory holding fireline.yaml")
	flag.StringVar(&contentDir, "content", "", "content directory with scenarios/ weapons.yaml doctrines.yaml")
	flag.Int64Var(&seed, "seed", 0, "RNG seed (0 = use config value)")
	flag.BoolVar(&verbose, "v", false, "verbose event log")
	flag.StringVar(&logFile, "log-file", "", "also append logs to this file, without color")
	flag.Parse()

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	log := newLogger(cfg.LogLevel(), cfg.LogPretty(), logFile)

	pack := &content.Pack{
		Weapons:   map[string]sim.WeaponProfile{"rifle": sim.DefaultRifle()},
		Doctrines: map[string]doctrine.Doctrine{},
		Scenarios: map[string]*content.Scenario{},
	}
	if contentDir != "" {
		pack, err = content.LoadPack(contentDir)
		if err != nil {
			fmt.Printf("error: load content: %v\n", err)
			os.Exit(1)
		}
	}
	sc := content.BuiltinSkirmish()
	if scenario != "skirmish" {
		var ok bool
		sc, ok = pack.Scenarios[scenario]
		if !ok {
			fmt.Printf("error: unknown scenario %q (built-in: skirmish)\n", scenario)
			os.Exit(1)
		}
	}

	if seed == 0 {
		seed = cfg.Seed()
	}
	base := sim.WorldConfig{
		Cols:       cfg.Cols(),
		Rows:       cfg.Rows(),
		Seed:       seed,
		Tunables:   cfg.Tunables(),
		Logger:     &log,
		VerboseLog: verbose,
	}

	name, aggr, caut, team := cfg.Doctrine()
	pol, err := doctrine.FromDoctrine(doctrine.Doctrine{
		Name: name, Aggression: aggr, Caution: caut, Teamwork: team,
	})
	if err != nil {
		fmt.Printf("error: doctrine: %v\n", err)
		os.Exit(1)
	}
	base.Policy = pol

	var sinks sim.MultiSink
	var recorder *telemetry.Recorder
	if cfg.SqliteEnabled() {
		db, err := telemetry.OpenSqlite(cfg.SqlitePath())
		if err == nil {
			recorder, err = telemetry.NewRecorder(db, log, scenario, seed)
		}
		if err != nil {
			// Recording is optional; the session goes ahead without it.
			log.Warn().Err(err).Str("path", cfg.SqlitePath()).Msg("run db unavailable, recording disabled")
		} else {
			sinks = append(sinks, recorder)
		}
	}
	if cfg.InfluxEnabled() {
		url, token, org, bucket := cfg.Influx()
		metrics := telemetry.NewMetrics(url, token, org, bucket, log)
		defer metrics.Close()
		sinks = append(sinks, metrics)
	}
	if len(sinks) > 0 {
		base.Sink = sinks
	}

	w, err := pack.BuildWorld(sc, base)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}

	// Live tuning reload is best effort; the viewer runs fine without it.
	watcher, err := cfg.Watch()
	if err != nil {
		log.Warn().Err(err).Msg("config watch unavailable")
		watcher = nil
	} else {
		defer watcher.Close()
	}

	v := newViewer(w, watcher, log)
	ebiten.SetWindowTitle("fireline")
	ebiten.SetWindowSize(v.width*2, v.height*2)
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal().Err(err).Msg("viewer stopped")
	}

	if recorder != nil {
		outcome := sim.DetermineOutcome(w)
		if err := recorder.Finish(w.Tick(), outcome.Outcome.String()); err != nil {
			log.Error().Err(err).Msg("finalize recording")
		}
	}
}

func newLogger(level string, pretty bool, logFile string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	var console io.Writer = os.Stderr
	if pretty {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	out := console
	var fileErr error
	if logFile != "" {
		f, ferr := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if ferr != nil {
			fileErr = ferr
		} else {
			out = zerolog.MultiLevelWriter(console, zerolog.ConsoleWriter{
				Out:        f,
				NoColor:    true,
				TimeFormat: time.RFC3339,
			})
		}
	}
	log := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", logFile).Msg("log file unavailable, console only")
	}
	return log
}
