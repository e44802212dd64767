package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/veldtsim/fireline/internal/config"
	"github.com/veldtsim/fireline/internal/content"
	"github.com/veldtsim/fireline/internal/doctrine"
	"github.com/veldtsim/fireline/internal/sim"
	"github.com/veldtsim/fireline/internal/telemetry"
)

type runStats struct {
	runIndex int
	seed     int64

	firstContactTick int
	firstShotTick    int
	firstCoverTick   int
	firstPinTick     int
	firstDeathTick   int

	shots          int
	hits           int
	deaths         int
	transitions    int
	coverMoves     int
	coverAbandons  int
	openFights     int
	pins           int
	flanks         int
	suppressAborts int

	outcome sim.OutcomeReport
	ticks   int
}

func main() {
	var (
		runs       int
		ticks      int
		seedBase   int64
		seedStep   int64
		scenario   string
		configDir  string
		contentDir string
		showAAR    bool
		verbose    bool
		logFile    string
	)

	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 5400, "tick cap per run")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&scenario, "scenario", "skirmish", "scenario name (built-in: skirmish)")
	flag.StringVar(&configDir, "config", ".", "directory holding fireline.yaml")
	flag.StringVar(&contentDir, "content", "", "content directory with scenarios/ weapons.yaml doctrines.yaml")
	flag.BoolVar(&showAAR, "aar", false, "print the full after-action report per run")
	flag.BoolVar(&verbose, "v", false, "verbose event log")
	flag.StringVar(&logFile, "log-file", "", "also append logs to this file, without color")
	flag.Parse()

	if runs <= 0 || ticks <= 0 {
		fmt.Println("error: -runs and -ticks must be > 0")
		os.Exit(2)
	}

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
	if scenario != "skirmish" {
		if _, ok := pack.Scenarios[scenario]; !ok {
			fmt.Printf("error: unknown scenario %q (built-in: skirmish)\n", scenario)
			os.Exit(1)
		}
	}

	fmt.Printf("=== fireline headless report ===\n")
	fmt.Printf("scenario=%s runs=%d tick_cap=%d seed_base=%d seed_step=%d\n\n", scenario, runs, ticks, seedBase, seedStep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		stats, err := runOnce(i+1, seed, ticks, scenario, cfg, pack, log, verbose, showAAR)
		if err != nil {
			fmt.Printf("error: run %d: %v\n", i+1, err)
			os.Exit(1)
		}
		all = append(all, stats)
		printRun(stats)
	}
	printAggregate(all)
}

func runOnce(runIndex int, seed int64, tickCap int, scenario string, cfg *config.Config,
	pack *content.Pack, log zerolog.Logger, verbose, showAAR bool) (runStats, error) {

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
		return runStats{}, fmt.Errorf("doctrine: %w", err)
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
			// Recording is optional; the run itself goes ahead.
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

	sc := content.BuiltinSkirmish()
	if scenario != "skirmish" {
		sc = pack.Scenarios[scenario]
	}
	w, err := pack.BuildWorld(sc, base)
	if err != nil {
		return runStats{}, err
	}

	// Tick breadcrumbs are too chatty to log unsampled.
	diag := log.Sample(&zerolog.BurstSampler{
		Burst:       5,
		Period:      10 * time.Second,
		NextSampler: &zerolog.BasicSampler{N: 100},
	})
	for t := 0; t < tickCap; t++ {
		w.Step(sim.DefaultDt)
		alive := w.AliveByTeam()
		diag.Debug().
			Int("tick", w.Tick()).
			Int("red", alive[sim.TeamRed]).
			Int("blue", alive[sim.TeamBlue]).
			Msg("tick")
		if alive[sim.TeamRed] == 0 || alive[sim.TeamBlue] == 0 {
			break
		}
	}

	stats := collectStats(runIndex, seed, w)
	if recorder != nil {
		if err := recorder.Finish(w.Tick(), stats.outcome.Outcome.String()); err != nil {
			log.Error().Err(err).Msg("finalize recording")
		}
	}
	if showAAR {
		fmt.Println(sim.AfterActionReport(w, 120))
	}
	return stats, nil
}

func collectStats(runIndex int, seed int64, w *sim.World) runStats {
	entries := w.SimLog.Entries()
	return runStats{
		runIndex:         runIndex,
		seed:             seed,
		firstContactTick: firstTick(entries, "squad", "contact", ""),
		firstShotTick:    firstShot(entries),
		firstCoverTick:   firstTick(entries, "cover", "found", ""),
		firstPinTick:     firstTick(entries, "threat", "pinned", ""),
		firstDeathTick:   firstTick(entries, "state", "death", ""),
		shots:            w.SimLog.CountCategory("shot", "hit") + w.SimLog.CountCategory("shot", "miss"),
		hits:             w.SimLog.CountCategory("shot", "hit"),
		deaths:           w.SimLog.CountCategory("state", "death"),
		transitions:      w.SimLog.CountCategory("state", "transition"),
		coverMoves:       w.SimLog.CountCategory("cover", "found"),
		coverAbandons:    w.SimLog.CountCategory("cover", "abandon"),
		openFights:       w.SimLog.CountCategory("cover", "give_up"),
		pins:             w.SimLog.CountCategory("threat", "pinned"),
		flanks:           w.SimLog.CountCategory("move", "flank"),
		suppressAborts:   w.SimLog.CountCategory("shot", "suppress_abort"),
		outcome:          sim.DetermineOutcome(w),
		ticks:            w.Tick(),
	}
}

func firstTick(entries []sim.SimLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

func firstShot(entries []sim.SimLogEntry) int {
	for _, e := range entries {
		if e.Category == "shot" && (e.Key == "hit" || e.Key == "miss") {
			return e.Tick
		}
	}
	return -1
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d, %d ticks) ---\n", rs.runIndex, rs.seed, rs.ticks)
	fmt.Printf("outcome: %s (%s)\n", rs.outcome.Outcome, rs.outcome.Description)
	fmt.Printf("phase_markers: contact=%d first_shot=%d first_cover=%d first_pin=%d first_death=%d\n",
		rs.firstContactTick, rs.firstShotTick, rs.firstCoverTick, rs.firstPinTick, rs.firstDeathTick)
	acc := 0.0
	if rs.shots > 0 {
		acc = float64(rs.hits) / float64(rs.shots) * 100
	}
	fmt.Printf("fire: shots=%d hits=%d acc=%.0f%% deaths=%d\n", rs.shots, rs.hits, acc, rs.deaths)
	fmt.Printf("behavior: transitions=%d cover_moves=%d abandons=%d open_fights=%d pins=%d flanks=%d suppress_aborts=%d\n",
		rs.transitions, rs.coverMoves, rs.coverAbandons, rs.openFights, rs.pins, rs.flanks, rs.suppressAborts)
	fmt.Println()
}

func printAggregate(all []runStats) {
	if len(all) == 0 {
		return
	}
	totals := runStats{}
	wins := map[sim.BattleOutcome]int{}
	contactTicks := make([]int, 0, len(all))
	deathTicks := make([]int, 0, len(all))
	for _, rs := range all {
		totals.shots += rs.shots
		totals.hits += rs.hits
		totals.deaths += rs.deaths
		totals.transitions += rs.transitions
		totals.coverMoves += rs.coverMoves
		totals.coverAbandons += rs.coverAbandons
		totals.openFights += rs.openFights
		totals.pins += rs.pins
		totals.flanks += rs.flanks
		totals.ticks += rs.ticks
		wins[rs.outcome.Outcome]++
		if rs.firstContactTick >= 0 {
			contactTicks = append(contactTicks, rs.firstContactTick)
		}
		if rs.firstDeathTick >= 0 {
			deathTicks = append(deathTicks, rs.firstDeathTick)
		}
	}
	n := len(all)
	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d avg_ticks=%.0f\n", n, avg(totals.ticks, n))
	fmt.Printf("outcomes: red=%d blue=%d draw=%d inconclusive=%d\n",
		wins[sim.OutcomeRedVictory], wins[sim.OutcomeBlueVictory], wins[sim.OutcomeDraw], wins[sim.OutcomeInconclusive])
	fmt.Printf("avg_per_run: shots=%.1f hits=%.1f deaths=%.1f transitions=%.1f\n",
		avg(totals.shots, n), avg(totals.hits, n), avg(totals.deaths, n), avg(totals.transitions, n))
	fmt.Printf("avg_behavior: cover_moves=%.1f abandons=%.1f open_fights=%.1f pins=%.1f flanks=%.1f\n",
		avg(totals.coverMoves, n), avg(totals.coverAbandons, n), avg(totals.openFights, n), avg(totals.pins, n), avg(totals.flanks, n))
	fmt.Printf("phase_marker_avg_ticks: first_contact=%s first_death=%s\n",
		avgTickString(contactTicks), avgTickString(deathTicks))
}

func avg(sum, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func newLogger(level string, pretty bool, logFile string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	// Human output goes to stdout, logs to stderr.
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
