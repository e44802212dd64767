package telemetry

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/veldtsim/fireline/internal/sim"
)

const (
	flushThreshold  = 256 // buffered rows before a batch write
	sampleEveryTick = 60  // strength sample cadence
)

// OpenSqlite opens (or creates) the run database at path. An empty path
// uses a shared in-memory database, which tests rely on.
func OpenSqlite(path string) (*gorm.DB, error) {
	if path == "" {
		path = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	return db, nil
}

// Recorder persists simulation events to a run database. It implements
// sim.EventSink. Rows buffer in memory and land in batches; call Finish
// to write the tail and close out the run row.
type Recorder struct {
	db  *gorm.DB
	log zerolog.Logger
	run Run

	states  []StateChange
	shots   []Shot
	deaths  []Death
	samples []TickSample
}

// NewRecorder migrates the schema and opens a run row.
func NewRecorder(db *gorm.DB, log zerolog.Logger, scenario string, seed int64) (*Recorder, error) {
	if err := db.AutoMigrate(DatabaseModels...); err != nil {
		return nil, fmt.Errorf("migrate run db: %w", err)
	}
	r := &Recorder{
		db:  db,
		log: log,
		run: Run{Scenario: scenario, Seed: seed, StartedAt: time.Now()},
	}
	if err := db.Create(&r.run).Error; err != nil {
		return nil, fmt.Errorf("create run row: %w", err)
	}
	return r, nil
}

// RunID returns the database id of the open run.
func (r *Recorder) RunID() uint { return r.run.ID }

func (r *Recorder) StateChanged(tick int, a *sim.Agent, from, to sim.StateKind) {
	r.states = append(r.states, StateChange{
		RunID: r.run.ID,
		Tick:  tick,
		Agent: a.Label,
		Team:  a.Team.String(),
		From:  from.String(),
		To:    to.String(),
	})
	r.maybeFlush()
}

func (r *Recorder) ShotFired(tick int, shooter, target *sim.Agent, hit bool) {
	r.shots = append(r.shots, Shot{
		RunID:   r.run.ID,
		Tick:    tick,
		Shooter: shooter.Label,
		Target:  target.Label,
		Hit:     hit,
	})
	r.maybeFlush()
}

func (r *Recorder) AgentDied(tick int, a *sim.Agent) {
	r.deaths = append(r.deaths, Death{
		RunID: r.run.ID,
		Tick:  tick,
		Agent: a.Label,
		Team:  a.Team.String(),
	})
	r.maybeFlush()
}

func (r *Recorder) TickDone(tick int, aliveByTeam map[sim.Team]int) {
	if tick%sampleEveryTick != 0 {
		return
	}
	r.samples = append(r.samples, TickSample{
		RunID:     r.run.ID,
		Tick:      tick,
		RedAlive:  aliveByTeam[sim.TeamRed],
		BlueAlive: aliveByTeam[sim.TeamBlue],
	})
	r.maybeFlush()
}

func (r *Recorder) buffered() int {
	return len(r.states) + len(r.shots) + len(r.deaths) + len(r.samples)
}

func (r *Recorder) maybeFlush() {
	if r.buffered() >= flushThreshold {
		r.Flush()
	}
}

// Flush writes all buffered rows now. Write errors are logged, not
// returned; a sink cannot stall the simulation.
func (r *Recorder) Flush() {
	if len(r.states) > 0 {
		if err := r.db.Create(&r.states).Error; err != nil {
			r.log.Error().Err(err).Int("rows", len(r.states)).Msg("flush state changes")
		}
		r.states = r.states[:0]
	}
	if len(r.shots) > 0 {
		if err := r.db.Create(&r.shots).Error; err != nil {
			r.log.Error().Err(err).Int("rows", len(r.shots)).Msg("flush shots")
		}
		r.shots = r.shots[:0]
	}
	if len(r.deaths) > 0 {
		if err := r.db.Create(&r.deaths).Error; err != nil {
			r.log.Error().Err(err).Int("rows", len(r.deaths)).Msg("flush deaths")
		}
		r.deaths = r.deaths[:0]
	}
	if len(r.samples) > 0 {
		if err := r.db.Create(&r.samples).Error; err != nil {
			r.log.Error().Err(err).Int("rows", len(r.samples)).Msg("flush tick samples")
		}
		r.samples = r.samples[:0]
	}
}

// Finish flushes the tail and stamps the run row with its result.
func (r *Recorder) Finish(ticks int, outcome string) error {
	r.Flush()
	r.run.Ticks = ticks
	r.run.Outcome = outcome
	if err := r.db.Save(&r.run).Error; err != nil {
		return fmt.Errorf("finalize run row: %w", err)
	}
	return nil
}
