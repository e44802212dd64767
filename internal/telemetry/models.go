package telemetry

import "time"

// DatabaseModels lists every struct migrated into the run database.
var DatabaseModels = []any{
	&Run{},
	&StateChange{},
	&Shot{},
	&Death{},
	&TickSample{},
}

// Run is one recorded simulation run.
type Run struct {
	ID        uint `gorm:"primarykey"`
	Scenario  string
	Seed      int64
	StartedAt time.Time
	Ticks     int
	Outcome   string
}

// StateChange records one behavior transition.
type StateChange struct {
	ID    uint `gorm:"primarykey"`
	RunID uint `gorm:"index"`
	Tick  int
	Agent string
	Team  string
	From  string
	To    string
}

// Shot records one fired round and whether it connected.
type Shot struct {
	ID      uint `gorm:"primarykey"`
	RunID   uint `gorm:"index"`
	Tick    int
	Shooter string
	Target  string
	Hit     bool
}

// Death records an agent going down.
type Death struct {
	ID    uint `gorm:"primarykey"`
	RunID uint `gorm:"index"`
	Tick  int
	Agent string
	Team  string
}

// TickSample is a periodic strength reading, one row per sampled tick.
type TickSample struct {
	ID        uint `gorm:"primarykey"`
	RunID     uint `gorm:"index"`
	Tick      int
	RedAlive  int
	BlueAlive int
}
