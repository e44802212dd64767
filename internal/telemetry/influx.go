package telemetry

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2api "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"

	"github.com/veldtsim/fireline/internal/sim"
)

// Metrics ships fire and strength measurements to InfluxDB through the
// async write API. It implements sim.EventSink; behavior transitions are
// deliberately not shipped, they are too chatty for a metrics bucket.
type Metrics struct {
	client influxdb2.Client
	writer influxdb2api.WriteAPI
	log    zerolog.Logger
}

// NewMetrics builds a client against the given server. The write path is
// asynchronous; a dead server costs nothing but logged errors.
func NewMetrics(url, token, org, bucket string, log zerolog.Logger) *Metrics {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000))
	m := &Metrics{
		client: client,
		writer: client.WriteAPI(org, bucket),
		log:    log,
	}
	go m.drainErrors()
	return m
}

func (m *Metrics) drainErrors() {
	for err := range m.writer.Errors() {
		m.log.Error().Err(err).Msg("influx write")
	}
}

func (m *Metrics) StateChanged(int, *sim.Agent, sim.StateKind, sim.StateKind) {}

func (m *Metrics) ShotFired(tick int, shooter, target *sim.Agent, hit bool) {
	p := influxdb2.NewPoint("shots",
		map[string]string{
			"team":    shooter.Team.String(),
			"shooter": shooter.Label,
		},
		map[string]any{
			"tick": tick,
			"hit":  hit,
		},
		time.Now())
	m.writer.WritePoint(p)
}

func (m *Metrics) AgentDied(tick int, a *sim.Agent) {
	p := influxdb2.NewPoint("deaths",
		map[string]string{
			"team":  a.Team.String(),
			"agent": a.Label,
		},
		map[string]any{
			"tick": tick,
		},
		time.Now())
	m.writer.WritePoint(p)
}

func (m *Metrics) TickDone(tick int, aliveByTeam map[sim.Team]int) {
	if tick%sampleEveryTick != 0 {
		return
	}
	p := influxdb2.NewPoint("strength",
		map[string]string{},
		map[string]any{
			"tick":       tick,
			"red_alive":  aliveByTeam[sim.TeamRed],
			"blue_alive": aliveByTeam[sim.TeamBlue],
		},
		time.Now())
	m.writer.WritePoint(p)
}

// Close flushes buffered points and shuts the client down.
func (m *Metrics) Close() {
	m.writer.Flush()
	m.client.Close()
}
