package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/viper"

	"github.com/veldtsim/fireline/internal/sim"
)

// Config holds the settings file for one run. All getters are safe to call
// while a Watcher is re-reading the file.
type Config struct {
	mu  sync.Mutex
	v   *viper.Viper
	dir string
}

// Load reads fireline.yaml from configDir, falling back to defaults for
// every key the file omits. A missing file is not an error; a malformed
// one is.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("fireline")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return &Config{v: v, dir: configDir}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sim.cols", 48)
	v.SetDefault("sim.rows", 32)
	v.SetDefault("sim.seed", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("doctrine.name", "balanced")
	v.SetDefault("doctrine.aggression", 0.5)
	v.SetDefault("doctrine.caution", 0.5)
	v.SetDefault("doctrine.teamwork", 0.5)

	v.SetDefault("telemetry.sqlite.enabled", false)
	v.SetDefault("telemetry.sqlite.path", "fireline.db")
	v.SetDefault("telemetry.influx.enabled", false)
	v.SetDefault("telemetry.influx.url", "http://localhost:8086")
	v.SetDefault("telemetry.influx.token", "")
	v.SetDefault("telemetry.influx.org", "fireline")
	v.SetDefault("telemetry.influx.bucket", "sim")

	t := sim.DefaultTunables()

	v.SetDefault("tuning.cover.alignment_min", t.CoverAlignmentMin)
	v.SetDefault("tuning.cover.alignment_weight", t.CoverAlignmentWeight)
	v.SetDefault("tuning.cover.travel_cost_per_tile", t.CoverTravelCostPerTile)
	v.SetDefault("tuning.cover.bonus_half_base", t.CoverBonusHalfBase)
	v.SetDefault("tuning.cover.bonus_half_aggro_scale", t.CoverBonusHalfAggroScale)
	v.SetDefault("tuning.cover.bonus_full_base", t.CoverBonusFullBase)
	v.SetDefault("tuning.cover.bonus_full_aggro_scale", t.CoverBonusFullAggroScale)
	v.SetDefault("tuning.cover.range_band_bonus", t.RangeBandBonus)
	v.SetDefault("tuning.cover.range_too_close_penalty", t.RangeTooClosePenalty)
	v.SetDefault("tuning.cover.range_beyond_penalty", t.RangeBeyondPenalty)
	v.SetDefault("tuning.cover.range_band_min_frac", t.RangeBandMinFrac)
	v.SetDefault("tuning.cover.range_band_max_frac", t.RangeBandMaxFrac)
	v.SetDefault("tuning.cover.close_enemy_radius_tiles", t.CloseEnemyRadiusTiles)
	v.SetDefault("tuning.cover.close_enemy_penalty", t.CloseEnemyPenalty)
	v.SetDefault("tuning.cover.leader_proximity_radius_tiles", t.LeaderProximityRadiusTiles)
	v.SetDefault("tuning.cover.leader_proximity_bonus", t.LeaderProximityBonus)
	v.SetDefault("tuning.cover.rally_slack_tiles", t.RallySlackTiles)
	v.SetDefault("tuning.cover.rally_penalty_per_tile", t.RallyPenaltyPerTile)
	v.SetDefault("tuning.cover.rally_penalty_per_tile_leader", t.RallyPenaltyPerTileLeader)
	v.SetDefault("tuning.cover.search_radius_tiles", t.CoverSearchRadiusTiles)
	v.SetDefault("tuning.cover.improve_low", t.CoverImproveLow)
	v.SetDefault("tuning.cover.improve_medium", t.CoverImproveMedium)
	v.SetDefault("tuning.cover.improve_high", t.CoverImproveHigh)
	v.SetDefault("tuning.cover.seek_give_up", t.SeekCoverGiveUp)

	v.SetDefault("tuning.combat.stand_duration", t.StandDuration)
	v.SetDefault("tuning.combat.aim_duration_base", t.AimDurationBase)
	v.SetDefault("tuning.combat.aim_duration_min", t.AimDurationMin)
	v.SetDefault("tuning.combat.aim_accuracy_scale", t.AimAccuracyScale)
	v.SetDefault("tuning.combat.shoot_duration", t.ShootDuration)
	v.SetDefault("tuning.combat.duck_duration", t.DuckDuration)
	v.SetDefault("tuning.combat.shot_interval", t.ShotInterval)
	v.SetDefault("tuning.combat.cover_check_interval", t.CoverCheckInterval)
	v.SetDefault("tuning.combat.commit_duration", t.CommitDuration)
	v.SetDefault("tuning.combat.commit_factor", t.CommitFactor)
	v.SetDefault("tuning.combat.abandon_threat_base", t.AbandonThreatBase)

	v.SetDefault("tuning.suppress.rate_mult", t.SuppressRateMult)
	v.SetDefault("tuning.suppress.spread_mult", t.SuppressSpreadMult)
	v.SetDefault("tuning.suppress.max_time", t.SuppressMaxTime)
	v.SetDefault("tuning.suppress.exposed_exit", t.SuppressExposedExit)
	v.SetDefault("tuning.suppress.abort_threat", t.SuppressAbortThreat)

	v.SetDefault("tuning.overwatch.reaction_base", t.OverwatchReactionBase)
	v.SetDefault("tuning.overwatch.reaction_min", t.OverwatchReactionMin)
	v.SetDefault("tuning.overwatch.reflex_scale", t.OverwatchReflexScale)
	v.SetDefault("tuning.overwatch.patience", t.OverwatchPatience)
	v.SetDefault("tuning.overwatch.rescan_every", t.OverwatchRescanEvery)
	v.SetDefault("tuning.overwatch.leader_anchor_squadmates", t.LeaderAnchorSquadmates)

	v.SetDefault("tuning.flank.search_radius_tiles", t.FlankSearchRadiusTiles)
	v.SetDefault("tuning.flank.abort_threat_base", t.FlankAbortThreatBase)
	v.SetDefault("tuning.flank.reposition_abort_base", t.RepositionAbortBase)

	v.SetDefault("tuning.pinned.threat_base", t.PinThreatBase)
	v.SetDefault("tuning.pinned.severe_factor", t.PinSevereFactor)
	v.SetDefault("tuning.pinned.unpin_factor", t.UnpinFactor)
	v.SetDefault("tuning.pinned.peek_interval_min", t.PeekIntervalMin)
	v.SetDefault("tuning.pinned.peek_interval_max", t.PeekIntervalMax)
	v.SetDefault("tuning.pinned.peek_duration", t.PeekDuration)

	v.SetDefault("tuning.advance.max_time", t.AdvanceMaxTime)
	v.SetDefault("tuning.advance.fire_interval", t.AdvanceFireInterval)
	v.SetDefault("tuning.advance.speed_scale", t.AdvanceSpeedScale)

	v.SetDefault("tuning.moving.stuck_epsilon", t.StuckEpsilon)
	v.SetDefault("tuning.moving.stuck_timeout", t.StuckTimeout)
	v.SetDefault("tuning.moving.combat_move_speed", t.CombatMoveSpeed)
	v.SetDefault("tuning.moving.combat_move_min_ammo", t.CombatMoveMinAmmo)
	v.SetDefault("tuning.moving.combat_move_fire_every", t.CombatMoveFireEvery)
	v.SetDefault("tuning.moving.combat_move_calm_threat", t.CombatMoveCalmThreat)
	v.SetDefault("tuning.moving.retry_interval", t.MoveRetryInterval)
	v.SetDefault("tuning.moving.give_up", t.MoveGiveUp)

	v.SetDefault("tuning.scan.idle_interval", t.IdleScanInterval)
	v.SetDefault("tuning.scan.ready_interval", t.ReadyScanInterval)
	v.SetDefault("tuning.scan.ready_calm_time", t.ReadyCalmTime)

	v.SetDefault("tuning.threat.decay_per_second", t.ThreatDecayPerSecond)
	v.SetDefault("tuning.threat.merge_cos", t.ThreatMergeCos)
	v.SetDefault("tuning.threat.remove_below", t.ThreatRemoveBelow)
	v.SetDefault("tuning.threat.visible_enemy_weight", t.VisibleEnemyWeight)
	v.SetDefault("tuning.threat.shot_magnitude", t.ShotThreatMagnitude)
	v.SetDefault("tuning.threat.under_fire_threshold", t.UnderFireThreshold)

	v.SetDefault("tuning.perception.vision_range_tiles", t.VisionRangeTiles)
	v.SetDefault("tuning.perception.threat_project_dist_tiles", t.ThreatProjectDistTiles)

	v.SetDefault("tuning.world.reservation_sweep_every", t.ReservationSweepEvery)
	v.SetDefault("tuning.world.position_requests_per_tick", t.PositionRequestsPerTick)
}

// Cols returns the map width in tiles.
func (c *Config) Cols() int { c.mu.Lock(); defer c.mu.Unlock(); return c.v.GetInt("sim.cols") }

// Rows returns the map height in tiles.
func (c *Config) Rows() int { c.mu.Lock(); defer c.mu.Unlock(); return c.v.GetInt("sim.rows") }

// Seed returns the RNG seed.
func (c *Config) Seed() int64 { c.mu.Lock(); defer c.mu.Unlock(); return c.v.GetInt64("sim.seed") }

// LogLevel returns the zerolog level name.
func (c *Config) LogLevel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.GetString("log.level")
}

// LogPretty reports whether console-formatted logging is requested.
func (c *Config) LogPretty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.GetBool("log.pretty")
}

// SqliteEnabled reports whether run recording to sqlite is on.
func (c *Config) SqliteEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.GetBool("telemetry.sqlite.enabled")
}

// SqlitePath returns the sqlite database file path.
func (c *Config) SqlitePath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.GetString("telemetry.sqlite.path")
}

// InfluxEnabled reports whether metric shipping to influx is on.
func (c *Config) InfluxEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.GetBool("telemetry.influx.enabled")
}

// Influx returns url, token, org, and bucket for the metrics client.
func (c *Config) Influx() (url, token, org, bucket string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.GetString("telemetry.influx.url"),
		c.v.GetString("telemetry.influx.token"),
		c.v.GetString("telemetry.influx.org"),
		c.v.GetString("telemetry.influx.bucket")
}

// Doctrine returns the configured doctrine weights.
func (c *Config) Doctrine() (name string, aggression, caution, teamwork float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.GetString("doctrine.name"),
		c.v.GetFloat64("doctrine.aggression"),
		c.v.GetFloat64("doctrine.caution"),
		c.v.GetFloat64("doctrine.teamwork")
}

// Tunables assembles the full tuning set from the current file contents.
func (c *Config) Tunables() sim.Tunables {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.v
	return sim.Tunables{
		CoverAlignmentMin:          v.GetFloat64("tuning.cover.alignment_min"),
		CoverAlignmentWeight:       v.GetFloat64("tuning.cover.alignment_weight"),
		CoverTravelCostPerTile:     v.GetFloat64("tuning.cover.travel_cost_per_tile"),
		CoverBonusHalfBase:         v.GetFloat64("tuning.cover.bonus_half_base"),
		CoverBonusHalfAggroScale:   v.GetFloat64("tuning.cover.bonus_half_aggro_scale"),
		CoverBonusFullBase:         v.GetFloat64("tuning.cover.bonus_full_base"),
		CoverBonusFullAggroScale:   v.GetFloat64("tuning.cover.bonus_full_aggro_scale"),
		RangeBandBonus:             v.GetFloat64("tuning.cover.range_band_bonus"),
		RangeTooClosePenalty:       v.GetFloat64("tuning.cover.range_too_close_penalty"),
		RangeBeyondPenalty:         v.GetFloat64("tuning.cover.range_beyond_penalty"),
		RangeBandMinFrac:           v.GetFloat64("tuning.cover.range_band_min_frac"),
		RangeBandMaxFrac:           v.GetFloat64("tuning.cover.range_band_max_frac"),
		CloseEnemyRadiusTiles:      v.GetFloat64("tuning.cover.close_enemy_radius_tiles"),
		CloseEnemyPenalty:          v.GetFloat64("tuning.cover.close_enemy_penalty"),
		LeaderProximityRadiusTiles: v.GetFloat64("tuning.cover.leader_proximity_radius_tiles"),
		LeaderProximityBonus:       v.GetFloat64("tuning.cover.leader_proximity_bonus"),
		RallySlackTiles:            v.GetFloat64("tuning.cover.rally_slack_tiles"),
		RallyPenaltyPerTile:        v.GetFloat64("tuning.cover.rally_penalty_per_tile"),
		RallyPenaltyPerTileLeader:  v.GetFloat64("tuning.cover.rally_penalty_per_tile_leader"),
		CoverSearchRadiusTiles:     v.GetFloat64("tuning.cover.search_radius_tiles"),

		CoverImproveLow:    v.GetFloat64("tuning.cover.improve_low"),
		CoverImproveMedium: v.GetFloat64("tuning.cover.improve_medium"),
		CoverImproveHigh:   v.GetFloat64("tuning.cover.improve_high"),
		SeekCoverGiveUp:    v.GetFloat64("tuning.cover.seek_give_up"),

		StandDuration:      v.GetFloat64("tuning.combat.stand_duration"),
		AimDurationBase:    v.GetFloat64("tuning.combat.aim_duration_base"),
		AimDurationMin:     v.GetFloat64("tuning.combat.aim_duration_min"),
		AimAccuracyScale:   v.GetFloat64("tuning.combat.aim_accuracy_scale"),
		ShootDuration:      v.GetFloat64("tuning.combat.shoot_duration"),
		DuckDuration:       v.GetFloat64("tuning.combat.duck_duration"),
		ShotInterval:       v.GetFloat64("tuning.combat.shot_interval"),
		CoverCheckInterval: v.GetFloat64("tuning.combat.cover_check_interval"),
		CommitDuration:     v.GetFloat64("tuning.combat.commit_duration"),
		CommitFactor:       v.GetFloat64("tuning.combat.commit_factor"),
		AbandonThreatBase:  v.GetFloat64("tuning.combat.abandon_threat_base"),

		SuppressRateMult:    v.GetFloat64("tuning.suppress.rate_mult"),
		SuppressSpreadMult:  v.GetFloat64("tuning.suppress.spread_mult"),
		SuppressMaxTime:     v.GetFloat64("tuning.suppress.max_time"),
		SuppressExposedExit: v.GetFloat64("tuning.suppress.exposed_exit"),
		SuppressAbortThreat: v.GetFloat64("tuning.suppress.abort_threat"),

		OverwatchReactionBase:  v.GetFloat64("tuning.overwatch.reaction_base"),
		OverwatchReactionMin:   v.GetFloat64("tuning.overwatch.reaction_min"),
		OverwatchReflexScale:   v.GetFloat64("tuning.overwatch.reflex_scale"),
		OverwatchPatience:      v.GetFloat64("tuning.overwatch.patience"),
		OverwatchRescanEvery:   v.GetFloat64("tuning.overwatch.rescan_every"),
		LeaderAnchorSquadmates: v.GetInt("tuning.overwatch.leader_anchor_squadmates"),

		FlankSearchRadiusTiles: v.GetFloat64("tuning.flank.search_radius_tiles"),
		FlankAbortThreatBase:   v.GetFloat64("tuning.flank.abort_threat_base"),
		RepositionAbortBase:    v.GetFloat64("tuning.flank.reposition_abort_base"),

		PinThreatBase:   v.GetFloat64("tuning.pinned.threat_base"),
		PinSevereFactor: v.GetFloat64("tuning.pinned.severe_factor"),
		UnpinFactor:     v.GetFloat64("tuning.pinned.unpin_factor"),
		PeekIntervalMin: v.GetFloat64("tuning.pinned.peek_interval_min"),
		PeekIntervalMax: v.GetFloat64("tuning.pinned.peek_interval_max"),
		PeekDuration:    v.GetFloat64("tuning.pinned.peek_duration"),

		AdvanceMaxTime:      v.GetFloat64("tuning.advance.max_time"),
		AdvanceFireInterval: v.GetFloat64("tuning.advance.fire_interval"),
		AdvanceSpeedScale:   v.GetFloat64("tuning.advance.speed_scale"),

		StuckEpsilon:         v.GetFloat64("tuning.moving.stuck_epsilon"),
		StuckTimeout:         v.GetFloat64("tuning.moving.stuck_timeout"),
		CombatMoveSpeed:      v.GetFloat64("tuning.moving.combat_move_speed"),
		CombatMoveMinAmmo:    v.GetFloat64("tuning.moving.combat_move_min_ammo"),
		CombatMoveFireEvery:  v.GetFloat64("tuning.moving.combat_move_fire_every"),
		CombatMoveCalmThreat: v.GetFloat64("tuning.moving.combat_move_calm_threat"),
		MoveRetryInterval:    v.GetFloat64("tuning.moving.retry_interval"),
		MoveGiveUp:           v.GetFloat64("tuning.moving.give_up"),

		IdleScanInterval:  v.GetFloat64("tuning.scan.idle_interval"),
		ReadyScanInterval: v.GetFloat64("tuning.scan.ready_interval"),
		ReadyCalmTime:     v.GetFloat64("tuning.scan.ready_calm_time"),

		ThreatDecayPerSecond: v.GetFloat64("tuning.threat.decay_per_second"),
		ThreatMergeCos:       v.GetFloat64("tuning.threat.merge_cos"),
		ThreatRemoveBelow:    v.GetFloat64("tuning.threat.remove_below"),
		VisibleEnemyWeight:   v.GetFloat64("tuning.threat.visible_enemy_weight"),
		ShotThreatMagnitude:  v.GetFloat64("tuning.threat.shot_magnitude"),
		UnderFireThreshold:   v.GetFloat64("tuning.threat.under_fire_threshold"),

		VisionRangeTiles:       v.GetFloat64("tuning.perception.vision_range_tiles"),
		ThreatProjectDistTiles: v.GetFloat64("tuning.perception.threat_project_dist_tiles"),

		ReservationSweepEvery:   v.GetFloat64("tuning.world.reservation_sweep_every"),
		PositionRequestsPerTick: v.GetInt("tuning.world.position_requests_per_tick"),
	}
}

// reread loads the file again in place. Used by the watcher.
func (c *Config) reread() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.ReadInConfig()
}
