package sim

// Tunables collects every behavior threshold in one place. Values were
// tuned by watching scenario runs, not derived; change them through config
// rather than editing call sites. Stats are on a 0..10 scale with 5 as the
// baseline; distances are world px unless the name says tiles; durations
// are seconds.
type Tunables struct {
	// Cover scoring.
	CoverAlignmentMin          float64 // dot cutoff below which a tile gives no cover from the threat
	CoverAlignmentWeight       float64 // score per unit of alignment
	CoverTravelCostPerTile     float64 // score lost per tile of travel distance
	CoverBonusHalfBase         float64 // half-cover bonus at zero aggression
	CoverBonusHalfAggroScale   float64 // added to half bonus at full aggression
	CoverBonusFullBase         float64 // full-cover bonus at zero aggression
	CoverBonusFullAggroScale   float64 // removed from full bonus at full aggression
	RangeBandBonus             float64 // bonus inside the preferred engagement band
	RangeTooClosePenalty       float64 // penalty when nearer than the band floor
	RangeBeyondPenalty         float64 // penalty when past weapon range
	RangeBandMinFrac           float64 // band floor as a fraction of weapon range
	RangeBandMaxFrac           float64 // band ceiling as a fraction of weapon range
	CloseEnemyRadiusTiles      float64 // enemies inside this radius are "extreme danger"
	CloseEnemyPenalty          float64 // penalty per enemy inside the danger radius
	LeaderProximityRadiusTiles float64
	LeaderProximityBonus       float64
	RallySlackTiles            float64 // free distance from the rally point before penalties
	RallyPenaltyPerTile        float64 // per-tile penalty past the slack, regular member
	RallyPenaltyPerTileLeader  float64 // leaders are penalized far more steeply
	CoverSearchRadiusTiles     float64 // default FindBestCover radius

	// SeekCover.
	CoverImproveLow    float64 // required score gain at low urgency
	CoverImproveMedium float64
	CoverImproveHigh   float64
	SeekCoverGiveUp    float64 // s without any cover tile before fighting in the open

	// Combat phase machine.
	StandDuration      float64 // s
	AimDurationBase    float64 // s, reduced by accuracy
	AimDurationMin     float64 // s floor
	AimAccuracyScale   float64 // s removed from aim time at max accuracy
	ShootDuration      float64 // s
	DuckDuration       float64 // s
	ShotInterval       float64 // s between shots while engaged
	CoverCheckInterval float64 // s between in-cover threat re-verifies
	CommitDuration     float64 // s after reaching cover during which leaving is resisted
	CommitFactor       float64 // abandon threshold multiplier while committed
	AbandonThreatBase  float64 // uncovered threat needed to abandon cover, bravery-scaled

	// Suppress.
	SuppressRateMult    float64 // fire rate multiplier
	SuppressSpreadMult  float64 // spread multiplier
	SuppressMaxTime     float64 // s hard cap
	SuppressExposedExit float64 // s of target exposure that ends suppression
	SuppressAbortThreat float64 // incoming threat that aborts, bravery-scaled

	// Overwatch.
	OverwatchReactionBase  float64 // s from exposure to snap shot
	OverwatchReactionMin   float64 // s floor
	OverwatchReflexScale   float64 // s removed from reaction at max reflex
	OverwatchPatience      float64 // s engaged without contribution before repositioning
	OverwatchRescanEvery   float64 // s between exposed-target rescans
	LeaderAnchorSquadmates int     // living squadmates at or above which a leader holds

	// Flank / Reposition.
	FlankSearchRadiusTiles float64
	FlankAbortThreatBase   float64 // en-route threat that aborts, bravery-scaled
	RepositionAbortBase    float64

	// Pinned.
	PinThreatBase   float64 // threat that pins, bravery-scaled
	PinSevereFactor float64 // severe band = pin threshold x this
	UnpinFactor     float64 // recovery band = pin threshold x this
	PeekIntervalMin float64 // s, lower bound of the peek timer roll
	PeekIntervalMax float64 // s, upper bound
	PeekDuration    float64 // s the snap-shot window stays open

	// Advance.
	AdvanceMaxTime      float64 // s before Combat is forced
	AdvanceFireInterval float64 // s between suppressive shots on the move
	AdvanceSpeedScale   float64

	// Moving.
	StuckEpsilon         float64 // px of progress per check below which is "stuck"
	StuckTimeout         float64 // s without progress treated as arrival
	CombatMoveSpeed      float64 // speed multiplier during combat move
	CombatMoveMinAmmo    float64 // magazine fraction required to fire on the move
	CombatMoveFireEvery  float64 // s between opportunistic shots
	CombatMoveCalmThreat float64 // local threat below which combat move still fires
	MoveRetryInterval    float64 // s between movement restart attempts
	MoveGiveUp           float64 // s of failed restarts before falling back

	// Scanning.
	IdleScanInterval  float64 // s
	ReadyScanInterval float64 // s
	ReadyCalmTime     float64 // s of quiet before Ready settles back to Idle

	// Threat tracking.
	ThreatDecayPerSecond float64 // magnitude lost per second per bucket
	ThreatMergeCos       float64 // min dot for merging into an existing bucket
	ThreatRemoveBelow    float64 // buckets under this magnitude are dropped
	VisibleEnemyWeight   float64 // magnitude added per visible enemy per scan
	ShotThreatMagnitude  float64 // magnitude added per incoming shot
	UnderFireThreshold   float64 // total threat at which IsUnderFire trips

	// Perception.
	VisionRangeTiles       float64
	ThreatProjectDistTiles float64 // stand-in range when a threat is a bearing, not a position

	// Bookkeeping.
	ReservationSweepEvery   float64 // s between stale-occupant sweeps
	PositionRequestsPerTick int     // pending-request resolution budget
}

// DefaultTunables returns the tuned baseline.
func DefaultTunables() Tunables {
	return Tunables{
		CoverAlignmentMin:          0.3,
		CoverAlignmentWeight:       50.0,
		CoverTravelCostPerTile:     8.0,
		CoverBonusHalfBase:         20.0,
		CoverBonusHalfAggroScale:   15.0,
		CoverBonusFullBase:         30.0,
		CoverBonusFullAggroScale:   10.0,
		RangeBandBonus:             10.0,
		RangeTooClosePenalty:       15.0,
		RangeBeyondPenalty:         20.0,
		RangeBandMinFrac:           0.3,
		RangeBandMaxFrac:           0.9,
		CloseEnemyRadiusTiles:      3.0,
		CloseEnemyPenalty:          12.0,
		LeaderProximityRadiusTiles: 6.0,
		LeaderProximityBonus:       8.0,
		RallySlackTiles:            8.0,
		RallyPenaltyPerTile:        0.5,
		RallyPenaltyPerTileLeader:  2.0,
		CoverSearchRadiusTiles:     10.0,

		CoverImproveLow:    10.0,
		CoverImproveMedium: 5.0,
		CoverImproveHigh:   2.0,
		SeekCoverGiveUp:    2.0,

		StandDuration:      0.4,
		AimDurationBase:    0.3,
		AimDurationMin:     0.1,
		AimAccuracyScale:   0.2,
		ShootDuration:      0.1,
		DuckDuration:       0.3,
		ShotInterval:       1.0,
		CoverCheckInterval: 0.5,
		CommitDuration:     3.0,
		CommitFactor:       2.0,
		AbandonThreatBase:  20.0,

		SuppressRateMult:    3.0,
		SuppressSpreadMult:  3.0,
		SuppressMaxTime:     5.0,
		SuppressExposedExit: 0.5,
		SuppressAbortThreat: 30.0,

		OverwatchReactionBase:  0.15,
		OverwatchReactionMin:   0.05,
		OverwatchReflexScale:   0.1,
		OverwatchPatience:      3.0,
		OverwatchRescanEvery:   0.75,
		LeaderAnchorSquadmates: 3,

		FlankSearchRadiusTiles: 14.0,
		FlankAbortThreatBase:   25.0,
		RepositionAbortBase:    25.0,

		PinThreatBase:   35.0,
		PinSevereFactor: 1.5,
		UnpinFactor:     0.5,
		PeekIntervalMin: 2.0,
		PeekIntervalMax: 4.0,
		PeekDuration:    0.4,

		AdvanceMaxTime:      6.0,
		AdvanceFireInterval: 0.5,
		AdvanceSpeedScale:   0.5,

		StuckEpsilon:         1.5,
		StuckTimeout:         0.75,
		CombatMoveSpeed:      0.5,
		CombatMoveMinAmmo:    0.30,
		CombatMoveFireEvery:  0.8,
		CombatMoveCalmThreat: 10.0,
		MoveRetryInterval:    0.5,
		MoveGiveUp:           3.0,

		IdleScanInterval:  0.5,
		ReadyScanInterval: 0.2,
		ReadyCalmTime:     4.0,

		ThreatDecayPerSecond: 4.0,
		ThreatMergeCos:       0.866,
		ThreatRemoveBelow:    0.05,
		VisibleEnemyWeight:   1.0,
		ShotThreatMagnitude:  6.0,
		UnderFireThreshold:   5.0,

		VisionRangeTiles:       20.0,
		ThreatProjectDistTiles: 10.0,

		ReservationSweepEvery:   1.0,
		PositionRequestsPerTick: 4,
	}
}

// braveryScale maps a 0..10 bravery stat onto a 0.5..1.5 threshold
// multiplier. Braver agents tolerate more threat before breaking.
func braveryScale(bravery float64) float64 {
	return 0.5 + clamp(bravery, 0, 10)/10.0
}
