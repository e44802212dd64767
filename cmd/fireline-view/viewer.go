package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog"
	"golang.org/x/image/font/basicfont"

	"github.com/veldtsim/fireline/internal/config"
	"github.com/veldtsim/fireline/internal/sim"
)

const flashFrames = 180 // ~3s at 60fps

// Viewer renders a live world and drives it at an adjustable speed.
type Viewer struct {
	world   *sim.World
	watcher *config.Watcher
	log     zerolog.Logger

	width  int
	height int

	simSpeed  float64
	tickAccum float64 // fractional tick accumulator for sub-1x speeds
	prevKeys  map[ebiten.Key]bool

	showGrid    bool
	showThreats bool
	showLabels  bool
	showHUD     bool

	face       ebtext.Face
	flashMsg   string
	flashFrame int
}

func newViewer(w *sim.World, watcher *config.Watcher, log zerolog.Logger) *Viewer {
	bw, bh := w.Grid.Bounds()
	return &Viewer{
		world:       w,
		watcher:     watcher,
		log:         log,
		width:       int(bw),
		height:      int(bh),
		simSpeed:    1,
		prevKeys:    make(map[ebiten.Key]bool),
		showThreats: true,
		showLabels:  true,
		showHUD:     true,
		face:        ebtext.NewGoXFace(basicfont.Face7x13),
	}
}

func (v *Viewer) Update() error {
	v.handleInput()
	v.applyTuningUpdates()

	if v.flashFrame > 0 {
		v.flashFrame--
	}

	if v.simSpeed <= 0 {
		return nil
	}

	// For speeds > 1 run multiple sim ticks per frame.
	// For speeds < 1 accumulate fractions.
	v.tickAccum += v.simSpeed
	for v.tickAccum >= 1.0 {
		v.tickAccum -= 1.0
		v.world.Step(sim.DefaultDt)
	}
	return nil
}

// applyTuningUpdates drains the config watcher without blocking the frame.
func (v *Viewer) applyTuningUpdates() {
	if v.watcher == nil {
		return
	}
	for {
		select {
		case t := <-v.watcher.Updates:
			v.world.SetTunables(t)
			v.log.Info().Msg("tuning reloaded")
			v.flash("tuning reloaded")
		case err := <-v.watcher.Errors:
			v.log.Warn().Err(err).Msg("config watch")
		default:
			return
		}
	}
}

// handleInput processes keypresses (edge-triggered).
func (v *Viewer) handleInput() {
	currentKeys := map[ebiten.Key]bool{}
	pressed := func(k ebiten.Key) bool {
		currentKeys[k] = ebiten.IsKeyPressed(k)
		return currentKeys[k] && !v.prevKeys[k]
	}

	// Sim speed controls: P=pause/resume, ,=slower, .=faster.
	speeds := []float64{0, 0.5, 1, 2, 4}
	if pressed(ebiten.KeyP) {
		if v.simSpeed > 0 {
			v.simSpeed = 0
		} else {
			v.simSpeed = 1
		}
	}
	if pressed(ebiten.KeyComma) {
		for i, s := range speeds {
			if s >= v.simSpeed && i > 0 {
				v.simSpeed = speeds[i-1]
				break
			}
		}
	}
	if pressed(ebiten.KeyPeriod) {
		for i, s := range speeds {
			if s <= v.simSpeed && i < len(speeds)-1 {
				if speeds[i+1] > v.simSpeed {
					v.simSpeed = speeds[i+1]
					break
				}
			}
		}
	}

	// N: single tick while paused.
	if pressed(ebiten.KeyN) && v.simSpeed <= 0 {
		v.world.Step(sim.DefaultDt)
	}

	// Overlay toggles.
	if pressed(ebiten.KeyG) {
		v.showGrid = !v.showGrid
	}
	if pressed(ebiten.KeyT) {
		v.showThreats = !v.showThreats
	}
	if pressed(ebiten.KeyL) {
		v.showLabels = !v.showLabels
	}
	if pressed(ebiten.KeyH) {
		v.showHUD = !v.showHUD
	}

	// R: copy the after-action report.
	if pressed(ebiten.KeyR) {
		if err := clipboard.WriteAll(sim.AfterActionReport(v.world, 120)); err != nil {
			v.log.Warn().Err(err).Msg("clipboard")
			v.flash("clipboard unavailable")
		} else {
			v.flash("report copied")
		}
	}

	v.prevKeys = currentKeys
}

func (v *Viewer) flash(msg string) {
	v.flashMsg = msg
	v.flashFrame = flashFrames
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 28, G: 42, B: 28, A: 255})

	if v.showGrid {
		v.drawGrid(screen)
	}
	v.drawObstacles(screen)
	v.drawRallyPoints(screen)
	v.drawAgents(screen)
	if v.showHUD {
		v.drawHUD(screen)
	}
	v.drawStatus(screen)
}

func (v *Viewer) Layout(_, _ int) (int, int) {
	return v.width, v.height
}

func (v *Viewer) drawGrid(screen *ebiten.Image) {
	c := color.RGBA{R: 40, G: 65, B: 40, A: 70}
	for x := 0; x <= v.width; x += sim.TileSize {
		xf := float32(x)
		vector.StrokeLine(screen, xf, 0, xf, float32(v.height), 1.0, c, false)
	}
	for y := 0; y <= v.height; y += sim.TileSize {
		yf := float32(y)
		vector.StrokeLine(screen, 0, yf, float32(v.width), yf, 1.0, c, false)
	}
}

func (v *Viewer) drawObstacles(screen *ebiten.Image) {
	wallFill := color.RGBA{R: 38, G: 36, B: 32, A: 255}
	wallLight := color.RGBA{R: 70, G: 66, B: 60, A: 255}
	wallDark := color.RGBA{R: 18, G: 16, B: 14, A: 255}
	lowFill := color.RGBA{R: 92, G: 82, B: 52, A: 255}
	lowEdge := color.RGBA{R: 130, G: 116, B: 76, A: 255}

	for _, ob := range v.world.Grid.Obstacles() {
		x0 := float32(ob.Tile.X * sim.TileSize)
		y0 := float32(ob.Tile.Y * sim.TileSize)
		s := float32(sim.TileSize)
		switch ob.Strength {
		case sim.CoverFull:
			vector.DrawFilledRect(screen, x0, y0, s, s, wallFill, false)
			vector.StrokeLine(screen, x0, y0, x0+s, y0, 1.0, wallLight, false)
			vector.StrokeLine(screen, x0, y0, x0, y0+s, 1.0, wallLight, false)
			vector.StrokeLine(screen, x0, y0+s, x0+s, y0+s, 1.0, wallDark, false)
			vector.StrokeLine(screen, x0+s, y0, x0+s, y0+s, 1.0, wallDark, false)
		case sim.CoverHalf:
			// Inset so low walls read as shorter than full walls.
			vector.DrawFilledRect(screen, x0+2, y0+2, s-4, s-4, lowFill, false)
			vector.StrokeRect(screen, x0+2, y0+2, s-4, s-4, 1.0, lowEdge, false)
		}
	}
}

func (v *Viewer) drawRallyPoints(screen *ebiten.Image) {
	for _, sq := range v.world.Squads() {
		p, ok := sq.RallyPoint()
		if !ok {
			continue
		}
		c := teamColor(sq.Team)
		c.A = 120
		x, y := float32(p.X), float32(p.Y)
		d := float32(5)
		vector.StrokeLine(screen, x-d, y, x, y-d, 1.0, c, false)
		vector.StrokeLine(screen, x, y-d, x+d, y, 1.0, c, false)
		vector.StrokeLine(screen, x+d, y, x, y+d, 1.0, c, false)
		vector.StrokeLine(screen, x, y+d, x-d, y, 1.0, c, false)
	}
}

func (v *Viewer) drawAgents(screen *ebiten.Image) {
	for _, a := range v.world.Agents() {
		x := float32(a.Pos.X)
		y := float32(a.Pos.Y)

		if !a.Alive() {
			grey := color.RGBA{R: 100, G: 100, B: 100, A: 180}
			vector.StrokeLine(screen, x-4, y-4, x+4, y+4, 1.0, grey, false)
			vector.StrokeLine(screen, x+4, y-4, x-4, y+4, 1.0, grey, false)
			continue
		}

		// Tucked agents draw smaller than exposed ones.
		radius := float32(5)
		if !a.Exposed() {
			radius = 3.5
		}
		vector.DrawFilledCircle(screen, x, y, radius, teamColor(a.Team), true)

		if a.Leads() {
			vector.StrokeCircle(screen, x, y, radius+2, 1.0,
				color.RGBA{R: 255, G: 255, B: 255, A: 200}, true)
		}
		if a.StateKind() == sim.StatePinned {
			vector.StrokeCircle(screen, x, y, radius+2, 1.0,
				color.RGBA{R: 240, G: 210, B: 60, A: 220}, true)
		}

		if frac := a.HealthFrac(); frac < 1 {
			barW := float32(10)
			vector.DrawFilledRect(screen, x-barW/2, y-radius-4, barW, 1.5,
				color.RGBA{R: 60, G: 20, B: 20, A: 200}, false)
			vector.DrawFilledRect(screen, x-barW/2, y-radius-4, barW*float32(frac), 1.5,
				color.RGBA{R: 70, G: 200, B: 70, A: 220}, false)
		}

		if v.showThreats {
			v.drawThreatArrow(screen, a, x, y)
		}
		if v.showLabels {
			v.drawLabel(screen, a, x, y, radius)
		}
	}
}

func (v *Viewer) drawThreatArrow(screen *ebiten.Image, a *sim.Agent, x, y float32) {
	dir, ok := a.Threats.HighestThreatDirection()
	if !ok {
		return
	}
	c := color.RGBA{R: 255, G: 200, B: 60, A: 180}
	tipX := x + float32(dir.X)*14
	tipY := y + float32(dir.Y)*14
	vector.StrokeLine(screen, x, y, tipX, tipY, 1.0, c, false)

	// Arrowhead: two short barbs swept back from the tip.
	ang := math.Atan2(dir.Y, dir.X)
	for _, da := range []float64{2.6, -2.6} {
		bx := tipX + float32(math.Cos(ang+da))*4
		by := tipY + float32(math.Sin(ang+da))*4
		vector.StrokeLine(screen, tipX, tipY, bx, by, 1.0, c, false)
	}
}

func (v *Viewer) drawLabel(screen *ebiten.Image, a *sim.Agent, x, y, radius float32) {
	label := a.Label
	if label == "" {
		label = fmt.Sprintf("a%d", a.ID)
	}
	s := label + " " + a.StateKind().String()
	w := ebtext.Advance(s, v.face)
	op := &ebtext.DrawOptions{}
	op.GeoM.Translate(float64(x)-w/2, float64(y-radius)-16)
	op.ColorScale.ScaleWithColor(color.RGBA{R: 220, G: 230, B: 220, A: 230})
	ebtext.Draw(screen, s, v.face, op)
}

// drawStatus renders the one-line header and any flash message.
func (v *Viewer) drawStatus(screen *ebiten.Image) {
	alive := v.world.AliveByTeam()
	status := fmt.Sprintf("fireline  tick %d (%.1fs)  %s  red %d  blue %d",
		v.world.Tick(), v.world.Now(), speedLabel(v.simSpeed),
		alive[sim.TeamRed], alive[sim.TeamBlue])
	if out := sim.DetermineOutcome(v.world); out.Outcome != sim.OutcomeInconclusive {
		status += "  [" + out.Outcome.String() + "]"
	}

	op := &ebtext.DrawOptions{}
	op.GeoM.Translate(6, 4)
	op.ColorScale.ScaleWithColor(color.RGBA{R: 235, G: 240, B: 235, A: 255})
	ebtext.Draw(screen, status, v.face, op)

	if v.flashFrame > 0 {
		w := ebtext.Advance(v.flashMsg, v.face)
		fop := &ebtext.DrawOptions{}
		fop.GeoM.Translate(float64(v.width)/2-w/2, 24)
		fop.ColorScale.ScaleWithColor(color.RGBA{R: 240, G: 210, B: 60, A: 255})
		ebtext.Draw(screen, v.flashMsg, v.face, fop)
	}
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	onOff := func(b bool) string {
		if b {
			return "*"
		}
		return " "
	}
	lines := []string{
		fmt.Sprintf("SIM: %s  P=pause  ,/. speed  N=step", speedLabel(v.simSpeed)),
		fmt.Sprintf("[G]%s grid  [T]%s threats  [L]%s labels",
			onOff(v.showGrid), onOff(v.showThreats), onOff(v.showLabels)),
		"[R] copy report  [H] toggle HUD",
	}

	const lineH = 12 // debug font line height
	const charW = 6  // debug font char width
	const padX = 5
	const padY = 4

	maxLen := 0
	for _, l := range lines {
		if len(l) > maxLen {
			maxLen = len(l)
		}
	}
	boxW := float32(maxLen*charW + padX*2)
	boxH := float32(len(lines)*lineH + padY*2)
	bx := float32(4)
	by := float32(v.height) - boxH - 4

	vector.DrawFilledRect(screen, bx, by, boxW, boxH,
		color.RGBA{R: 6, G: 10, B: 6, A: 210}, false)
	vector.StrokeRect(screen, bx, by, boxW, boxH,
		1.0, color.RGBA{R: 60, G: 100, B: 60, A: 180}, false)

	for i, line := range lines {
		tx := int(bx) + padX
		ty := int(by) + padY + i*lineH
		ebitenutil.DebugPrintAt(screen, line, tx, ty)
	}
}

func speedLabel(s float64) string {
	switch s {
	case 0:
		return "paused"
	case 1:
		return "1x"
	}
	return fmt.Sprintf("%.1fx", s)
}

func teamColor(t sim.Team) color.RGBA {
	if t == sim.TeamRed {
		return color.RGBA{R: 220, G: 30, B: 30, A: 255}
	}
	return color.RGBA{R: 30, G: 80, B: 220, A: 255}
}
