// Package game hosts the graphical viewer: it steps a world once per frame
// and draws the scene, HUD and panels.
package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/camera"
	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/flock"
	"github.com/pthm-cable/shoal/renderer"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/ui"
)

// Game holds the viewer state around a started world.
type Game struct {
	world  *sim.World
	cfg    *config.Config
	logger *slog.Logger

	// Rendering
	camera        *camera.Camera
	sceneRenderer *renderer.SceneRenderer

	// UI
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	inspector *ui.Inspector
	controls  *ui.ControlsPanel
	overlays  *ui.OverlayRegistry

	state     ui.ControlsState
	selection selection
	showPerf  bool

	// Window dimensions
	screenWidth, screenHeight float32
}

// NewGame creates a viewer for w. Call after the raylib window is open and
// w.Start has succeeded.
func NewGame(w *sim.World, logger *slog.Logger) *Game {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := w.Config()
	width := float32(cfg.Screen.Width)
	height := float32(cfg.Screen.Height)

	g := &Game{
		world:         w,
		cfg:           cfg,
		logger:        logger,
		camera:        camera.New(width, height, initialTarget(w), 1200),
		sceneRenderer: renderer.NewSceneRenderer(populationViews(w)),
		hud:           ui.NewHUD(),
		perfPanel:     ui.NewPerfPanel(10, int32(height)-190, 260),
		inspector:     ui.NewInspector(int32(width)-270, 10, 260),
		controls:      ui.NewControlsPanel(int32(width)-230, int32(height)-330, 220),
		overlays:      ui.NewOverlayRegistry(),
		state:         ui.ControlsState{TimeScale: 1},
		screenWidth:   width,
		screenHeight:  height,
	}
	g.camera.MaxDistance = 6000
	return g
}

// initialTarget centres the camera between the population anchors.
func initialTarget(w *sim.World) (target flock.Vec3) {
	sims := w.Simulations()
	if len(sims) == 0 {
		return target
	}
	for _, s := range sims {
		target = target.Add(s.Anchor().Base())
	}
	return target.Scale(1 / float32(len(sims)))
}

// populationViews describes every population for the renderer.
func populationViews(w *sim.World) []renderer.PopulationView {
	sims := w.Simulations()
	views := make([]renderer.PopulationView, 0, len(sims))
	for _, s := range sims {
		id, ok := components.PopulationByName(s.Name())
		if !ok {
			continue
		}
		views = append(views, renderer.PopulationView{
			ID:     id,
			Params: s.Params(),
			Anchor: s.PathCenter(),
			Active: s.Active(),
		})
	}
	return views
}

// Update handles input and advances the world by one frame.
func (g *Game) Update() {
	g.world.Perf().RecordFrame()
	g.handleInput()

	if g.state.Paused && !g.state.Step {
		return
	}

	dt := rl.GetFrameTime() * g.state.TimeScale
	if g.state.Step {
		dt = g.cfg.Derived.DT32
	}
	if maxDT := g.cfg.Derived.MaxDT32; maxDT > 0 && dt > maxDT {
		dt = maxDT
	}
	g.step(dt)
}

// step advances the world, deactivating populations that fail.
func (g *Game) step(dt float32) {
	err := g.world.Step(dt)
	if err == nil {
		return
	}
	for _, name := range g.world.DeactivateFailed(err) {
		g.logger.Warn("population stopped", "population", name, "error", err)
		if g.selection.valid && g.selection.name == name {
			g.selection = selection{}
		}
	}
}

// Done reports whether no population is left running.
func (g *Game) Done() bool {
	return g.world.ActiveCount() == 0
}

// Tick returns the number of completed world steps.
func (g *Game) Tick() int32 {
	return g.world.Tick()
}

// Unload releases the world.
func (g *Game) Unload() {
	if err := g.world.Close(); err != nil {
		g.logger.Error("failed to close world", "error", err)
	}
}
