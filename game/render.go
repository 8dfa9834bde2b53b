package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/renderer"
	"github.com/pthm-cable/shoal/ui"
)

const controlsLegend = "[Space] pause  [N] step  [,/.] speed  [RMB] orbit  [MMB/Shift+LMB] pan  [LMB] select  [C] controls  [F3] perf  [F5] snapshot"

// Draw renders the game state.
func (g *Game) Draw() {
	rl.BeginDrawing()

	views := populationViews(g.world)
	inspect, sel, selected := g.selectedState()

	g.sceneRenderer.Draw(g.camera, g.world.Scene(), views, sel, renderer.Overlays{
		Bounds:   g.overlays.IsEnabled(ui.OverlayBounds),
		Anchor:   g.overlays.IsEnabled(ui.OverlayAnchor),
		Headings: g.overlays.IsEnabled(ui.OverlayHeadings),
		Radii:    g.overlays.IsEnabled(ui.OverlayRadii),
		Steering: g.overlays.IsEnabled(ui.OverlaySteering),
	})

	g.drawUI()
	if selected {
		g.inspector.Draw(inspect)
	}

	rl.EndDrawing()
}

// drawUI renders the HUD and panels.
func (g *Game) drawUI() {
	data := ui.HUDData{
		Title:     "Shoal",
		Tick:      g.world.Tick(),
		SimTime:   g.world.SimTime(),
		TimeScale: g.state.TimeScale,
		FPS:       rl.GetFPS(),
		Paused:    g.state.Paused,
	}
	for _, s := range g.world.Simulations() {
		data.Populations = append(data.Populations, ui.PopulationLine{
			Name:  s.Name(),
			State: s.State().String(),
			Count: len(s.Population()),
			Ticks: s.Ticks(),
		})
	}
	g.hud.Draw(data)
	g.hud.DrawControls(int32(g.screenWidth), int32(g.screenHeight), controlsLegend)

	if g.showPerf {
		g.perfPanel.Draw(ui.PerfPanelData{
			Stats:       g.world.Perf().Stats(),
			Workers:     g.world.Device().Workers(),
			DeviceBytes: g.world.Device().Allocated(),
		})
	}

	g.state = g.controls.Draw(g.state, g.overlays)
}
