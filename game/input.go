package game

import rl "github.com/gen2brain/raylib-go/raylib"

// dragThreshold separates a click from a drag, in pixels.
const dragThreshold = 4

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.state.Paused = !g.state.Paused
	}
	if rl.IsKeyPressed(rl.KeyN) && g.state.Paused {
		g.state.Step = true
	}

	// Time scale with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		g.state.TimeScale = max(g.state.TimeScale/2, 0.125)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		g.state.TimeScale = min(g.state.TimeScale*2, 4)
	}

	if rl.IsKeyPressed(rl.KeyC) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyF3) {
		g.showPerf = !g.showPerf
	}
	if rl.IsKeyPressed(rl.KeyBackspace) {
		g.selection = selection{}
	}
	if rl.IsKeyPressed(rl.KeyF5) {
		g.saveSnapshots()
	}

	// Overlay toggles
	if key := rl.GetKeyPressed(); key != 0 {
		g.overlays.HandleKeyPress(key)
	}

	g.handleCameraInput()
	g.handleSelectionInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.perfPanel.SetPosition(10, int32(h)-190)
	g.inspector.SetPosition(int32(w)-270, 10)
	g.controls.SetPosition(int32(w)-230, int32(h)-330)
}

// handleCameraInput processes orbit, pan and zoom controls.
func (g *Game) handleCameraInput() {
	mouse := rl.GetMousePosition()
	if g.controls.Contains(mouse.X, mouse.Y) {
		return
	}

	delta := rl.GetMouseDelta()
	switch {
	case rl.IsMouseButtonDown(rl.MouseButtonRight):
		g.camera.Orbit(delta.X, delta.Y)
	case rl.IsMouseButtonDown(rl.MouseButtonMiddle),
		rl.IsMouseButtonDown(rl.MouseButtonLeft) && rl.IsKeyDown(rl.KeyLeftShift):
		g.camera.Pan(delta.X, delta.Y)
	}

	// Arrow keys orbit
	const keyOrbit = 6
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Orbit(keyOrbit, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Orbit(-keyOrbit, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Orbit(0, keyOrbit)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Orbit(0, -keyOrbit)
	}

	// Zoom controls: mouse wheel
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}

	if rl.IsKeyPressed(rl.KeyHome) || g.state.Reset {
		g.camera.Reset()
	}
}

// handleSelectionInput picks an actor on a left click that did not drag.
func (g *Game) handleSelectionInput() {
	mouse := rl.GetMousePosition()
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		g.selection.pressX, g.selection.pressY = mouse.X, mouse.Y
	}
	if !rl.IsMouseButtonReleased(rl.MouseButtonLeft) || rl.IsKeyDown(rl.KeyLeftShift) {
		return
	}
	if g.controls.Contains(mouse.X, mouse.Y) {
		return
	}
	dx := mouse.X - g.selection.pressX
	dy := mouse.Y - g.selection.pressY
	if dx*dx+dy*dy > dragThreshold*dragThreshold {
		return
	}
	g.pick(mouse.X, mouse.Y)
}

// saveSnapshots writes the current populations next to the run output.
func (g *Game) saveSnapshots() {
	paths, err := g.world.SaveSnapshots("")
	if err != nil {
		g.logger.Error("failed to save snapshots", "error", err)
		return
	}
	g.logger.Info("snapshots saved", "tick", g.world.Tick(), "files", paths)
}
