package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Time scale limits for the controls slider.
const (
	MinTimeScale = 0.1
	MaxTimeScale = 4.0
)

// ControlsState is the playback state edited by the controls panel.
type ControlsState struct {
	Paused    bool
	TimeScale float32
	Step      bool // advance one tick while paused
	Reset     bool // reset the camera
}

// ControlsPanel renders the playback controls and overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	height   int32 // as last drawn
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point is over the panel, so clicks on
// it are not treated as scene picks.
func (c *ControlsPanel) Contains(px, py float32) bool {
	if !c.visible {
		return false
	}
	return px >= float32(c.x) && px <= float32(c.x+c.width) &&
		py >= float32(c.y) && py <= float32(c.y+c.height)
}

func (c *ControlsPanel) measure(overlays *OverlayRegistry) int32 {
	r := c.renderer
	items := int32(0)
	for _, cat := range overlays.Categories() {
		items += int32(len(overlays.ByCategory(cat))) + 1
	}
	// title, two button rows and the slider
	return r.Theme.Padding*3 + r.Theme.LineHeight + 4 + 30 + r.Theme.LineHeight + 24 + 30 + items*(r.Theme.LineHeight+4)
}

// Draw renders the panel and returns the updated state.
func (c *ControlsPanel) Draw(state ControlsState, overlays *OverlayRegistry) ControlsState {
	state.Step = false
	state.Reset = false
	if !c.visible {
		return state
	}

	r := c.renderer
	padding := r.Theme.Padding
	x := float32(c.x + padding)
	inner := float32(c.width - padding*2)

	c.height = c.measure(overlays)
	r.DrawPanel(c.x, c.y, c.width, c.height)

	y := c.y + padding
	rl.DrawText("Controls", c.x+padding, y, 16, rl.White)
	y += r.Theme.LineHeight + 4

	half := (inner - 6) / 2
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 24}, toggleText(state.Paused, "Resume", "Pause")) {
		state.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: float32(y), Width: half, Height: 24}, "Step") {
		state.Step = true
	}
	y += 30

	rl.DrawText(fmt.Sprintf("Time scale %.2fx", state.TimeScale), c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += r.Theme.LineHeight
	state.TimeScale = gui.SliderBar(
		rl.Rectangle{X: x, Y: float32(y), Width: inner, Height: 16},
		"", "",
		state.TimeScale, MinTimeScale, MaxTimeScale,
	)
	y += 24

	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: inner, Height: 24}, "Reset Camera") {
		state.Reset = true
	}
	y += 30 + padding

	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += r.Theme.LineHeight + 4

		for _, desc := range overlays.ByCategory(category) {
			label := fmt.Sprintf("%s [%s]", desc.Name, desc.KeyLabel)
			enabled := overlays.IsEnabled(desc.ID)
			if checked := gui.CheckBox(rl.Rectangle{X: x, Y: float32(y), Width: 12, Height: 12}, label, enabled); checked != enabled {
				overlays.SetEnabled(desc.ID, checked)
			}
			y += r.Theme.LineHeight + 4
		}
	}

	return state
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "world":
		return "World"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}
