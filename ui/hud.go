package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/telemetry"
)

// PopulationLine is one population row of the HUD.
type PopulationLine struct {
	Name  string
	State string
	Count int
	Ticks int64
}

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title       string
	Populations []PopulationLine
	Tick        int32
	SimTime     float64
	TimeScale   float32
	FPS         int32
	Paused      bool
}

// HUD renders the main heads-up display.
type HUD struct{}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	y := int32(35)
	for _, p := range data.Populations {
		color := rl.LightGray
		if p.State != "active" {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-8s %5d agents | %s | %d ticks", p.Name, p.Count, p.State, p.Ticks),
			10, y, 16, color,
		)
		y += 20
	}

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Sim: %.1fs | Scale: %.2fx | FPS: %d", data.Tick, data.SimTime, data.TimeScale, data.FPS),
		10, y, 16, rl.LightGray,
	)
	y += 20

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, y, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	Stats       telemetry.PerfStats
	Workers     int
	DeviceBytes int64
}

// PerfPanel renders the step phase breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(data PerfPanelData) {
	r := p.renderer
	padding := r.Theme.Padding
	height := padding*2 + 20 + 16*3 + 14*int32(telemetry.NumPhases)
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + padding
	y := p.y + padding

	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20

	s := data.Stats
	rl.DrawText(fmt.Sprintf("Tick: %s (%.0f/s)", s.AvgTickDuration.Round(time.Microsecond), s.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16
	rl.DrawText(fmt.Sprintf("p95: %s  max: %s", s.P95TickDuration.Round(time.Microsecond), s.MaxTickDuration.Round(time.Microsecond)), x, y, 12, r.Theme.LabelColor)
	y += 16
	rl.DrawText(fmt.Sprintf("Workers: %d | Device: %.1f KiB", data.Workers, float64(data.DeviceBytes)/1024), x, y, 12, r.Theme.LabelColor)
	y += 16

	for phase := range telemetry.NumPhases {
		pct := s.PhasePct[phase]

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", phase, s.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
