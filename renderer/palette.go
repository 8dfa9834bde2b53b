package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/components"
)

// Scene colors.
var (
	ColorSky       = rl.Color{R: 170, G: 205, B: 230, A: 255}
	ColorWater     = rl.Color{R: 30, G: 90, B: 140, A: 140}
	ColorBand      = rl.Color{R: 80, G: 160, B: 200, A: 255}
	ColorExclusion = rl.Color{R: 220, G: 120, B: 60, A: 255}
	ColorAnchor    = rl.Color{R: 250, G: 210, B: 80, A: 255}
	ColorSelection = rl.Color{R: 255, G: 255, B: 0, A: 255}
	ColorNeighbor  = rl.Color{R: 120, G: 220, B: 120, A: 255}
	ColorAvoid     = rl.Color{R: 230, G: 90, B: 90, A: 255}
)

// style is how actors of one population are drawn.
type style struct {
	body    rl.Color
	heading rl.Color
	size    float32 // body edge length in world units
	nose    float32 // heading line length
}

var styles = map[components.Population]style{
	components.PopulationFish: {
		body:    rl.Color{R: 60, G: 170, B: 200, A: 255},
		heading: rl.Color{R: 20, G: 80, B: 110, A: 255},
		size:    1.2,
		nose:    3,
	},
	components.PopulationSeagull: {
		body:    rl.Color{R: 245, G: 245, B: 240, A: 255},
		heading: rl.Color{R: 90, G: 90, B: 90, A: 255},
		size:    6,
		nose:    18,
	},
}

func styleFor(pop components.Population) style {
	if s, ok := styles[pop]; ok {
		return s
	}
	return style{body: rl.Magenta, heading: rl.DarkPurple, size: 2, nose: 6}
}

// steeringColors orders the rule forces drawn for the selected actor.
var steeringColors = []rl.Color{
	rl.SkyBlue, // alignment
	rl.Lime,    // cohesion
	rl.Red,     // separation
	rl.Gold,    // path follow
	rl.Purple,  // boundary
}
