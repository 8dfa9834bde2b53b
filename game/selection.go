package game

import (
	"github.com/pthm-cable/shoal/camera"
	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/flock"
	"github.com/pthm-cable/shoal/renderer"
	"github.com/pthm-cable/shoal/ui"
)

// pickPadding enlarges actor hit spheres so small actors stay clickable.
const pickPadding = 2.5

// selection is the actor under inspection.
type selection struct {
	valid bool
	pop   components.Population
	name  string
	index int

	// mouse position of the last left press
	pressX, pressY float32
}

// pick selects the actor nearest the camera along the ray through a pixel.
func (g *Game) pick(sx, sy float32) {
	origin, dir := g.camera.ScreenRay(sx, sy)

	best := float32(-1)
	var hit components.Actor
	g.world.Scene().Each(func(tr *components.Transform, actor *components.Actor, _ *components.Motion) {
		radius := pickRadius(actor.Population)
		if d, ok := camera.RayHitsSphere(origin, dir, tr.Position, radius); ok && (best < 0 || d < best) {
			best = d
			hit = *actor
		}
	})

	press := g.selection
	g.selection = selection{pressX: press.pressX, pressY: press.pressY}
	if best < 0 {
		return
	}
	g.selection.valid = true
	g.selection.pop = hit.Population
	g.selection.name = hit.Population.String()
	g.selection.index = int(hit.Index)
}

func pickRadius(pop components.Population) float32 {
	if pop == components.PopulationSeagull {
		return 6 * pickPadding
	}
	return 1.2 * pickPadding
}

// selectedState returns the inspector data and renderer selection for the
// current pick, or false when nothing valid is selected.
func (g *Game) selectedState() (ui.InspectorData, renderer.Selection, bool) {
	sel := g.selection
	if !sel.valid {
		return ui.InspectorData{}, renderer.Selection{}, false
	}
	s := g.world.Simulation(sel.name)
	if s == nil || !s.Active() {
		return ui.InspectorData{}, renderer.Selection{}, false
	}
	tr, motion, ok := g.world.Scene().Actor(sel.pop, sel.index)
	if !ok {
		return ui.InspectorData{}, renderer.Selection{}, false
	}

	var steering *flock.Steering
	if agents := s.Population(); sel.index < len(agents) {
		st, _ := flock.Steer(sel.index, agents, flock.AllAgents{N: len(agents)}, s.Params(),
			flock.Frame{PathCenter: s.PathCenter()}, nil)
		steering = &st
	}

	data := ui.InspectorData{
		Population: sel.name,
		Index:      sel.index,
		Transform:  tr,
		Motion:     motion,
		MaxSpeed:   s.Params().MaxSpeed,
		Steering:   steering,
	}
	rsel := renderer.Selection{
		Valid:      true,
		Population: sel.pop,
		Position:   tr.Position,
		Params:     s.Params(),
		Steering:   steering,
	}
	return data, rsel, true
}
