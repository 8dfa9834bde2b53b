package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/flock"
)

// InspectorData holds all the data needed to render the actor inspector.
type InspectorData struct {
	Population string
	Index      int
	Transform  components.Transform
	Motion     components.Motion
	MaxSpeed   float32

	// Steering is the force breakdown on the actor's agent at the last
	// downloaded state, or nil when not computed.
	Steering *flock.Steering
}

// Inspector renders the selected-actor panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for the given data and returns the y
// coordinate below it.
func (ins *Inspector) Draw(data InspectorData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2

	sections := ComponentSections(components.MotionFieldDescriptors(data.MaxSpeed), func(d any, id string) float32 {
		in := d.(*InspectorData)
		return components.GetMotionValue(&in.Transform, &in.Motion, id)
	})
	if data.Steering != nil {
		sections = append(sections, steeringSection())
	}

	height := padding*2 + 24
	for _, sd := range sections {
		height += r.SectionHeight(sd)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	y := ins.y + padding
	rl.DrawText(fmt.Sprintf("%s #%d", data.Population, data.Index), ins.x+padding, y, 16, rl.White)
	y += 24

	for _, sd := range sections {
		y = r.DrawSection(ins.x+padding, y, sd, &data, contentWidth)
	}
	return ins.y + height
}

// steeringSection shows the magnitude of each rule force.
func steeringSection() SectionDescriptor {
	force := func(pick func(s *flock.Steering) flock.Vec3) func(any) float32 {
		return func(d any) float32 {
			return pick(d.(*InspectorData).Steering).Len()
		}
	}
	count := func(pick func(s *flock.Steering) int) func(any) string {
		return func(d any) string {
			return fmt.Sprintf("%d", pick(d.(*InspectorData).Steering))
		}
	}
	return SectionDescriptor{
		ID:    "steering",
		Title: groupTitle("steering"),
		Fields: []FieldDescriptor{
			{ID: "neighbors", Label: "Neighbors", TextGetter: count(func(s *flock.Steering) int { return s.Neighbors })},
			{ID: "crowding", Label: "Crowding", TextGetter: count(func(s *flock.Steering) int { return s.Crowding })},
			{ID: "alignment", Label: "Align", Format: "%.3f", Getter: force(func(s *flock.Steering) flock.Vec3 { return s.Alignment })},
			{ID: "cohesion", Label: "Cohesion", Format: "%.3f", Getter: force(func(s *flock.Steering) flock.Vec3 { return s.Cohesion })},
			{ID: "separation", Label: "Separate", Format: "%.3f", Getter: force(func(s *flock.Steering) flock.Vec3 { return s.Separation })},
			{ID: "path", Label: "Path", Format: "%.3f", Getter: force(func(s *flock.Steering) flock.Vec3 { return s.PathFollow })},
			{ID: "boundary", Label: "Boundary", Format: "%.3f", Getter: force(func(s *flock.Steering) flock.Vec3 { return s.Boundary })},
		},
	}
}
