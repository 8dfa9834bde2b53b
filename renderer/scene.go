// Package renderer draws the flock scene in 3D.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/camera"
	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/flock"
	"github.com/pthm-cable/shoal/scene"
)

// waterExtent is the half-size of the drawn water plane.
const waterExtent = 2500

// PopulationView is what the renderer needs to know about one population.
type PopulationView struct {
	ID     components.Population
	Params *flock.Params
	Anchor flock.Vec3
	Active bool
}

// Overlays selects the optional scene gizmos.
type Overlays struct {
	Bounds   bool
	Anchor   bool
	Headings bool
	Radii    bool
	Steering bool
}

// Selection describes the highlighted actor.
type Selection struct {
	Valid      bool
	Population components.Population
	Position   flock.Vec3
	Params     *flock.Params
	Steering   *flock.Steering
}

// SceneRenderer draws actors and world gizmos.
type SceneRenderer struct {
	waterHeight float32
}

// NewSceneRenderer creates a renderer. The water plane is drawn at the first
// water-plane population's height, or zero.
func NewSceneRenderer(views []PopulationView) *SceneRenderer {
	r := &SceneRenderer{}
	for _, v := range views {
		if v.Params != nil && v.Params.Boundary.Kind == flock.WaterPlane {
			r.waterHeight = v.Params.Boundary.WaterHeight
			break
		}
	}
	return r
}

// Camera3D converts the orbit camera to a raylib camera.
func Camera3D(c *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   vec(c.Position()),
		Target:     vec(c.Target),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       c.FovY,
		Projection: rl.CameraPerspective,
	}
}

// Draw renders the scene. Call between BeginDrawing and EndDrawing.
func (r *SceneRenderer) Draw(cam *camera.Camera, sc *scene.Scene, views []PopulationView, sel Selection, ov Overlays) {
	rl.ClearBackground(ColorSky)
	rl.BeginMode3D(Camera3D(cam))

	rl.DrawGrid(50, 100)

	if ov.Bounds {
		for _, v := range views {
			if v.Active {
				r.drawBounds(v.Params)
			}
		}
	}
	if ov.Anchor {
		for _, v := range views {
			if v.Active {
				drawAnchor(v.Anchor, styleFor(v.ID).size*2)
			}
		}
	}

	sc.Each(func(tr *components.Transform, actor *components.Actor, motion *components.Motion) {
		st := styleFor(actor.Population)
		pos := vec(tr.Position)
		rl.DrawCube(pos, st.size, st.size, st.size, st.body)
		if ov.Headings {
			fwd := scene.Forward(tr.Rotation)
			rl.DrawLine3D(pos, vec(tr.Position.Add(fwd.Scale(st.nose))), st.heading)
		}
	})

	if sel.Valid {
		r.drawSelection(sel, ov)
	}

	// Translucent water last so actors below show through
	rl.DrawPlane(rl.NewVector3(0, r.waterHeight, 0), rl.NewVector2(2*waterExtent, 2*waterExtent), ColorWater)

	rl.EndMode3D()
}

func (r *SceneRenderer) drawBounds(p *flock.Params) {
	if p == nil {
		return
	}
	b := &p.Boundary
	half := p.Spawn.SampleHalfWidth

	switch b.Kind {
	case flock.DepthBand:
		h := b.MinDepth - b.MaxDepth
		center := rl.NewVector3(0, (b.MinDepth+b.MaxDepth)/2, 0)
		rl.DrawCubeWires(center, 2*half, h, 2*half, ColorBand)

	case flock.WaterPlane:
		if b.CenterHalfWidth > 0 {
			hw := b.CenterHalfWidth
			y := b.WaterHeight
			corners := [4]rl.Vector3{
				rl.NewVector3(-hw, y, -hw),
				rl.NewVector3(hw, y, -hw),
				rl.NewVector3(hw, y, hw),
				rl.NewVector3(-hw, y, hw),
			}
			for i := range corners {
				rl.DrawLine3D(corners[i], corners[(i+1)%4], ColorExclusion)
			}
		}
	}
}

func drawAnchor(at flock.Vec3, radius float32) {
	rl.DrawSphereWires(vec(at), radius, 6, 8, ColorAnchor)
	rl.DrawLine3D(vec(at), rl.NewVector3(at.X, 0, at.Z), ColorAnchor)
}

func (r *SceneRenderer) drawSelection(sel Selection, ov Overlays) {
	st := styleFor(sel.Population)
	pos := vec(sel.Position)
	rl.DrawCubeWires(pos, st.size*2, st.size*2, st.size*2, ColorSelection)

	if ov.Radii && sel.Params != nil {
		rl.DrawSphereWires(pos, sel.Params.NeighborRadius, 8, 12, ColorNeighbor)
		rl.DrawSphereWires(pos, sel.Params.AvoidanceRadius, 6, 8, ColorAvoid)
	}

	if ov.Steering && sel.Steering != nil {
		s := sel.Steering
		forces := []flock.Vec3{s.Alignment, s.Cohesion, s.Separation, s.PathFollow, s.Boundary}
		for i, f := range forces {
			if f == (flock.Vec3{}) {
				continue
			}
			end := sel.Position.Add(f.Normalize().Scale(st.nose * 1.5))
			rl.DrawLine3D(pos, vec(end), steeringColors[i])
		}
	}
}

func vec(v flock.Vec3) rl.Vector3 {
	return rl.NewVector3(v.X, v.Y, v.Z)
}
