package ui

import (
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayBounds   OverlayID = "bounds"
	OverlayAnchor   OverlayID = "anchor"
	OverlayHeadings OverlayID = "headings"
	OverlayRadii    OverlayID = "radii"
	OverlaySteering OverlayID = "steering"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID // Unique identifier
	Name        string    // Display name
	Description string    // What this overlay shows
	Key         int32     // Keyboard key to toggle (0 = no key)
	KeyLabel    string    // Key label for display (e.g., "B")
	Category    string    // Grouping (e.g., "world", "debug")
	Default     bool      // Enabled at startup
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	enabled     []bool
	index       map[OverlayID]int
}

// NewOverlayRegistry creates a registry with the viewer's overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{index: make(map[OverlayID]int)}
	for _, d := range defaultOverlays {
		reg.Register(d)
	}
	return reg
}

var defaultOverlays = []OverlayDescriptor{
	{
		ID:          OverlayBounds,
		Name:        "Boundaries",
		Description: "Water plane, depth band and centre square",
		Key:         rl.KeyB,
		KeyLabel:    "B",
		Category:    "world",
		Default:     true,
	},
	{
		ID:          OverlayAnchor,
		Name:        "Path Anchor",
		Description: "Path-follow centre of each population",
		Key:         rl.KeyA,
		KeyLabel:    "A",
		Category:    "world",
	},
	{
		ID:          OverlayHeadings,
		Name:        "Headings",
		Description: "Velocity vector per actor",
		Key:         rl.KeyH,
		KeyLabel:    "H",
		Category:    "debug",
	},
	{
		ID:          OverlayRadii,
		Name:        "Radii",
		Description: "Neighbour and avoidance radii of the selected actor",
		Key:         rl.KeyR,
		KeyLabel:    "R",
		Category:    "debug",
	},
	{
		ID:          OverlaySteering,
		Name:        "Steering",
		Description: "Per-rule forces on the selected actor",
		Key:         rl.KeyT,
		KeyLabel:    "T",
		Category:    "debug",
	},
}

// Register adds an overlay, or replaces the descriptor with the same ID.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	if i, ok := r.index[desc.ID]; ok {
		r.descriptors[i] = desc
		r.enabled[i] = desc.Default
		return
	}
	r.index[desc.ID] = len(r.descriptors)
	r.descriptors = append(r.descriptors, desc)
	r.enabled = append(r.enabled, desc.Default)
}

// Toggle switches an overlay and returns its new state. Unknown IDs stay off.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	i, ok := r.index[id]
	if !ok {
		return false
	}
	r.enabled[i] = !r.enabled[i]
	return r.enabled[i]
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	if i, ok := r.index[id]; ok {
		r.enabled[i] = enabled
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	i, ok := r.index[id]
	return ok && r.enabled[i]
}

// ByCategory returns overlays in one category, in registration order.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order of first registration.
func (r *OverlayRegistry) Categories() []string {
	var cats []string
	for _, desc := range r.descriptors {
		if !slices.Contains(cats, desc.Category) {
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress toggles the overlay bound to key. ok is false when no
// overlay uses the key.
func (r *OverlayRegistry) HandleKeyPress(key int32) (id OverlayID, ok bool) {
	for _, desc := range r.descriptors {
		if desc.Key != 0 && desc.Key == key {
			r.Toggle(desc.ID)
			return desc.ID, true
		}
	}
	return "", false
}
