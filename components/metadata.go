package components

// FieldDescriptor describes a component field for UI display.
type FieldDescriptor struct {
	ID     string  // Unique identifier
	Label  string  // Display name
	Format string  // Printf format (e.g., "%.2f")
	Min    float32 // Minimum value (for bars)
	Max    float32 // Maximum value (for bars)
	IsBar  bool    // True to render as progress bar
	Group  string  // Logical grouping
}

// String returns the display name for a Population.
func (p Population) String() string {
	names := PopulationNames()
	if int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// PopulationNames returns the names of all populations.
// The order matches the Population constants.
func PopulationNames() []string {
	return []string{"fish", "seagull"}
}

// PopulationByName returns the Population with the given name.
func PopulationByName(name string) (Population, bool) {
	for i, n := range PopulationNames() {
		if n == name {
			return Population(i), true
		}
	}
	return 0, false
}

// MotionFieldDescriptors returns metadata for Motion and Transform fields.
// maxSpeed scales the speed bar.
func MotionFieldDescriptors(maxSpeed float32) []FieldDescriptor {
	return []FieldDescriptor{
		{ID: "speed", Label: "Speed", Format: "%.2f", Min: 0, Max: maxSpeed, IsBar: true, Group: "motion"},
		{ID: "vel_y", Label: "Climb", Format: "%+.2f", Min: -maxSpeed, Max: maxSpeed, Group: "motion"},
		{ID: "pos_x", Label: "X", Format: "%.1f", Group: "position"},
		{ID: "pos_y", Label: "Y", Format: "%.1f", Group: "position"},
		{ID: "pos_z", Label: "Z", Format: "%.1f", Group: "position"},
	}
}

// GetMotionValue extracts a field value by ID.
func GetMotionValue(tr *Transform, m *Motion, fieldID string) float32 {
	switch fieldID {
	case "speed":
		return m.Speed
	case "vel_y":
		return m.Velocity.Y
	case "pos_x":
		return tr.Position.X
	case "pos_y":
		return tr.Position.Y
	case "pos_z":
		return tr.Position.Z
	default:
		return 0
	}
}
