package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/shoal/flock"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds one population's agents for offline inspection.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	Population string  `json:"population"`
	Tick       int32   `json:"tick"`
	SimTimeSec float64 `json:"sim_time"`

	PathCenter [3]float32 `json:"path_center"`

	Agents []AgentState `json:"agents"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentState holds one agent's complete state.
type AgentState struct {
	Position    [3]float32 `json:"p"`
	Velocity    [3]float32 `json:"v"`
	TargetDepth float32    `json:"target_depth,omitempty"`
}

// NewSnapshot captures agents. The slice is copied.
func NewSnapshot(population string, seed int64, tick int32, simTime float64, pathCenter flock.Vec3, agents []flock.Agent) *Snapshot {
	s := &Snapshot{
		Version:    SnapshotVersion,
		RNGSeed:    seed,
		Population: population,
		Tick:       tick,
		SimTimeSec: simTime,
		PathCenter: [3]float32{pathCenter.X, pathCenter.Y, pathCenter.Z},
		Agents:     make([]AgentState, len(agents)),
	}
	for i, a := range agents {
		s.Agents[i] = AgentState{
			Position:    [3]float32{a.Position.X, a.Position.Y, a.Position.Z},
			Velocity:    [3]float32{a.Velocity.X, a.Velocity.Y, a.Velocity.Z},
			TargetDepth: a.TargetDepth,
		}
	}
	return s
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%s_%d", snapshot.Population, snapshot.Tick)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name += "_" + sanitized
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot %s: unsupported version %d", path, snapshot.Version)
	}

	return &snapshot, nil
}
