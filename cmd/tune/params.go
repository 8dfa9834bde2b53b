// Package main tunes flocking weights with CMA-ES.
package main

import (
	"github.com/pthm-cable/shoal/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	// Field returns the config value the parameter controls.
	Field func(*config.Config) *float64
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Fish schooling
			{Name: "fish_alignment", Path: "fish.weights.alignment", Min: 0, Max: 3, Default: 1.0,
				Field: func(c *config.Config) *float64 { return &c.Fish.Weights.Alignment }},
			{Name: "fish_cohesion", Path: "fish.weights.cohesion", Min: 0, Max: 3, Default: 1.2,
				Field: func(c *config.Config) *float64 { return &c.Fish.Weights.Cohesion }},
			{Name: "fish_separation", Path: "fish.weights.separation", Min: 0, Max: 4, Default: 1.5,
				Field: func(c *config.Config) *float64 { return &c.Fish.Weights.Separation }},
			{Name: "fish_avoid_water", Path: "fish.weights.avoid_water", Min: 0.1, Max: 3, Default: 1.0,
				Field: func(c *config.Config) *float64 { return &c.Fish.Weights.AvoidWater }},
			{Name: "fish_target_depth", Path: "fish.weights.target_depth", Min: 0, Max: 1, Default: 0.1,
				Field: func(c *config.Config) *float64 { return &c.Fish.Weights.TargetDepth }},
			{Name: "fish_neighbor_radius", Path: "fish.neighbor_radius", Min: 5, Max: 60, Default: 20,
				Field: func(c *config.Config) *float64 { return &c.Fish.NeighborRadius }},
			// Seagull flocking
			{Name: "gull_alignment", Path: "seagull.weights.alignment", Min: 0, Max: 2, Default: 0.5,
				Field: func(c *config.Config) *float64 { return &c.Seagull.Weights.Alignment }},
			{Name: "gull_cohesion", Path: "seagull.weights.cohesion", Min: 0, Max: 2, Default: 0.5,
				Field: func(c *config.Config) *float64 { return &c.Seagull.Weights.Cohesion }},
			{Name: "gull_separation", Path: "seagull.weights.separation", Min: 0, Max: 3, Default: 1.0,
				Field: func(c *config.Config) *float64 { return &c.Seagull.Weights.Separation }},
			{Name: "gull_path_follow", Path: "seagull.weights.path_follow", Min: 0, Max: 3, Default: 1.0,
				Field: func(c *config.Config) *float64 { return &c.Seagull.Weights.PathFollow }},
			{Name: "gull_avoid_center", Path: "seagull.weights.avoid_center", Min: 0, Max: 3, Default: 1.0,
				Field: func(c *config.Config) *float64 { return &c.Seagull.Weights.AvoidCenter }},
			{Name: "gull_max_force", Path: "seagull.max_force", Min: 0.05, Max: 2, Default: 0.5,
				Field: func(c *config.Config) *float64 { return &c.Seagull.MaxForce }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		*spec.Field(cfg) = clamped[i]
	}
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = *spec.Field(cfg)
	}
	return v
}
