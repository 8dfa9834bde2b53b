package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/shoal/config"
)

func TestDefaultsMatchConfig(t *testing.T) {
	pv := NewParamVector()
	got := pv.ExtractFromConfig(config.Defaults())
	want := pv.DefaultVector()

	for i, spec := range pv.Specs {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("%s: config default %f, spec default %f", spec.Name, got[i], want[i])
		}
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))

	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: %f -> %f", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestApplyClampsAndExtracts(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Defaults()

	values := make([]float64, pv.Dim())
	for i := range values {
		values[i] = -100 // below every lower bound
	}
	pv.ApplyToConfig(cfg, values)

	got := pv.ExtractFromConfig(cfg)
	for i, spec := range pv.Specs {
		if got[i] != spec.Min {
			t.Errorf("%s: expected clamp to %f, got %f", spec.Name, spec.Min, got[i])
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("clamped config should validate: %v", err)
	}
}

func TestSpecsAreDistinct(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Defaults()

	seen := make(map[*float64]string)
	for _, spec := range pv.Specs {
		if spec.Min >= spec.Max {
			t.Errorf("%s: empty range [%f, %f]", spec.Name, spec.Min, spec.Max)
		}
		p := spec.Field(cfg)
		if other, ok := seen[p]; ok {
			t.Errorf("%s and %s control the same field", spec.Name, other)
		}
		seen[p] = spec.Name
	}
}
