package sim

import (
	"testing"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/flock"
)

func TestAnchorStatic(t *testing.T) {
	a := NewAnchor(config.AnchorConfig{X: 1, Y: 2, Z: 3}, 1)
	for _, tm := range []float64{0, 1, 100} {
		if got := a.At(tm); got != flock.V3(1, 2, 3) {
			t.Errorf("At(%v) = %v, want base", tm, got)
		}
	}
	if s := StaticAnchor(flock.V3(4, 5, 6)); s.At(10) != flock.V3(4, 5, 6) {
		t.Error("static anchor moved")
	}
}

func TestAnchorDrift(t *testing.T) {
	cfg := config.AnchorConfig{Y: 225, DriftRadius: 400, DriftSpeed: 0.5}
	a := NewAnchor(cfg, 11)
	b := NewAnchor(cfg, 11)

	moved := false
	first := a.At(0.3)
	for i := 0; i < 100; i++ {
		tm := float64(i) * 0.7
		p := a.At(tm)
		if p != b.At(tm) {
			t.Fatalf("same seed gave different anchors at t=%v", tm)
		}
		if p.Y != 225 {
			t.Fatalf("drift changed altitude: %v", p)
		}
		if p.X < -400 || p.X > 400 || p.Z < -400 || p.Z > 400 {
			t.Fatalf("drift outside radius: %v", p)
		}
		if p != first {
			moved = true
		}
	}
	if !moved {
		t.Error("anchor never drifted")
	}
}
