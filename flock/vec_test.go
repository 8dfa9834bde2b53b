package flock

import "testing"

func TestNormalizeZero(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Normalize(0) = %v", got)
	}
	if got := V3(0, 4, 0).Normalize(); got != V3(0, 1, 0) {
		t.Errorf("Normalize = %v, want unit y", got)
	}
}

func TestClampLen(t *testing.T) {
	v := V3(3, 4, 0)
	if got := v.ClampLen(10); got != v {
		t.Errorf("short vector changed: %v", got)
	}
	got := v.ClampLen(1)
	if d := got.Len() - 1; d > 1e-6 || d < -1e-6 {
		t.Errorf("clamped length = %v, want 1", got.Len())
	}
}

func TestCross(t *testing.T) {
	if got := V3(1, 0, 0).Cross(V3(0, 1, 0)); got != V3(0, 0, 1) {
		t.Errorf("x cross y = %v, want z", got)
	}
}
