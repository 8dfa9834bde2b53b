package ui

import (
	"slices"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestOverlayDefaults(t *testing.T) {
	r := NewOverlayRegistry()

	if !r.IsEnabled(OverlayBounds) {
		t.Error("bounds overlay should start enabled")
	}
	for _, id := range []OverlayID{OverlayAnchor, OverlayHeadings, OverlayRadii, OverlaySteering} {
		if r.IsEnabled(id) {
			t.Errorf("%s should start disabled", id)
		}
	}
	if got := r.Categories(); !slices.Equal(got, []string{"world", "debug"}) {
		t.Errorf("categories = %v", got)
	}
	if got := len(r.ByCategory("debug")); got != 3 {
		t.Errorf("debug overlays = %d, want 3", got)
	}
}

func TestOverlayHandleKeyPress(t *testing.T) {
	r := NewOverlayRegistry()

	id, ok := r.HandleKeyPress(rl.KeyH)
	if !ok || id != OverlayHeadings || !r.IsEnabled(OverlayHeadings) {
		t.Fatalf("H should enable headings, got %q %v", id, ok)
	}
	r.HandleKeyPress(rl.KeyH)
	if r.IsEnabled(OverlayHeadings) {
		t.Error("second H should disable headings")
	}

	if _, ok := r.HandleKeyPress(rl.KeyZ); ok {
		t.Error("unbound key should not toggle")
	}
	if _, ok := r.HandleKeyPress(0); ok {
		t.Error("zero key should not toggle")
	}
}

func TestOverlayRegisterAndUnknown(t *testing.T) {
	r := NewOverlayRegistry()

	if r.Toggle("missing") || r.IsEnabled("missing") {
		t.Error("unknown overlay should stay off")
	}
	r.SetEnabled("missing", true)
	if r.IsEnabled("missing") {
		t.Error("SetEnabled must ignore unknown overlays")
	}

	r.Register(OverlayDescriptor{ID: OverlayAnchor, Name: "Anchor", Category: "world", Default: true})
	if !r.IsEnabled(OverlayAnchor) {
		t.Error("re-registering should apply the new default")
	}
	if got := len(r.ByCategory("world")); got != 2 {
		t.Errorf("re-registering should not duplicate, world overlays = %d", got)
	}
}
