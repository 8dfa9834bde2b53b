package compute

import (
	"errors"
	"slices"
	"testing"
)

func TestLibraryFind(t *testing.T) {
	a := newDoubler(1)
	b := newDoubler(1)
	b.name = "alpha"
	lib := NewLibrary[int32](a, b)

	k, err := lib.Find("double")
	if err != nil || k != Kernel[int32](a) {
		t.Errorf("Find(double) = %v, %v", k, err)
	}

	_, err = lib.Find("SeagullUpdate")
	var de *DeviceError
	if !errors.As(err, &de) || !errors.Is(err, ErrKernelNotFound) {
		t.Fatalf("expected DeviceError wrapping ErrKernelNotFound, got %v", err)
	}
	if de.Kernel != "SeagullUpdate" {
		t.Errorf("kernel = %q", de.Kernel)
	}

	if names := lib.Names(); !slices.Equal(names, []string{"alpha", "double"}) {
		t.Errorf("names = %v", names)
	}
}

func TestLibraryRegisterReplaces(t *testing.T) {
	lib := NewLibrary[int32]()
	first := newDoubler(1)
	second := newDoubler(1)
	lib.Register(first)
	lib.Register(second)

	k, _ := lib.Find("double")
	if k != Kernel[int32](second) {
		t.Error("expected the later registration to win")
	}
}
