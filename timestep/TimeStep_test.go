package timestep

import (
	"testing"

	"gorgonia.org/tensor"
)

func TestStepType(t *testing.T) {
	step := New(First, 0, 0, NewObservation(), 0)
	if !step.First() || step.Mid() || step.Last() {
		t.Errorf("step type: got %v, want First", step.StepType)
	}

	step = New(Last, 1.0, 0.9, NewObservation(), 3)
	if !step.Last() || step.First() {
		t.Errorf("step type: got %v, want Last", step.StepType)
	}
}

func TestObservationOrder(t *testing.T) {
	obs := NewObservation()
	keys := []string{"c", "a", "b"}
	for i, key := range keys {
		obs.Set(key, tensor.New(tensor.WithShape(1),
			tensor.WithBacking([]float64{float64(i)})))
	}

	got := obs.Keys()
	for i := range keys {
		if got[i] != keys[i] {
			t.Fatalf("keys: got %v, want insertion order %v", got, keys)
		}
	}

	// Overwriting does not change the order
	obs.Set("a", tensor.New(tensor.WithShape(1),
		tensor.WithBacking([]float64{9})))
	got = obs.Keys()
	if obs.Len() != 3 || got[1] != "a" {
		t.Errorf("keys after overwrite: got %v, want %v", got, keys)
	}
	if obs.Get("a").Data().([]float64)[0] != 9 {
		t.Error("overwrite: value was not replaced")
	}
}

func TestObservationClone(t *testing.T) {
	obs := NewObservation()
	obs.Set("a", tensor.New(tensor.WithShape(1),
		tensor.WithBacking([]float64{1})))

	clone := obs.Clone()
	clone.Set("b", tensor.New(tensor.WithShape(1),
		tensor.WithBacking([]float64{2})))

	if obs.Has("b") {
		t.Error("clone: adding to the clone changed the original")
	}
	if clone.Get("a") != obs.Get("a") {
		t.Error("clone: entry arrays should be shared")
	}
}
