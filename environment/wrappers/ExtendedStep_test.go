package wrappers

import (
	"testing"

	"gorgonia.org/tensor"
)

// TestExtendedStepReset checks that the First record carries a
// zero-valued, spec-shaped action and the normalized reward and
// discount defaults
func TestExtendedStepReset(t *testing.T) {
	e := NewExtendedStep(newStubEnv(1.0, 0.9, 0, 0))

	step, err := e.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}

	if !step.First() {
		t.Error("reset: expected First step")
	}
	if step.Reward != 0.0 {
		t.Errorf("reward: got %v, want 0.0", step.Reward)
	}
	if step.Discount != 1.0 {
		t.Errorf("discount: got %v, want 1.0", step.Discount)
	}

	if step.Action == nil {
		t.Fatal("reset: expected a zero action attached to the First step")
	}
	spec := e.ActionSpec()
	if step.Action.Dtype() != spec.Dtype {
		t.Errorf("action dtype: got %v, want %v", step.Action.Dtype(),
			spec.Dtype)
	}
	if !step.Action.Shape().Eq(tensor.Shape(spec.Shape)) {
		t.Errorf("action shape: got %v, want %v", step.Action.Shape(),
			spec.Shape)
	}
	for i, v := range step.Action.Data().([]float64) {
		if v != 0 {
			t.Errorf("action element %v: got %v, want 0", i, v)
		}
	}
}

// TestExtendedStepStep checks that each step is augmented with the
// action that produced it
func TestExtendedStepStep(t *testing.T) {
	e := NewExtendedStep(newStubEnv(1.0, 0.9, 0, 0))

	if _, err := e.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	action := stepAction()
	step, err := e.Step(action)
	if err != nil {
		t.Fatalf("step: %v", err)
	}

	if step.Action != action {
		t.Error("step: expected the causing action attached to the step")
	}
	if step.Reward != 1.0 {
		t.Errorf("reward: got %v, want 1.0", step.Reward)
	}
	if step.Discount != 0.9 {
		t.Errorf("discount: got %v, want 0.9", step.Discount)
	}
}
