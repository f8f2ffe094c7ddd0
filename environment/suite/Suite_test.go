package suite

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	ts "github.com/manipenv/manipenv/timestep"
)

// stubSim is a deterministic raw simulator. It declares one robot, one
// camera, and an object state, and terminates after doneAt steps.
type stubSim struct {
	steps  int
	resets int
	doneAt int

	lastAction *mat.VecDense
	observed   bool
}

func (s *stubSim) observation() *ts.Observation {
	obs := ts.NewObservation()
	obs.Set("object-state", tensor.New(tensor.WithShape(3),
		tensor.WithBacking([]float64{1, 2, 3})))
	obs.Set("agentview_image", tensor.New(tensor.WithShape(2, 2, 3),
		tensor.WithBacking(make([]uint8, 12))))
	obs.Set("robot0_proprio-state", tensor.New(tensor.WithShape(4),
		tensor.WithBacking([]float64{float64(s.steps), 0, 0, 0})))
	obs.Set("unretained-extra", tensor.New(tensor.WithShape(1),
		tensor.WithBacking([]float64{9})))
	return obs
}

func (s *stubSim) Reset() (*ts.Observation, error) {
	s.steps = 0
	s.resets++
	return s.observation(), nil
}

func (s *stubSim) Observe(forceUpdate bool) (*ts.Observation, error) {
	s.observed = true
	return s.observation(), nil
}

func (s *stubSim) Step(action *mat.VecDense) (*ts.Observation, float64, bool,
	error) {
	s.steps++
	s.lastAction = action
	done := s.doneAt > 0 && s.steps >= s.doneAt
	return s.observation(), 1.0, done, nil
}

func (s *stubSim) ObservationSpec() *ts.Observation { return s.observation() }

func (s *stubSim) ActionBounds() (*mat.VecDense, *mat.VecDense) {
	return mat.NewVecDense(2, []float64{-1, -1}),
		mat.NewVecDense(2, []float64{1, 1})
}

func (s *stubSim) ActionDim() int        { return 2 }
func (s *stubSim) CameraNames() []string { return []string{"agentview"} }
func (s *stubSim) NumRobots() int        { return 1 }
func (s *stubSim) UsesObjectObs() bool   { return true }
func (s *stubSim) UsesCameraObs() bool   { return true }
func (s *stubSim) UsesTouchObs() bool    { return false }

// TestAdapterDefaultKeys checks the computed defaults: object state,
// per-camera images, then per-robot proprioceptive states
func TestAdapterDefaultKeys(t *testing.T) {
	a, err := New(&stubSim{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	want := []string{"object-state", "agentview_image",
		"robot0_proprio-state"}
	got := a.Keys()
	if len(got) != len(want) {
		t.Fatalf("keys: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %v: got %v, want %v", i, got[i], want[i])
		}
	}
}

// TestAdapterUnknownKey checks the fail-fast configuration error
func TestAdapterUnknownKey(t *testing.T) {
	if _, err := New(&stubSim{}, "no-such-key"); err == nil {
		t.Error("new: expected error for unknown observation key")
	}
}

// TestAdapterSpecs checks the published observation and action specs
func TestAdapterSpecs(t *testing.T) {
	a, err := New(&stubSim{}, "robot0_proprio-state", "agentview_image")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	specs := a.ObservationSpec()
	keys := specs.Keys()
	if len(keys) != 2 || keys[0] != "robot0_proprio-state" ||
		keys[1] != "agentview_image" {
		t.Errorf("spec keys: got %v, want configured order", keys)
	}

	imageSpec, _ := specs.Get("agentview_image")
	if imageSpec.Dtype != tensor.Uint8 || len(imageSpec.Shape) != 3 {
		t.Errorf("image spec: got %v %v, want native uint8 [2 2 3]",
			imageSpec.Dtype, imageSpec.Shape)
	}
	if imageSpec.Bounded() {
		t.Error("image spec: retained keys publish unbounded specs")
	}

	actionSpec := a.ActionSpec()
	if actionSpec.Dtype != tensor.Float32 {
		t.Errorf("action dtype: got %v, want %v", actionSpec.Dtype,
			tensor.Float32)
	}
	if actionSpec.Shape[0] != 2 || !actionSpec.Bounded() {
		t.Errorf("action spec: got %v, want bounded shape [2]", actionSpec)
	}
}

// TestAdapterStep checks step translation: filtering, Mid/Last
// tagging, and the fixed discount
func TestAdapterStep(t *testing.T) {
	sim := &stubSim{doneAt: 2}
	a, err := New(sim)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	step, err := a.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !step.First() || step.Reward != 0 {
		t.Errorf("reset: got %v, want First step with zero reward", step)
	}
	if step.Observation.Has("unretained-extra") {
		t.Error("reset: unretained key leaked through the filter")
	}

	action := tensor.New(tensor.WithShape(2),
		tensor.WithBacking([]float32{0.5, -1}))
	step, err = a.Step(action)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !step.Mid() {
		t.Error("step: expected Mid step before termination")
	}
	if step.Discount != 1.0 {
		t.Errorf("discount: got %v, want fixed 1.0", step.Discount)
	}
	if sim.lastAction.AtVec(0) != 0.5 || sim.lastAction.AtVec(1) != -1 {
		t.Errorf("forwarded action: got %v, want [0.5 -1]",
			sim.lastAction.RawVector().Data)
	}

	step, err = a.Step(action)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !step.Last() {
		t.Error("step: expected Last step at termination")
	}
	if step.Number != 2 {
		t.Errorf("step number: got %v, want 2", step.Number)
	}
}

// TestAdapterRefresh checks observation refresh without a physics
// reset, and the sequencing error before any reset
func TestAdapterRefresh(t *testing.T) {
	sim := &stubSim{}
	a, err := New(sim)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := a.Refresh(true); err == nil {
		t.Error("refresh: expected sequencing error before any reset")
	}

	if _, err := a.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	resets := sim.resets

	step, err := a.Refresh(true)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !step.First() {
		t.Error("refresh: expected a First step")
	}
	if !sim.observed {
		t.Error("refresh: simulator observations were not re-read")
	}
	if sim.resets != resets {
		t.Error("refresh: simulator must not be physically reset")
	}
}

// TestAdapterSpecKeysStable checks that the observation spec keys do
// not change as the environment steps
func TestAdapterSpecKeysStable(t *testing.T) {
	a, err := New(&stubSim{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	want := a.ObservationSpec().Keys()
	if _, err := a.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	action := tensor.New(tensor.WithShape(2),
		tensor.WithBacking([]float32{0, 0}))
	for i := 0; i < 4; i++ {
		if _, err := a.Step(action); err != nil {
			t.Fatalf("step: %v", err)
		}
		got := a.ObservationSpec().Keys()
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("after %v steps: spec keys %v, want %v", i+1, got,
					want)
			}
		}
	}
}
