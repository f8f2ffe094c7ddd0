package suite

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	env "github.com/manipenv/manipenv/environment"
	ts "github.com/manipenv/manipenv/timestep"
	"github.com/manipenv/manipenv/utils/tensorutils"
)

// Adapter selects and retains a subset of a Simulator's raw observation
// keys and translates its raw step and reset outputs into TimeSteps,
// making the Simulator usable as an environment.Environment.
//
// Observations and observation specs are always ordered mappings, even
// when a single key is retained. The discount of every transition is
// fixed to 1.0 since the simulator has no native discount concept.
type Adapter struct {
	sim  Simulator
	keys []string

	obsSpec    *env.Specs
	actionSpec env.Spec

	started bool
	stepNum int
}

// New returns a new Adapter retaining the given observation keys, in
// the given order. With no keys, defaults are computed from the
// simulator's declared capabilities: the object state if object
// observations are enabled, one image per camera if camera observations
// are enabled, and one proprioceptive state per controlled robot.
//
// New fails if a requested key is not among the simulator's declared
// observation keys.
func New(sim Simulator, keys ...string) (*Adapter, error) {
	if len(keys) == 0 {
		if sim.UsesObjectObs() {
			keys = append(keys, "object-state")
		}
		if sim.UsesCameraObs() {
			for _, camName := range sim.CameraNames() {
				keys = append(keys, fmt.Sprintf("%v_image", camName))
			}
		}
		for idx := 0; idx < sim.NumRobots(); idx++ {
			keys = append(keys, fmt.Sprintf("robot%d_proprio-state", idx))
		}
	}

	ob := sim.ObservationSpec()
	obsSpec := env.NewSpecs()
	for _, key := range keys {
		v := ob.Get(key)
		if v == nil {
			return nil, fmt.Errorf("new: observation key %q not in "+
				"simulator observations %v", key, ob.Keys())
		}
		shape := make([]int, len(v.Shape()))
		copy(shape, v.Shape())
		obsSpec.Add(key, env.NewSpec(shape, v.Dtype(), key))
	}

	minimum, maximum := sim.ActionBounds()
	actionSpec := env.NewBoundedSpec([]int{sim.ActionDim()}, tensor.Float32,
		"action", minimum, maximum)

	return &Adapter{
		sim:        sim,
		keys:       keys,
		obsSpec:    obsSpec,
		actionSpec: actionSpec,
	}, nil
}

// Reset performs a full simulator reset and returns the First timestep
// of the new episode
func (a *Adapter) Reset() (ts.TimeStep, error) {
	rawObs, err := a.sim.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	obs, err := a.filter(rawObs)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	a.started = true
	a.stepNum = 0
	return ts.New(ts.First, 0, 0, obs, 0), nil
}

// Refresh re-reads the simulator's current observation state without
// resetting physics and returns it as a First timestep. It is used to
// re-sample observations after external state injection. Calling
// Refresh before any Reset is a sequencing error.
func (a *Adapter) Refresh(forceUpdate bool) (ts.TimeStep, error) {
	if !a.started {
		return ts.TimeStep{}, fmt.Errorf("refresh: no reset before first " +
			"observation refresh")
	}

	rawObs, err := a.sim.Observe(forceUpdate)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("refresh: %v", err)
	}

	obs, err := a.filter(rawObs)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("refresh: %v", err)
	}

	return ts.New(ts.First, 0, 0, obs, a.stepNum), nil
}

// Step forwards the action to the simulator and returns the filtered
// result, tagged Last if the simulator reports termination and Mid
// otherwise
func (a *Adapter) Step(action *tensor.Dense) (ts.TimeStep, error) {
	data, err := tensorutils.Float64Slice(action)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("step: cannot convert action: %v",
			err)
	}

	rawObs, reward, done, err := a.sim.Step(mat.NewVecDense(len(data), data))
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("step: %v", err)
	}

	obs, err := a.filter(rawObs)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("step: %v", err)
	}

	stepType := ts.Mid
	if done {
		stepType = ts.Last
	}
	a.stepNum++
	return ts.New(stepType, reward, 1.0, obs, a.stepNum), nil
}

// ObservationSpec returns a descriptor per retained key, each with the
// key's native shape and dtype, in the configured key order
func (a *Adapter) ObservationSpec() *env.Specs {
	return a.obsSpec
}

// ActionSpec returns the bounded action spec: the simulator's action
// dimensionality and bounds, published as 32-bit float
func (a *Adapter) ActionSpec() env.Spec {
	return a.actionSpec
}

// Keys returns the retained observation keys in order
func (a *Adapter) Keys() []string {
	keys := make([]string, len(a.keys))
	copy(keys, a.keys)
	return keys
}

// Simulator returns the wrapped Simulator, exposing its capabilities
// beyond the Environment interface
func (a *Adapter) Simulator() Simulator {
	return a.sim
}

// filter selects the retained keys out of a raw observation, in order
func (a *Adapter) filter(rawObs *ts.Observation) (*ts.Observation, error) {
	obs := ts.NewObservation()
	for _, key := range a.keys {
		v := rawObs.Get(key)
		if v == nil {
			return nil, fmt.Errorf("filter: simulator did not produce "+
				"observation key %q", key)
		}
		obs.Set(key, v)
	}
	return obs, nil
}
