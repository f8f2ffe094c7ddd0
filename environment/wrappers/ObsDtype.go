package wrappers

import (
	"fmt"

	"gorgonia.org/tensor"

	"github.com/manipenv/manipenv/environment"
	ts "github.com/manipenv/manipenv/timestep"
	"github.com/manipenv/manipenv/utils/tensorutils"
)

// ObsDtype republishes every observation spec entry as 32-bit float
// with its original shape and casts every observation array to float32
// on each Reset and Step. Casts produce new arrays in a new
// observation mapping so nothing aliases the simulator's internal
// buffers.
type ObsDtype struct {
	environment.Environment
	obsSpec *environment.Specs
}

// NewObsDtype returns a new ObsDtype wrapper over env
func NewObsDtype(env environment.Environment) (environment.Environment,
	error) {
	wrappedSpec := env.ObservationSpec()

	obsSpec := environment.NewSpecs()
	for _, key := range wrappedSpec.Keys() {
		spec, _ := wrappedSpec.Get(key)
		obsSpec.Add(key, spec.WithDtype(tensor.Float32))
	}

	return &ObsDtype{Environment: env, obsSpec: obsSpec}, nil
}

// Reset resets the wrapped environment and float-casts the resulting
// observation
func (o *ObsDtype) Reset() (ts.TimeStep, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, err
	}
	return o.transform(step)
}

// Step steps the wrapped environment and float-casts the resulting
// observation
func (o *ObsDtype) Step(action *tensor.Dense) (ts.TimeStep, error) {
	step, err := o.Environment.Step(action)
	if err != nil {
		return ts.TimeStep{}, err
	}
	return o.transform(step)
}

// ObservationSpec returns the wrapped specs with every dtype replaced
// by float32
func (o *ObsDtype) ObservationSpec() *environment.Specs {
	return o.obsSpec
}

// Unwrap returns the wrapped environment
func (o *ObsDtype) Unwrap() environment.Environment {
	return o.Environment
}

func (o *ObsDtype) transform(step ts.TimeStep) (ts.TimeStep, error) {
	obs := ts.NewObservation()
	for _, key := range step.Observation.Keys() {
		cast, err := tensorutils.Cast(step.Observation.Get(key),
			tensor.Float32)
		if err != nil {
			return ts.TimeStep{}, fmt.Errorf("transform: cannot cast "+
				"observation %q: %v", key, err)
		}
		obs.Set(key, cast)
	}

	step.Observation = obs
	return step, nil
}
