package wrappers

import (
	"gorgonia.org/tensor"

	"github.com/manipenv/manipenv/environment"
	ts "github.com/manipenv/manipenv/timestep"
)

// ExtendedStep is the outermost pipeline stage. It attaches to every
// timestep the action that produced it, yielding the (step type,
// reward, discount, observation, action) record consumed by training
// code. The First timestep of an episode carries a zero-valued,
// spec-shaped action since no real action produced the initial state,
// and its reward and discount are normalized to 0.0 and 1.0.
type ExtendedStep struct {
	environment.Environment
}

// NewExtendedStep returns a new ExtendedStep wrapper over env
func NewExtendedStep(env environment.Environment) environment.Environment {
	return &ExtendedStep{Environment: env}
}

// Reset resets the wrapped environment and augments the First timestep
// with a zero action
func (e *ExtendedStep) Reset() (ts.TimeStep, error) {
	step, err := e.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, err
	}
	return e.augment(step, nil), nil
}

// Step forwards the action and augments the resulting timestep with
// that same action
func (e *ExtendedStep) Step(action *tensor.Dense) (ts.TimeStep, error) {
	step, err := e.Environment.Step(action)
	if err != nil {
		return ts.TimeStep{}, err
	}
	return e.augment(step, action), nil
}

// Unwrap returns the wrapped environment
func (e *ExtendedStep) Unwrap() environment.Environment {
	return e.Environment
}

func (e *ExtendedStep) augment(step ts.TimeStep,
	action *tensor.Dense) ts.TimeStep {
	if action == nil {
		action = e.ActionSpec().Zero()
	}
	if step.First() {
		// No transition produced the initial state
		step.Reward = 0.0
		step.Discount = 1.0
	}

	step.Action = action
	return step
}
