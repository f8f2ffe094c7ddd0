package wrappers

import (
	"fmt"

	"gorgonia.org/tensor"

	"github.com/manipenv/manipenv/environment"
	ts "github.com/manipenv/manipenv/timestep"
)

// ActionRepeat re-executes each agent-level action for numRepeats
// consecutive simulator transitions. The emitted reward is the
// discounted sum of the inner rewards and the emitted discount the
// product of the inner discounts, preserving the effective return
// under the temporal abstraction. An episode that terminates mid-burst
// stops the burst early.
type ActionRepeat struct {
	environment.Environment
	numRepeats int
}

// NewActionRepeat returns a new ActionRepeat wrapper stepping env
// numRepeats times per action
func NewActionRepeat(env environment.Environment,
	numRepeats int) (environment.Environment, error) {
	if numRepeats < 1 {
		return nil, fmt.Errorf("newActionRepeat: numRepeats must be "+
			"positive, got %v", numRepeats)
	}
	return &ActionRepeat{Environment: env, numRepeats: numRepeats}, nil
}

// Step steps the wrapped environment up to numRepeats times with the
// same action, accumulating reward and compounding discount, and
// returns the last inner timestep with the accumulated values. The
// returned observation is the final inner observation.
func (a *ActionRepeat) Step(action *tensor.Dense) (ts.TimeStep, error) {
	var step ts.TimeStep
	var err error

	reward := 0.0
	discount := 1.0
	for i := 0; i < a.numRepeats; i++ {
		step, err = a.Environment.Step(action)
		if err != nil {
			return ts.TimeStep{}, err
		}

		reward += step.Reward * discount
		discount *= step.Discount
		if step.Last() {
			break
		}
	}

	step.Reward = reward
	step.Discount = discount
	return step, nil
}

// Unwrap returns the wrapped environment
func (a *ActionRepeat) Unwrap() environment.Environment {
	return a.Environment
}
