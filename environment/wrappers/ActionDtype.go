// Package wrappers provides wrappers for environments. Each wrapper
// implements environment.Environment by embedding the Environment it
// wraps and overriding only the operations it transforms, so the full
// capability set of the innermost environment flows through every
// layer of the chain.
package wrappers

import (
	"fmt"

	"gorgonia.org/tensor"

	"github.com/manipenv/manipenv/environment"
	ts "github.com/manipenv/manipenv/timestep"
	"github.com/manipenv/manipenv/utils/tensorutils"
)

// ActionDtype republishes the wrapped environment's action spec in a
// target dtype and, on every Step, casts the incoming action to the
// dtype the wrapped environment natively expects. The published spec
// is the declared contract; the forwarded dtype is the execution
// reality, and the two may legitimately differ.
type ActionDtype struct {
	environment.Environment
	actionSpec environment.Spec
}

// NewActionDtype returns a new ActionDtype wrapper publishing its
// action spec with the given dtype. Only float32 and float64 actions
// are supported.
func NewActionDtype(env environment.Environment,
	dtype tensor.Dtype) (environment.Environment, error) {
	if dtype != tensor.Float32 && dtype != tensor.Float64 {
		return nil, fmt.Errorf("newActionDtype: unsupported action dtype %v",
			dtype)
	}

	return &ActionDtype{
		Environment: env,
		actionSpec:  env.ActionSpec().WithDtype(dtype),
	}, nil
}

// Step casts the action to the wrapped environment's native action
// dtype and forwards it
func (a *ActionDtype) Step(action *tensor.Dense) (ts.TimeStep, error) {
	cast, err := tensorutils.Cast(action, a.Environment.ActionSpec().Dtype)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("step: cannot cast action: %v", err)
	}
	return a.Environment.Step(cast)
}

// ActionSpec returns the action spec in the wrapper's target dtype,
// with the wrapped environment's shape and bounds
func (a *ActionDtype) ActionSpec() environment.Spec {
	return a.actionSpec
}

// Unwrap returns the wrapped environment
func (a *ActionDtype) Unwrap() environment.Environment {
	return a.Environment
}
