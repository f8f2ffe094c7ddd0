// Package environment outlines the interfaces and structs needed to
// implement and compose stepping environments
package environment

import (
	"gorgonia.org/tensor"

	"github.com/manipenv/manipenv/timestep"
)

// Environment is the common contract shared by a wrapped simulator and
// every wrapper stacked on top of it. An Environment steps one episode
// at a time: Reset starts a new episode and returns its First timestep,
// Step advances the episode by one transition. Stepping after a Last
// timestep without an intervening Reset is undefined behavior the
// contract does not guard against.
//
// Wrappers implement Environment by embedding the Environment they
// wrap and overriding only the operations they transform; everything
// else routes through the embedded value unchanged. Capabilities beyond
// this interface are reached by walking Unwrap (see Unwrapper).
//
// Environments are single-owner and not safe for concurrent use: each
// instance maintains one logical current episode of mutable state.
// Parallel rollouts require independently constructed wrapper chains.
type Environment interface {
	Reset() (timestep.TimeStep, error)
	Step(action *tensor.Dense) (timestep.TimeStep, error)
	ObservationSpec() *Specs
	ActionSpec() Spec
}

// Unwrapper is implemented by wrappers that can expose the Environment
// they wrap
type Unwrapper interface {
	Unwrap() Environment
}

// Unwrap returns the Environment wrapped by env, or nil if env is not
// a wrapper
func Unwrap(env Environment) Environment {
	if u, ok := env.(Unwrapper); ok {
		return u.Unwrap()
	}
	return nil
}

// Base walks the wrapper chain and returns the innermost Environment
func Base(env Environment) Environment {
	for {
		inner := Unwrap(env)
		if inner == nil {
			return env
		}
		env = inner
	}
}
