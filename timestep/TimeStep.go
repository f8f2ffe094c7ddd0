// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gorgonia.org/tensor"
)

// StepType denotes the type of step that a TimeStep can be, either the first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single timestep in an environment. A
// TimeStep is a value: wrappers that transform one never modify it in
// place but copy it and override the fields they rewrite, since earlier
// pipeline stages or callers may retain the original.
//
// First steps carry zero-valued reward and discount since no transition
// produced them; the outermost wrapper normalizes these (see
// wrappers.ExtendedStep). Action is the action that caused the
// transition into this step and is nil until attached by the outermost
// wrapper.
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Discount    float64
	Observation *Observation
	Action      *tensor.Dense
	Number      int
}

func New(t StepType, r, d float64, o *Observation, n int) TimeStep {
	return TimeStep{StepType: t, Reward: r, Discount: d, Observation: o,
		Number: n}
}

// First returns whether a TimeStep is the first in an environment
func (t TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t TimeStep) Last() bool {
	return t.StepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number)
}
