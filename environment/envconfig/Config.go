// Package envconfig provides configuration structs for constructing
// fully wrapped environments. Environment configurations in this
// package are JSON serializable.
package envconfig

import (
	"fmt"

	"gorgonia.org/tensor"

	env "github.com/manipenv/manipenv/environment"
	"github.com/manipenv/manipenv/environment/planarsim"
	"github.com/manipenv/manipenv/environment/suite"
	"github.com/manipenv/manipenv/environment/wrappers"
)

// TaskName stores the names of simulator tasks that can be configured
// with this package
type TaskName string

// Tasks available for configuration
const (
	Push TaskName = "Push"
)

// Dtype names recognized for the ActionDtype option
const (
	Float32 string = "float32"
	Float64 string = "float64"
)

// Config describes a fully wrapped environment: which simulator task
// to build, which observation modalities to enable, and the pipeline
// parameters.
//
// The assembled chain is
//
//	suite.Adapter -> ActionDtype -> ActionRepeat -> FrameStack ->
//	ExtendedStep
//
// Action repetition runs beneath frame stacking so the frame history
// holds one frame per agent-level step. When FrameStack is 0, an
// ObsDtype wrapper takes the stacker's place so observations are still
// float-normalized.
type Config struct {
	Task          TaskName
	UseCameraObs  bool
	UseObjectObs  bool
	UseTouchObs   bool
	EpisodeCutoff uint

	// ObservationKeys overrides the default retained keys when set
	ObservationKeys []string

	FrameStack   uint
	ActionRepeat uint
	ActionDtype  string
	Seed         uint64
}

// NewConfig returns a new environment Config with the default float32
// action dtype
func NewConfig(task TaskName, useCameraObs, useObjectObs, useTouchObs bool,
	episodeCutoff, frameStack, actionRepeat uint, seed uint64) Config {
	return Config{
		Task:          task,
		UseCameraObs:  useCameraObs,
		UseObjectObs:  useObjectObs,
		UseTouchObs:   useTouchObs,
		EpisodeCutoff: episodeCutoff,
		FrameStack:    frameStack,
		ActionRepeat:  actionRepeat,
		ActionDtype:   Float32,
		Seed:          seed,
	}
}

// Keys returns the observation keys the adapter will retain: the
// explicit ObservationKeys when set, otherwise the robot
// proprioceptive state plus the modalities enabled by the flags
func (c Config) Keys() []string {
	if len(c.ObservationKeys) != 0 {
		keys := make([]string, len(c.ObservationKeys))
		copy(keys, c.ObservationKeys)
		return keys
	}

	// Always include robot proprioceptive states
	keys := []string{planarsim.ProprioKey}
	if c.UseCameraObs {
		keys = append(keys, planarsim.ImageKey)
	}
	if c.UseObjectObs {
		keys = append(keys, planarsim.ObjectKey)
	}
	if c.UseTouchObs {
		keys = append(keys, planarsim.TouchKey)
	}
	return keys
}

// Wrap assembles the full wrapper pipeline over sim
func (c Config) Wrap(sim suite.Simulator) (env.Environment, error) {
	adapted, err := suite.New(sim, c.Keys()...)
	if err != nil {
		return nil, fmt.Errorf("wrap: %v", err)
	}

	dtype, err := c.actionDtype()
	if err != nil {
		return nil, fmt.Errorf("wrap: %v", err)
	}

	wrapped, err := wrappers.NewActionDtype(adapted, dtype)
	if err != nil {
		return nil, fmt.Errorf("wrap: %v", err)
	}

	if c.ActionRepeat > 1 {
		wrapped, err = wrappers.NewActionRepeat(wrapped, int(c.ActionRepeat))
		if err != nil {
			return nil, fmt.Errorf("wrap: %v", err)
		}
	}

	if c.FrameStack > 0 {
		wrapped, err = wrappers.NewFrameStack(wrapped, int(c.FrameStack))
	} else {
		wrapped, err = wrappers.NewObsDtype(wrapped)
	}
	if err != nil {
		return nil, fmt.Errorf("wrap: %v", err)
	}

	return wrappers.NewExtendedStep(wrapped), nil
}

// Create builds the simulator described by the Config and returns the
// fully wrapped environment
func (c Config) Create() (env.Environment, error) {
	switch c.Task {
	case Push:
		sim, err := planarsim.New(c.UseCameraObs, c.UseObjectObs,
			c.UseTouchObs, int(c.EpisodeCutoff), c.Seed)
		if err != nil {
			return nil, fmt.Errorf("create: %v", err)
		}
		return c.Wrap(sim)
	}

	return nil, fmt.Errorf("create: cannot create environment %v, no such "+
		"task", c.Task)
}

func (c Config) actionDtype() (tensor.Dtype, error) {
	switch c.ActionDtype {
	case Float32, "":
		return tensor.Float32, nil
	case Float64:
		return tensor.Float64, nil
	}
	return tensor.Dtype{}, fmt.Errorf("actionDtype: unsupported dtype %q",
		c.ActionDtype)
}
