// Package suite adapts a raw manipulation simulator into the stepping
// Environment interface the wrapper pipeline composes over.
package suite

import (
	"gonum.org/v1/gonum/mat"

	"github.com/manipenv/manipenv/timestep"
)

// Simulator is the contract the physics side must provide. A Simulator
// produces raw per-step observation dictionaries, scalar rewards, and
// termination flags; it has no native discount concept.
//
// Implementations live outside this package (see
// environment/planarsim for the in-tree reference implementation).
type Simulator interface {
	// Reset performs a full physics reset and returns the raw
	// observations of the new initial state
	Reset() (*timestep.Observation, error)

	// Observe re-reads the current raw observations without resetting
	// physics. If forceUpdate is true, all observables recompute their
	// values first; this is used to re-sample observations after
	// directly setting simulation state.
	Observe(forceUpdate bool) (*timestep.Observation, error)

	// Step advances the simulation by one control step
	Step(action *mat.VecDense) (obs *timestep.Observation, reward float64,
		done bool, err error)

	// ObservationSpec returns a sample raw observation whose entries
	// carry the native shape and dtype of every available key
	ObservationSpec() *timestep.Observation

	// ActionBounds returns the per-element inclusive action bounds
	ActionBounds() (minimum, maximum *mat.VecDense)

	// ActionDim returns the simulator's action dimensionality
	ActionDim() int

	// CameraNames returns the names of the simulator's cameras
	CameraNames() []string

	// NumRobots returns the number of controlled robots
	NumRobots() int

	UsesObjectObs() bool
	UsesCameraObs() bool
	UsesTouchObs() bool
}
