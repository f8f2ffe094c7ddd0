package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Spec describes the shape, element type, and (optionally) inclusive
// bounds of an array-valued quantity such as an action or a single
// observation entry. A Spec with nil bounds is unbounded.
//
// Specs are descriptors produced once per wrapper construction; they
// never change across steps.
type Spec struct {
	Shape []int
	Dtype tensor.Dtype
	Name  string

	// Bounds are either nil (unbounded), length 1 (broadcast to every
	// element), or one element per entry of the leading dimension
	LowerBound mat.Vector
	UpperBound mat.Vector
}

// NewSpec constructs a new unbounded Spec describing an array with the
// given shape and element type
func NewSpec(shape []int, dtype tensor.Dtype, name string) Spec {
	if len(shape) == 0 {
		panic(fmt.Sprintf("newSpec: spec %v must have a non-empty shape",
			name))
	}
	return Spec{Shape: cloneShape(shape), Dtype: dtype, Name: name}
}

// NewBoundedSpec constructs a new bounded Spec. The bounds must be
// broadcastable to the spec's shape: either a single element, applied
// to every entry, or one element per entry of the leading dimension.
func NewBoundedSpec(shape []int, dtype tensor.Dtype, name string,
	lowerBound, upperBound mat.Vector) Spec {
	spec := NewSpec(shape, dtype, name)

	if lowerBound == nil || upperBound == nil {
		panic(fmt.Sprintf("newBoundedSpec: spec %v must have both bounds",
			name))
	}
	if lowerBound.Len() != upperBound.Len() {
		panic(fmt.Sprintf("newBoundedSpec: lower bound length %v must match "+
			"upper bound length %v", lowerBound.Len(), upperBound.Len()))
	}
	if lowerBound.Len() != 1 && lowerBound.Len() != shape[0] {
		panic(fmt.Sprintf("newBoundedSpec: bounds length %v not "+
			"broadcastable to shape %v", lowerBound.Len(), shape))
	}

	spec.LowerBound = lowerBound
	spec.UpperBound = upperBound
	return spec
}

// Bounded returns whether the Spec carries value bounds
func (s Spec) Bounded() bool {
	return s.LowerBound != nil && s.UpperBound != nil
}

// WithDtype returns a copy of the Spec with its element type replaced
func (s Spec) WithDtype(dtype tensor.Dtype) Spec {
	s.Shape = cloneShape(s.Shape)
	s.Dtype = dtype
	return s
}

// Zero returns a new zero-valued array with the Spec's shape and
// element type
func (s Spec) Zero() *tensor.Dense {
	return tensor.New(tensor.Of(s.Dtype), tensor.WithShape(s.Shape...))
}

func (s Spec) String() string {
	if s.Bounded() {
		return fmt.Sprintf("Spec | Name: %v  |  Shape: %v  |  Dtype: %v  |  "+
			"Bounds: [%v, %v]", s.Name, s.Shape, s.Dtype,
			mat.Formatted(s.LowerBound.T()), mat.Formatted(s.UpperBound.T()))
	}
	return fmt.Sprintf("Spec | Name: %v  |  Shape: %v  |  Dtype: %v",
		s.Name, s.Shape, s.Dtype)
}

func cloneShape(shape []int) []int {
	clone := make([]int, len(shape))
	copy(clone, shape)
	return clone
}

// Specs is an ordered mapping from observation key to the Spec
// describing that entry. Keys iterate in insertion order.
type Specs struct {
	keys  []string
	specs map[string]Spec
}

// NewSpecs returns a new, empty Specs mapping
func NewSpecs() *Specs {
	return &Specs{
		keys:  make([]string, 0),
		specs: make(map[string]Spec),
	}
}

// Add stores spec under key, appending key to the iteration order if
// it was not already present
func (s *Specs) Add(key string, spec Spec) {
	if _, ok := s.specs[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.specs[key] = spec
}

// Get returns the Spec stored under key
func (s *Specs) Get(key string) (Spec, bool) {
	spec, ok := s.specs[key]
	return spec, ok
}

// Keys returns the mapping's keys in insertion order
func (s *Specs) Keys() []string {
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Len returns the number of entries in the mapping
func (s *Specs) Len() int {
	return len(s.keys)
}
