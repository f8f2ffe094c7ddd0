package timestep

import "gorgonia.org/tensor"

// Observation is an ordered mapping from observation key to array
// value. Keys iterate in insertion order, which is stable for the
// lifetime of a wrapped environment.
//
// Observation values may be returned by reference from a simulator's
// internal buffers, so wrappers that rewrite an entry's dtype or layout
// must build a new Observation holding new arrays rather than mutating
// the entries of an earlier one.
type Observation struct {
	keys   []string
	values map[string]*tensor.Dense
}

// NewObservation returns a new, empty Observation
func NewObservation() *Observation {
	return &Observation{
		keys:   make([]string, 0),
		values: make(map[string]*tensor.Dense),
	}
}

// Set stores value under key, appending key to the iteration order if
// it was not already present
func (o *Observation) Set(key string, value *tensor.Dense) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key, or nil if key is not present
func (o *Observation) Get(key string) *tensor.Dense {
	return o.values[key]
}

// Has returns whether key is present in the Observation
func (o *Observation) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Keys returns the Observation's keys in insertion order
func (o *Observation) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Len returns the number of entries in the Observation
func (o *Observation) Len() int {
	return len(o.keys)
}

// Clone returns a new Observation with the same keys in the same order.
// The entry arrays themselves are shared, not copied.
func (o *Observation) Clone() *Observation {
	clone := NewObservation()
	for _, key := range o.keys {
		clone.Set(key, o.values[key])
	}
	return clone
}
