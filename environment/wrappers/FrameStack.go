package wrappers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/manipenv/manipenv/environment"
	ts "github.com/manipenv/manipenv/timestep"
	"github.com/manipenv/manipenv/utils/tensorutils"
)

// FrameStack maintains a bounded rolling history of the most recent
// image observation and exposes the last N frames as extra channels,
// in channel-first layout. Vector observations are cast to float32.
//
// At most one observation entry may be multi-dimensional; that entry
// is taken to be the image. Reset seeds the history with N copies of
// the initial frame so a complete stack is always available; Step
// pushes the newest frame and evicts the oldest. The history buffer is
// owned exclusively by the wrapper and holds frames already copied out
// of the simulator's buffers.
//
// If the wrapped observation contains no multi-dimensional entry,
// stacking is a pass-through and only the float32 normalization
// applies.
type FrameStack struct {
	environment.Environment
	numFrames int
	imageKey  string
	frames    []*tensor.Dense
	obsSpec   *environment.Specs
	started   bool
}

// NewFrameStack returns a new FrameStack exposing the last numFrames
// image observations of env. The stacked image spec has its channel
// count multiplied by numFrames, spatial dimensions unchanged, dtype
// fixed to uint8 with bounds [0, 255].
func NewFrameStack(env environment.Environment,
	numFrames int) (*FrameStack, error) {
	if numFrames < 1 {
		return nil, fmt.Errorf("newFrameStack: numFrames must be positive, "+
			"got %v", numFrames)
	}

	wrappedSpec := env.ObservationSpec()
	obsSpec := environment.NewSpecs()
	imageKey := ""

	for _, key := range wrappedSpec.Keys() {
		spec, _ := wrappedSpec.Get(key)
		if len(spec.Shape) <= 1 {
			obsSpec.Add(key, spec.WithDtype(tensor.Float32))
			continue
		}

		if imageKey != "" {
			return nil, fmt.Errorf("newFrameStack: multiple image "+
				"observations (%q and %q)", imageKey, key)
		}
		imageKey = key

		imageShape := spec.Shape
		if len(imageShape) == 4 {
			// A leading batch dimension is stripped from each frame
			imageShape = imageShape[1:]
		}
		if len(imageShape) != 3 {
			return nil, fmt.Errorf("newFrameStack: image observation %q "+
				"must have shape [height, width, channels], got %v", key,
				spec.Shape)
		}

		obsSpec.Add(key, environment.NewBoundedSpec(
			[]int{imageShape[2] * numFrames, imageShape[0], imageShape[1]},
			tensor.Uint8,
			key,
			mat.NewVecDense(1, []float64{0}),
			mat.NewVecDense(1, []float64{255}),
		))
	}

	return &FrameStack{
		Environment: env,
		numFrames:   numFrames,
		imageKey:    imageKey,
		frames:      make([]*tensor.Dense, 0, numFrames),
		obsSpec:     obsSpec,
	}, nil
}

// Reset resets the wrapped environment, seeds the frame history with
// numFrames copies of the initial image, and returns the transformed
// First timestep
func (f *FrameStack) Reset() (ts.TimeStep, error) {
	step, err := f.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, err
	}

	if f.imageKey != "" {
		frame, err := f.extractImage(step)
		if err != nil {
			return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
		}
		f.frames = f.frames[:0]
		for i := 0; i < f.numFrames; i++ {
			f.frames = append(f.frames, frame)
		}
	}

	f.started = true
	return f.transform(step)
}

// Step steps the wrapped environment, pushes the new image frame into
// the history, and returns the transformed timestep. Stepping before
// any Reset is a sequencing error.
func (f *FrameStack) Step(action *tensor.Dense) (ts.TimeStep, error) {
	if !f.started {
		return ts.TimeStep{}, fmt.Errorf("step: no reset before first step")
	}

	step, err := f.Environment.Step(action)
	if err != nil {
		return ts.TimeStep{}, err
	}

	if f.imageKey != "" {
		frame, err := f.extractImage(step)
		if err != nil {
			return ts.TimeStep{}, fmt.Errorf("step: %v", err)
		}
		copy(f.frames, f.frames[1:])
		f.frames[f.numFrames-1] = frame
	}

	return f.transform(step)
}

// ObservationSpec returns the wrapped specs with the image entry
// replaced by its channel-stacked spec and every other entry cast to
// float32
func (f *FrameStack) ObservationSpec() *environment.Specs {
	return f.obsSpec
}

// Unwrap returns the wrapped environment
func (f *FrameStack) Unwrap() environment.Environment {
	return f.Environment
}

// extractImage copies the image entry out of a timestep, stripping a
// batch dimension if present and transposing to channel-first layout
func (f *FrameStack) extractImage(step ts.TimeStep) (*tensor.Dense, error) {
	image := step.Observation.Get(f.imageKey)
	if image == nil {
		return nil, fmt.Errorf("extractImage: observation missing image "+
			"key %q", f.imageKey)
	}

	image, err := tensorutils.StripBatch(image)
	if err != nil {
		return nil, fmt.Errorf("extractImage: %v", err)
	}

	frame, err := tensorutils.ChannelFirst(image)
	if err != nil {
		return nil, fmt.Errorf("extractImage: %v", err)
	}
	return frame, nil
}

// transform replaces the timestep's observation mapping: the image
// entry holds the channel-stacked history, every other entry its
// float32-cast value
func (f *FrameStack) transform(step ts.TimeStep) (ts.TimeStep, error) {
	obs := ts.NewObservation()
	for _, key := range step.Observation.Keys() {
		if key == f.imageKey {
			stacked, err := tensorutils.ConcatChannels(f.frames)
			if err != nil {
				return ts.TimeStep{}, fmt.Errorf("transform: %v", err)
			}
			obs.Set(key, stacked)
			continue
		}

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
