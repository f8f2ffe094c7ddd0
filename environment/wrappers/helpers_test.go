package wrappers

import (
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/manipenv/manipenv/environment"
	ts "github.com/manipenv/manipenv/timestep"
)

// stubEnv is a deterministic inner environment for wrapper tests. It
// produces a float64 vector observation and, when imageSize > 0, a
// square single-channel uint8 image whose every pixel equals the
// current step count, so frames from different steps are
// distinguishable.
type stubEnv struct {
	reward    float64
	discount  float64
	doneAt    int // step count at which Last is reported; 0 to disable
	imageSize int

	steps      int
	resets     int
	lastAction *tensor.Dense
}

func newStubEnv(reward, discount float64, doneAt, imageSize int) *stubEnv {
	return &stubEnv{
		reward:    reward,
		discount:  discount,
		doneAt:    doneAt,
		imageSize: imageSize,
	}
}

func (s *stubEnv) Reset() (ts.TimeStep, error) {
	s.steps = 0
	s.resets++
	return ts.New(ts.First, 0, 0, s.observation(), 0), nil
}

func (s *stubEnv) Step(action *tensor.Dense) (ts.TimeStep, error) {
	s.steps++
	s.lastAction = action

	stepType := ts.Mid
	if s.doneAt > 0 && s.steps >= s.doneAt {
		stepType = ts.Last
	}
	return ts.New(stepType, s.reward, s.discount, s.observation(),
		s.steps), nil
}

func (s *stubEnv) ObservationSpec() *environment.Specs {
	specs := environment.NewSpecs()
	specs.Add("proprio", environment.NewSpec([]int{2}, tensor.Float64,
		"proprio"))
	if s.imageSize > 0 {
		specs.Add("image", environment.NewSpec(
			[]int{s.imageSize, s.imageSize, 1}, tensor.Uint8, "image"))
	}
	return specs
}

func (s *stubEnv) ActionSpec() environment.Spec {
	return environment.NewBoundedSpec([]int{2}, tensor.Float64, "action",
		mat.NewVecDense(2, []float64{-1, -1}),
		mat.NewVecDense(2, []float64{1, 1}))
}

func (s *stubEnv) observation() *ts.Observation {
	obs := ts.NewObservation()
	obs.Set("proprio", tensor.New(tensor.WithShape(2), tensor.WithBacking(
		[]float64{float64(s.steps), float64(s.steps) * 2})))
	if s.imageSize > 0 {
		obs.Set("image", s.frame(uint8(s.steps)))
	}
	return obs
}

func (s *stubEnv) frame(value uint8) *tensor.Dense {
	pixels := make([]uint8, s.imageSize*s.imageSize)
	for i := range pixels {
		pixels[i] = value
	}
	return tensor.New(tensor.WithShape(s.imageSize, s.imageSize, 1),
		tensor.WithBacking(pixels))
}
