// Package planarsim implements a small top-down planar pushing
// simulator used as the reference Simulator for the wrapper pipeline.
//
// A disc-shaped effector is driven by planar forces and must push a
// block into a goal region. The simulator produces the raw observation
// dictionary the suite.Adapter filters: proprioceptive effector state,
// object state, touch state, and a rendered camera image, gated by the
// construction flags.
package planarsim

import (
	"fmt"
	"image/color"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/fogleman/gg"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/tensor"

	ts "github.com/manipenv/manipenv/timestep"
	"github.com/manipenv/manipenv/utils/floatutils"
)

const (
	// World is the square [0, WorldSize] x [0, WorldSize], in meters
	WorldSize float64 = 5.0

	// Physics stepping
	Dt                 float64 = 0.02
	VelocityIterations int     = 8
	PositionIterations int     = 3

	// Body geometry
	EffectorRadius float64 = 0.15
	BlockHalfWidth float64 = 0.2
	GoalRadius     float64 = 0.4

	// Force actions are clipped to +/- MaxForce per axis
	MaxForce  float64 = 10.0
	ActionDim int     = 2

	// Camera image dimensions
	ImageHeight   int = 84
	ImageWidth    int = 84
	ImageChannels int = 3
)

// Observation keys produced by the simulator
const (
	ProprioKey string = "robot0_proprio-state"
	ObjectKey  string = "object-state"
	TouchKey   string = "robot0_touch-state"
	ImageKey   string = "agentview_image"
)

// contactDetector tracks whether the effector is touching the block
type contactDetector struct {
	sim *PlanarSim
}

func newContactDetector(s *PlanarSim) *contactDetector {
	return &contactDetector{s}
}

func (c *contactDetector) BeginContact(contact box2d.B2ContactInterface) {
	if c.involvesEffectorAndBlock(contact) {
		c.sim.touching = true
	}
}

func (c *contactDetector) EndContact(contact box2d.B2ContactInterface) {
	if c.involvesEffectorAndBlock(contact) {
		c.sim.touching = false
	}
}

func (c *contactDetector) PreSolve(contact box2d.B2ContactInterface,
	oldManifold box2d.B2Manifold) {
}

func (c *contactDetector) PostSolve(contact box2d.B2ContactInterface,
	impulse *box2d.B2ContactImpulse) {
}

func (c *contactDetector) involvesEffectorAndBlock(
	contact box2d.B2ContactInterface) bool {
	bodyA := contact.GetFixtureA().GetBody()
	bodyB := contact.GetFixtureB().GetBody()

	return (bodyA == c.sim.effector && bodyB == c.sim.block) ||
		(bodyA == c.sim.block && bodyB == c.sim.effector)
}

// PlanarSim is a top-down planar pushing simulator. It implements
// suite.Simulator.
type PlanarSim struct {
	world    box2d.B2World
	boundary []*box2d.B2Body
	effector *box2d.B2Body
	block    *box2d.B2Body
	goal     [2]float64

	touching bool
	steps    int
	cutoff   int

	useCamera bool
	useObject bool
	useTouch  bool

	rng distuv.Uniform

	backgroundShade color.RGBA
	goalShade       color.RGBA
	blockShade      color.RGBA
	effectorShade   color.RGBA
}

// New returns a new PlanarSim. The flags control which raw observation
// keys the simulator produces; cutoff is the episode step limit.
func New(useCamera, useObject, useTouch bool, cutoff int,
	seed uint64) (*PlanarSim, error) {
	if cutoff < 1 {
		return nil, fmt.Errorf("new: cutoff must be positive, got %v", cutoff)
	}

	s := &PlanarSim{
		// Top-down view, no gravity in the plane
		world:     box2d.MakeB2World(box2d.B2Vec2{X: 0.0, Y: 0.0}),
		goal:      [2]float64{WorldSize * 0.8, WorldSize * 0.8},
		cutoff:    cutoff,
		useCamera: useCamera,
		useObject: useObject,
		useTouch:  useTouch,

		backgroundShade: color.RGBA{R: 30, G: 30, B: 30, A: 255},
		goalShade:       color.RGBA{R: 77, G: 179, B: 77, A: 255},
		blockShade:      color.RGBA{R: 255, G: 166, B: 0, A: 255},
		effectorShade:   color.RGBA{R: 128, G: 102, B: 230, A: 255},
	}

	src := rand.NewSource(seed)
	s.rng = distuv.Uniform{Min: 0.0, Max: 1.0, Src: src}

	s.createBoundary()
	s.createEffector()
	s.createBlock()
	s.world.SetContactListener(newContactDetector(s))

	if _, err := s.Reset(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	return s, nil
}

// Reset places the effector at the center of the workspace and the
// block at a random position, zeroes all velocities, and returns the
// raw observations of the new initial state
func (s *PlanarSim) Reset() (*ts.Observation, error) {
	s.steps = 0
	s.touching = false

	s.effector.SetTransform(
		box2d.MakeB2Vec2(WorldSize/2, WorldSize/2), 0.0)
	s.effector.SetLinearVelocity(box2d.MakeB2Vec2(0.0, 0.0))
	s.effector.SetAngularVelocity(0.0)

	blockRange := r1.Interval{
		Min: WorldSize * 0.2,
		Max: WorldSize * 0.6,
	}
	blockX := blockRange.Min + s.rng.Rand()*(blockRange.Max-blockRange.Min)
	blockY := blockRange.Min + s.rng.Rand()*(blockRange.Max-blockRange.Min)

	s.block.SetTransform(box2d.MakeB2Vec2(blockX, blockY), 0.0)
	s.block.SetLinearVelocity(box2d.MakeB2Vec2(0.0, 0.0))
	s.block.SetAngularVelocity(0.0)

	return s.Observe(false)
}

// Observe returns the raw observations of the current simulation
// state. Observations are computed fresh on every call, so forceUpdate
// has no additional effect here; it exists for simulators that cache
// observables.
func (s *PlanarSim) Observe(forceUpdate bool) (*ts.Observation, error) {
	_ = forceUpdate

	obs := ts.NewObservation()

	effectorPos := s.effector.GetPosition()
	effectorVel := s.effector.GetLinearVelocity()
	obs.Set(ProprioKey, tensor.New(tensor.WithShape(4), tensor.WithBacking(
		[]float64{effectorPos.X, effectorPos.Y, effectorVel.X,
			effectorVel.Y})))

	if s.useObject {
		blockPos := s.block.GetPosition()
		blockVel := s.block.GetLinearVelocity()
		obs.Set(ObjectKey, tensor.New(tensor.WithShape(6),
			tensor.WithBacking([]float64{
				blockPos.X, blockPos.Y, blockVel.X, blockVel.Y,
				blockPos.X - effectorPos.X, blockPos.Y - effectorPos.Y,
			})))
	}

	if s.useTouch {
		touch := 0.0
		if s.touching {
			touch = 1.0
		}
		obs.Set(TouchKey, tensor.New(tensor.WithShape(1),
			tensor.WithBacking([]float64{touch})))
	}

	if s.useCamera {
		obs.Set(ImageKey, s.render())
	}

	return obs, nil
}

// Step applies the planar force action to the effector, advances
// physics by one control step, and returns the raw observations, the
// reward, and whether the episode ended
func (s *PlanarSim) Step(action *mat.VecDense) (*ts.Observation, float64,
	bool, error) {
	if action.Len() != ActionDim {
		return nil, 0, false, fmt.Errorf("step: invalid action dimensions "+
			"\n\thave(%v) \n\twant(%v)", action.Len(), ActionDim)
	}

	force := box2d.MakeB2Vec2(
		floatutils.Clip(action.AtVec(0), -MaxForce, MaxForce),
		floatutils.Clip(action.AtVec(1), -MaxForce, MaxForce),
	)
	s.effector.ApplyForceToCenter(force, true)
	s.world.Step(Dt, VelocityIterations, PositionIterations)
	s.steps++

	obs, err := s.Observe(false)
	if err != nil {
		return nil, 0, false, fmt.Errorf("step: %v", err)
	}

	dist := s.blockToGoalDistance()
	reward := -dist
	done := dist <= GoalRadius || s.steps >= s.cutoff

	return obs, reward, done, nil
}

// ObservationSpec returns a sample raw observation describing the
// native shape and dtype of every available key
func (s *PlanarSim) ObservationSpec() *ts.Observation {
	obs, err := s.Observe(false)
	if err != nil {
		panic(fmt.Sprintf("observationSpec: %v", err))
	}
	return obs
}

// ActionBounds returns the per-axis force bounds
func (s *PlanarSim) ActionBounds() (*mat.VecDense, *mat.VecDense) {
	minimum := mat.NewVecDense(ActionDim, []float64{-MaxForce, -MaxForce})
	maximum := mat.NewVecDense(ActionDim, []float64{MaxForce, MaxForce})
	return minimum, maximum
}

// ActionDim returns the simulator's action dimensionality
func (s *PlanarSim) ActionDim() int {
	return ActionDim
}

// CameraNames returns the simulator's camera names
func (s *PlanarSim) CameraNames() []string {
	return []string{"agentview"}
}

// NumRobots returns the number of controlled robots
func (s *PlanarSim) NumRobots() int {
	return 1
}

// UsesObjectObs returns whether object observations are produced
func (s *PlanarSim) UsesObjectObs() bool {
	return s.useObject
}

// UsesCameraObs returns whether camera observations are produced
func (s *PlanarSim) UsesCameraObs() bool {
	return s.useCamera
}

// UsesTouchObs returns whether touch observations are produced
func (s *PlanarSim) UsesTouchObs() bool {
	return s.useTouch
}

// SetBlockPosition teleports the block, modelling external state
// injection. Pair with (*suite.Adapter).Refresh to re-sample
// observations without resetting physics.
func (s *PlanarSim) SetBlockPosition(x, y float64) {
	span := r1.Interval{Min: BlockHalfWidth, Max: WorldSize - BlockHalfWidth}
	s.block.SetTransform(box2d.MakeB2Vec2(
		floatutils.ClipInterval(x, span),
		floatutils.ClipInterval(y, span),
	), s.block.GetAngle())
	s.block.SetLinearVelocity(box2d.MakeB2Vec2(0.0, 0.0))
}

// Steps returns the number of control steps taken this episode
func (s *PlanarSim) Steps() int {
	return s.steps
}

func (s *PlanarSim) blockToGoalDistance() float64 {
	blockPos := s.block.GetPosition()
	return math.Hypot(blockPos.X-s.goal[0], blockPos.Y-s.goal[1])
}

// createBoundary walls the workspace with four static edges
func (s *PlanarSim) createBoundary() {
	corners := [][2]float64{
		{0.0, 0.0},
		{WorldSize, 0.0},
		{WorldSize, WorldSize},
		{0.0, WorldSize},
	}

	s.boundary = make([]*box2d.B2Body, 4)
	for i := 0; i < 4; i++ {
		boundsDef := box2d.NewB2BodyDef()
		s.boundary[i] = s.world.CreateBody(boundsDef)

		from := corners[i]
		to := corners[(i+1)%4]
		boundsShape := box2d.NewB2EdgeShape()
		boundsShape.Set(box2d.MakeB2Vec2(from[0], from[1]),
			box2d.MakeB2Vec2(to[0], to[1]))

		boundsFix := box2d.MakeB2FixtureDef()
		boundsFix.Shape = boundsShape
		boundsFix.Friction = 0.1
		s.boundary[i].CreateFixtureFromDef(&boundsFix)
	}
}

func (s *PlanarSim) createEffector() {
	effectorDef := box2d.MakeB2BodyDef()
	effectorDef.Type = 2 // Dynamic body
	effectorDef.Position = box2d.MakeB2Vec2(WorldSize/2, WorldSize/2)
	effectorDef.LinearDamping = 2.0
	s.effector = s.world.CreateBody(&effectorDef)

	effectorShape := box2d.NewB2CircleShape()
	effectorShape.M_radius = EffectorRadius

	effectorFix := box2d.MakeB2FixtureDef()
	effectorFix.Shape = effectorShape
	effectorFix.Density = 5.0
	effectorFix.Friction = 0.3
	effectorFix.Restitution = 0.0
	s.effector.CreateFixtureFromDef(&effectorFix)
}

func (s *PlanarSim) createBlock() {
	blockDef := box2d.MakeB2BodyDef()
	blockDef.Type = 2 // Dynamic body
	blockDef.Position = box2d.MakeB2Vec2(WorldSize/2, WorldSize/2)
	blockDef.LinearDamping = 4.0
	blockDef.AngularDamping = 4.0
	s.block = s.world.CreateBody(&blockDef)

	blockShape := box2d.NewB2PolygonShape()
	blockShape.SetAsBox(BlockHalfWidth, BlockHalfWidth)

	blockFix := box2d.MakeB2FixtureDef()
	blockFix.Shape = blockShape
	blockFix.Density = 1.0
	blockFix.Friction = 0.3
	blockFix.Restitution = 0.0
	s.block.CreateFixtureFromDef(&blockFix)
}

// render draws the agentview camera image and returns it as a
// [height, width, channels] uint8 tensor
func (s *PlanarSim) render() *tensor.Dense {
	dc := gg.NewContext(ImageWidth, ImageHeight)
	dc.SetColor(s.backgroundShade)
	dc.Clear()

	// Goal region
	goalX, goalY := s.worldToPixel(s.goal[0], s.goal[1])
	dc.SetColor(s.goalShade)
	dc.DrawCircle(goalX, goalY, GoalRadius*float64(ImageWidth)/WorldSize)
	dc.Fill()

	// Block, rotated about its center
	blockPos := s.block.GetPosition()
	blockX, blockY := s.worldToPixel(blockPos.X, blockPos.Y)
	halfWidth := BlockHalfWidth * float64(ImageWidth) / WorldSize
	dc.Push()
	dc.RotateAbout(-s.block.GetAngle(), blockX, blockY)
	dc.SetColor(s.blockShade)
	dc.DrawRectangle(blockX-halfWidth, blockY-halfWidth, 2*halfWidth,
		2*halfWidth)
	dc.Fill()
	dc.Pop()

	// Effector
	effectorPos := s.effector.GetPosition()
	effectorX, effectorY := s.worldToPixel(effectorPos.X, effectorPos.Y)
	dc.SetColor(s.effectorShade)
	dc.DrawCircle(effectorX, effectorY,
		EffectorRadius*float64(ImageWidth)/WorldSize)
	dc.Fill()

	img := dc.Image()
	pixels := make([]uint8, 0, ImageHeight*ImageWidth*ImageChannels)
	for y := 0; y < ImageHeight; y++ {
		for x := 0; x < ImageWidth; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pixels = append(pixels, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}

	return tensor.New(
		tensor.WithShape(ImageHeight, ImageWidth, ImageChannels),
		tensor.WithBacking(pixels))
}

// worldToPixel converts world coordinates to image coordinates, with
// the y axis flipped
func (s *PlanarSim) worldToPixel(x, y float64) (float64, float64) {
	pixelX := x / WorldSize * float64(ImageWidth)
	pixelY := float64(ImageHeight) - y/WorldSize*float64(ImageHeight)
	return pixelX, pixelY
}
