package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-amp/common"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	fov    float32
	aspect float32
	near   float32
	far    float32

	// modelScale shrinks the mesh from model units into view space.
	modelScale float32

	model      mgl32.Mat4
	view       mgl32.Mat4
	projection mgl32.Mat4

	controller CameraController
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings and computes the model, view and projection matrices
// from an attached CameraController each frame via Update().
type Camera interface {
	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// SetViewport updates the aspect ratio from a framebuffer size. A zero height leaves the
	// aspect unchanged so a minimized window does not produce a degenerate projection.
	//
	// Parameters:
	//   - width: the framebuffer width in pixels
	//   - height: the framebuffer height in pixels
	SetViewport(width, height int)

	// Controller returns the attached CameraController.
	Controller() CameraController

	// Update refreshes the controller's basis and recomputes the matrices.
	// Should be called once per frame before Transform.
	Update()

	// Transform returns the uniform the shaders read, built from the last Update.
	//
	// Returns:
	//   - common.Transform: model, view and projection plus the camera position and direction
	Transform() common.Transform
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with a 45 degree field of view, clip planes at 0.1 and 10000, a
// model scale of 0.005 and a free-look controller at its default pose.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:         &sync.Mutex{},
		fov:        mgl32.DegToRad(45),
		aspect:     16.0 / 9.0,
		near:       0.1,
		far:        10000,
		modelScale: 0.005,
	}
	for _, option := range options {
		option(c)
	}
	if c.controller == nil {
		c.controller = NewCameraController()
	}
	c.Update()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = float32(width) / float32(height)
}

func (c *cameraImpl) Controller() CameraController {
	return c.controller
}

func (c *cameraImpl) Update() {
	c.controller.Update()

	c.mu.Lock()
	defer c.mu.Unlock()
	pos := c.controller.Position()
	fwd := c.controller.Forward()
	c.model = mgl32.Scale3D(c.modelScale, c.modelScale, c.modelScale)
	c.view = mgl32.LookAtV(pos, pos.Add(fwd), worldUp)
	c.projection = common.Perspective(c.fov, c.aspect, c.near, c.far)
}

func (c *cameraImpl) Transform() common.Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.Transform{
		Model:       c.model,
		View:        c.view,
		Projection:  c.projection,
		CameraPos:   c.controller.Position(),
		CameraFront: c.controller.Forward(),
	}
}
