package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-amp/common"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraControllerImpl is a free-look controller driven by key presses.
// WASD moves in the horizontal basis, Q and E move along the world vertical, and the arrow keys
// turn the forward vector.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	forward  mgl32.Vec3
	right    mgl32.Vec3
	up       mgl32.Vec3

	step       float32
	turn       float32
	pitchLimit float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a controller at (0, 0, -1) looking down +z, moving 0.1 and
// turning 0.1 radians per key press.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:         &sync.Mutex{},
		position:   mgl32.Vec3{0, 0, -1},
		forward:    mgl32.Vec3{0, 0, 1},
		step:       0.1,
		turn:       0.1,
		pitchLimit: 0.9,
	}
	for _, option := range options {
		option(cc)
	}
	cc.Update()
	return cc
}

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) Forward() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.forward
}

func (cc *cameraControllerImpl) Right() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.right
}

func (cc *cameraControllerImpl) Up() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.up
}

func (cc *cameraControllerImpl) Update() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.right = cc.forward.Cross(worldUp)
	cc.up = cc.right.Cross(cc.forward)
}

func (cc *cameraControllerImpl) HandleKey(keyCode uint32) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	strafe := cc.forward.Cross(worldUp)
	switch keyCode {
	case common.KeyW:
		cc.position = cc.position.Add(cc.forward.Mul(cc.step))
	case common.KeyS:
		cc.position = cc.position.Sub(cc.forward.Mul(cc.step))
	case common.KeyA:
		cc.position = cc.position.Sub(strafe.Mul(cc.step))
	case common.KeyD:
		cc.position = cc.position.Add(strafe.Mul(cc.step))
	case common.KeyQ:
		cc.position = cc.position.Add(worldUp.Mul(cc.step))
	case common.KeyE:
		cc.position = cc.position.Sub(worldUp.Mul(cc.step))
	case common.KeyLeft:
		return cc.rotate(cc.turn, cc.up)
	case common.KeyRight:
		return cc.rotate(-cc.turn, cc.up)
	case common.KeyUp:
		if cc.forward.Dot(worldUp.Mul(-1)) > cc.pitchLimit {
			return false
		}
		return cc.rotate(-cc.turn, cc.right)
	case common.KeyDown:
		if cc.forward.Dot(worldUp) > cc.pitchLimit {
			return false
		}
		return cc.rotate(cc.turn, cc.right)
	default:
		return false
	}
	return true
}

// rotate turns forward by angle radians about axis. A degenerate axis leaves forward unchanged.
func (cc *cameraControllerImpl) rotate(angle float32, axis mgl32.Vec3) bool {
	if axis.Len() == 0 {
		return false
	}
	cc.forward = mgl32.QuatRotate(angle, axis.Normalize()).Rotate(cc.forward).Normalize()
	return true
}
