package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring a camera controller.
type CameraControllerOption func(*cameraControllerImpl)

// WithPosition sets the controller's starting position.
//
// Parameters:
//   - x, y, z: the position
//
// Returns:
//   - CameraControllerOption: a function that sets the position
func WithPosition(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position = mgl32.Vec3{x, y, z}
	}
}

// WithForward sets the controller's starting direction. The vector is normalized.
//
// Parameters:
//   - x, y, z: the direction
//
// Returns:
//   - CameraControllerOption: a function that sets the direction
func WithForward(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		if v := (mgl32.Vec3{x, y, z}); v.Len() > 0 {
			cc.forward = v.Normalize()
		}
	}
}

// WithStep sets how far one movement key press translates the camera.
//
// Parameters:
//   - step: the distance per press
//
// Returns:
//   - CameraControllerOption: a function that sets the step
func WithStep(step float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.step = step
	}
}

// WithTurn sets how far one arrow key press rotates the camera.
//
// Parameters:
//   - angle: the rotation per press in radians
//
// Returns:
//   - CameraControllerOption: a function that sets the turn angle
func WithTurn(angle float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.turn = angle
	}
}

// WithPitchLimit sets how close to straight up or down the camera may look, as the largest
// allowed dot product between forward and the vertical axis.
//
// Parameters:
//   - limit: a value in (0, 1)
//
// Returns:
//   - CameraControllerOption: a function that sets the pitch limit
func WithPitchLimit(limit float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.pitchLimit = limit
	}
}
