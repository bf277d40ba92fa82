package camera

import "github.com/go-gl/mathgl/mgl32"

// worldUp is the fixed up axis the controller's basis is built against.
var worldUp = mgl32.Vec3{0, 1, 0}

// CameraController defines the interface for camera positioning and movement.
// A controller owns the camera's position and facing; the Camera reads both each frame.
type CameraController interface {
	// Position returns the camera position in view space.
	Position() mgl32.Vec3

	// Forward returns the unit direction the camera faces.
	Forward() mgl32.Vec3

	// Right returns forward x worldUp as of the last Update.
	Right() mgl32.Vec3

	// Up returns right x forward as of the last Update.
	Up() mgl32.Vec3

	// HandleKey applies one key press or repeat.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	//
	// Returns:
	//   - bool: true if the key moved or turned the camera
	HandleKey(keyCode uint32) bool

	// Update recomputes right and up from the current forward vector.
	Update()
}
