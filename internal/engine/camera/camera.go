// Package camera provides camera implementations for 3D rendering.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center mgl32.Vec3

	// Spherical coordinates
	Distance float32 // Distance from center
	Pitch    float32 // Vertical angle, radians
	Yaw      float32 // Horizontal angle, radians

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates an orbit camera at distance from the origin.
func NewOrbitCamera(distance float32) *OrbitCamera {
	return &OrbitCamera{
		Distance:        distance,
		Pitch:           0.25,
		MinDistance:     distance / 20,
		MaxDistance:     distance * 20,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	sinP, cosP := math.Sincos(float64(c.Pitch))
	sinY, cosY := math.Sincos(float64(c.Yaw))
	offset := mgl32.Vec3{
		float32(cosP * sinY),
		float32(sinP),
		float32(cosP * cosY),
	}
	return c.Center.Add(offset.Mul(c.Distance))
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// FitToBounds centers the camera on a box and backs off far enough to see
// it with the given vertical field of view.
func (c *OrbitCamera) FitToBounds(lo, hi mgl32.Vec3, fovDegrees float32) {
	c.Center = lo.Add(hi).Mul(0.5)
	radius := hi.Sub(lo).Len() / 2
	if radius <= 0 {
		return
	}
	half := mgl32.DegToRad(fovDegrees) / 2
	c.Distance = mgl32.Clamp(radius/float32(math.Sin(float64(half))), c.MinDistance, c.MaxDistance)
}
