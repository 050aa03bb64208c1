package view

import (
	"github.com/spaghettifunk/forgegraph/engine/math"
)

// Camera is a movable eye used to build a RenderView's view matrix.
// Adapted from the engine's component-level camera: position plus Euler
// rotation, with the view matrix rebuilt lazily on read.
type Camera struct {
	Position      math.Vec3
	EulerRotation math.Vec3
	isDirty       bool
	viewMatrix    math.Mat4
}

func NewCamera() *Camera {
	c := &Camera{}
	c.Reset()
	return c
}

func (c *Camera) Reset() {
	c.Position = math.NewVec3Zero()
	c.EulerRotation = math.NewVec3Zero()
	c.isDirty = false
	c.viewMatrix = math.NewMat4Identity()
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.isDirty = true
}

func (c *Camera) SetEulerRotation(rotation math.Vec3) {
	c.EulerRotation = rotation
	c.isDirty = true
}

// View returns the camera's view matrix, recomputing it only if the
// position or rotation changed since the last call.
func (c *Camera) View() math.Mat4 {
	if c.isDirty {
		rotation := math.NewMat4EulerXYZ(c.EulerRotation.X, c.EulerRotation.Y, c.EulerRotation.Z)
		translation := math.NewMat4Translation(c.Position)
		c.viewMatrix = rotation.Mul(translation).Inverse()
		c.isDirty = false
	}
	return c.viewMatrix
}

func (c *Camera) Forward() math.Vec3  { return c.View().Forward() }
func (c *Camera) Backward() math.Vec3 { return c.View().Backward() }
func (c *Camera) Left() math.Vec3     { return c.View().Left() }
func (c *Camera) Right() math.Vec3    { return c.View().Right() }

func (c *Camera) MoveBy(direction math.Vec3, amount float32) {
	c.Position = c.Position.Add(direction.MulScalar(amount))
	c.isDirty = true
}

func (c *Camera) Yaw(amount float32) {
	c.EulerRotation.Y += amount
	c.isDirty = true
}

func (c *Camera) Pitch(amount float32) {
	c.EulerRotation.X += amount
	const limit float32 = 1.55334306 // clamp near +/-89deg to avoid gimbal lock
	c.EulerRotation.X = math.Clamp(c.EulerRotation.X, -limit, limit)
	c.isDirty = true
}
