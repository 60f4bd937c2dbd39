package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a local pose expressed as translation, rotation and scale.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix returns M = T * R * S.
func (t Transform) Matrix() mgl32.Mat4 {
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Normalize().Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

// InverseMatrix inverts the pose component-wise:
// inv(M) = inv(S) * inv(R) * inv(T).
func (t Transform) InverseMatrix() (mgl32.Mat4, error) {
	for i := 0; i < 3; i++ {
		if t.Scale[i] == 0 || !finite(t.Scale[i]) {
			return mgl32.Mat4{}, &TransformError{Matrix: "pose", Det: 0}
		}
	}
	invScale := mgl32.Scale3D(1.0/t.Scale.X(), 1.0/t.Scale.Y(), 1.0/t.Scale.Z())
	invRotate := t.Rotation.Normalize().Conjugate().Mat4()
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())

	return invScale.Mul4(invRotate).Mul4(invTranslate), nil
}
