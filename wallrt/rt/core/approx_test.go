package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Absolute element-wise comparisons. mgl32's ApproxEqualThreshold is relative
// and near-exact around zero, which rounding in products never meets.

func floatsNear(a, b []float32, tol float32) bool {
	for i := range a {
		if !(math32.Abs(a[i]-b[i]) <= tol) {
			return false
		}
	}
	return true
}

func mat4Near(a, b mgl32.Mat4, tol float32) bool { return floatsNear(a[:], b[:], tol) }
func mat3Near(a, b mgl32.Mat3, tol float32) bool { return floatsNear(a[:], b[:], tol) }
func vec3Near(a, b mgl32.Vec3, tol float32) bool { return floatsNear(a[:], b[:], tol) }
