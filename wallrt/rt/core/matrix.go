package core

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// DegenerateEpsilon is the smallest accepted ratio of |det| to the product of
// the column lengths. The ratio is 1 for any scaled rotation and 0 for a
// singular matrix, whatever the overall scale.
const DegenerateEpsilon = 1e-5

func finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}

func finiteMat4(m mgl32.Mat4) bool {
	for _, v := range m {
		if !finite(v) {
			return false
		}
	}
	return true
}

func finiteMat3(m mgl32.Mat3) bool {
	for _, v := range m {
		if !finite(v) {
			return false
		}
	}
	return true
}

func affine(m mgl64.Mat4) bool {
	return m[3] == 0 && m[7] == 0 && m[11] == 0 && m[15] == 1
}

// conditionRatio4 is |det(m)| over the Hadamard bound of its columns. For an
// affine matrix only the linear part is measured, so translation does not
// count.
func conditionRatio4(m mgl64.Mat4) float64 {
	if affine(m) {
		return conditionRatio3(m.Mat3())
	}
	bound := m.Col(0).Len() * m.Col(1).Len() * m.Col(2).Len() * m.Col(3).Len()
	return hadamardRatio(m.Det(), bound)
}

func conditionRatio3(m mgl64.Mat3) float64 {
	bound := m.Col(0).Len() * m.Col(1).Len() * m.Col(2).Len()
	return hadamardRatio(m.Det(), bound)
}

func hadamardRatio(det, bound float64) float64 {
	if bound == 0 || math.IsInf(bound, 0) || math.IsNaN(det) {
		return 0
	}
	return math.Abs(det) / bound
}

// invert4 inverts m in float64, failing instead of producing a zero, NaN or
// meaningless matrix.
func invert4(name string, m mgl32.Mat4) (mgl32.Mat4, error) {
	if !finiteMat4(m) {
		return mgl32.Mat4{}, &TransformError{Matrix: name, Det: math32.NaN()}
	}

	var d mgl64.Mat4
	for i, v := range m {
		d[i] = float64(v)
	}
	det := d.Det()
	if conditionRatio4(d) <= DegenerateEpsilon {
		return mgl32.Mat4{}, &TransformError{Matrix: name, Det: float32(det)}
	}

	var inv mgl32.Mat4
	for i, v := range d.Inv() {
		inv[i] = float32(v)
	}
	if !finiteMat4(inv) || inv == (mgl32.Mat4{}) {
		return mgl32.Mat4{}, &TransformError{Matrix: name, Det: float32(det)}
	}
	return inv, nil
}

func invert3(name string, m mgl32.Mat3) (mgl32.Mat3, error) {
	if !finiteMat3(m) {
		return mgl32.Mat3{}, &TransformError{Matrix: name, Det: math32.NaN()}
	}

	var d mgl64.Mat3
	for i, v := range m {
		d[i] = float64(v)
	}
	det := d.Det()
	if conditionRatio3(d) <= DegenerateEpsilon {
		return mgl32.Mat3{}, &TransformError{Matrix: name, Det: float32(det)}
	}

	var inv mgl32.Mat3
	for i, v := range d.Inv() {
		inv[i] = float32(v)
	}
	if !finiteMat3(inv) || inv == (mgl32.Mat3{}) {
		return mgl32.Mat3{}, &TransformError{Matrix: name, Det: float32(det)}
	}
	return inv, nil
}

// NormalMatrix returns transpose(inverse(upper3x3(m))) embedded in a 4x4.
// It keeps normals perpendicular to surfaces under non-uniform scale.
func NormalMatrix(m mgl32.Mat4) (mgl32.Mat4, error) {
	inv, err := invert3("normal", m.Mat3())
	if err != nil {
		return mgl32.Mat4{}, err
	}
	return inv.Transpose().Mat4(), nil
}

// Inverse is the checked general 4x4 inverse used by the resolver.
func Inverse(m mgl32.Mat4) (mgl32.Mat4, error) {
	return invert4("matrix", m)
}
