package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Box is an axis-aligned bounding box. In the GPU layout it is a 2x3 matrix
// whose first column is Min and second column is Max.
type Box struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// UnitBox spans -1..1 on every axis.
var UnitBox = Box{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}

func (b Box) Valid() bool {
	for i := 0; i < 3; i++ {
		if !finite(b.Min[i]) || !finite(b.Max[i]) || b.Min[i] > b.Max[i] {
			return false
		}
	}
	return true
}

func (b Box) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b Box) Volume() float32 {
	s := b.Size()
	return s[0] * s[1] * s[2]
}

// Corners returns the eight corners of the box.
func (b Box) Corners() [8]mgl32.Vec3 {
	minB, maxB := b.Min, b.Max
	return [8]mgl32.Vec3{
		{minB.X(), minB.Y(), minB.Z()},
		{maxB.X(), minB.Y(), minB.Z()},
		{minB.X(), maxB.Y(), minB.Z()},
		{maxB.X(), maxB.Y(), minB.Z()},
		{minB.X(), minB.Y(), maxB.Z()},
		{maxB.X(), minB.Y(), maxB.Z()},
		{minB.X(), maxB.Y(), maxB.Z()},
		{maxB.X(), maxB.Y(), maxB.Z()},
	}
}

// Contains reports whether p lies inside or on the box.
func (b Box) Contains(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// TransformBox transforms all eight corners by m and returns their
// axis-aligned extent. Rotation can change which local corner ends up as the
// world extremum, so every corner is visited.
func TransformBox(b Box, m mgl32.Mat4) Box {
	corners := b.Corners()

	first := m.Mul4x1(corners[0].Vec4(1.0)).Vec3()
	wMin, wMax := first, first
	for _, c := range corners[1:] {
		wc := m.Mul4x1(c.Vec4(1.0)).Vec3()
		wMin = mgl32.Vec3{min(wMin.X(), wc.X()), min(wMin.Y(), wc.Y()), min(wMin.Z(), wc.Z())}
		wMax = mgl32.Vec3{max(wMax.X(), wc.X()), max(wMax.Y(), wc.Y()), max(wMax.Z(), wc.Z())}
	}
	return Box{Min: wMin, Max: wMax}
}
