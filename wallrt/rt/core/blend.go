package core

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
)

func mix(a, b, t float32) float32 {
	// a*(1-t) + b*t is exact at both t == 0 and t == 1.
	return a*(1-t) + b*t
}

func screen(a, b float32) float32 {
	return 1 - (1-a)*(1-b)
}

// BlendPixel composites swatch over wall. Both are straight-alpha RGBA in
// [0, 1]; the result keeps the wall's alpha.
//
//	p     = percent * swatch.a
//	mixed = mix(wall, swatch, p)
//	out   = mix(mixed, screen(mixed, wall), lighten * p)
//
// The screen term brings back the wall's light detail that a flat colour
// covers up. With percent == 0 the wall is returned unchanged.
func BlendPixel(wall, swatch mgl32.Vec4, percent, lighten float32) mgl32.Vec4 {
	percent, lighten = clamp01(percent), clamp01(lighten)
	p := percent * clamp01(swatch.W())
	if p == 0 {
		return wall
	}
	l := lighten * p

	var out mgl32.Vec4
	for i := 0; i < 3; i++ {
		mixed := mix(wall[i], clamp01(swatch[i]), p)
		out[i] = mix(mixed, screen(mixed, wall[i]), l)
	}
	out[3] = wall[3]
	return out
}

// CompositeImage paints the overlay described by data onto dst. wall is the
// rectified wall appearance in overlay texcoord space (u right, v down) and
// is stretched over dst's bounds. tex is the swatch texture and is only read
// when data selects the texture path.
func CompositeImage(dst draw.Image, wall image.Image, tex image.Image, data WallBlendData) error {
	r := dst.Bounds()
	if r.Empty() {
		return nil
	}
	if !wall.Bounds().Eq(r) {
		scaled := image.NewNRGBA(r)
		draw.BiLinear.Scale(scaled, r, wall, wall.Bounds(), draw.Src, nil)
		wall = scaled
	}

	if clamp01(data.BlendPercent) == 0 {
		draw.Draw(dst, r, wall, r.Min, draw.Src)
		return nil
	}

	sample, err := swatchSampler(r, tex, data)
	if err != nil {
		return err
	}

	w, h := float32(r.Dx()), float32(r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		v := (float32(y-r.Min.Y) + 0.5) / h
		for x := r.Min.X; x < r.Max.X; x++ {
			u := (float32(x-r.Min.X) + 0.5) / w
			out := BlendPixel(toVec4(wall.At(x, y)), sample(u, v), data.BlendPercent, data.BlendLighten)
			dst.Set(x, y, fromVec4(out))
		}
	}
	return nil
}

// swatchSampler returns the swatch colour at overlay texcoord (u, v).
// Textures are resampled once to the on-screen size of a single tile, then
// repeated.
func swatchSampler(r image.Rectangle, tex image.Image, data WallBlendData) (func(u, v float32) mgl32.Vec4, error) {
	if data.UsesColor() {
		c := data.Color
		return func(float32, float32) mgl32.Vec4 { return c }, nil
	}
	if tex == nil || tex.Bounds().Empty() {
		return nil, fmt.Errorf("texture swatch without image: %w", ErrInvalidSwatchConfig)
	}

	m := data.TextureTransform
	su, sv := math32.Abs(m.At(0, 0)), math32.Abs(m.At(1, 1))
	if su == 0 || sv == 0 || !finite(su) || !finite(sv) {
		return nil, fmt.Errorf("texture transform scale (%g, %g): %w", su, sv, ErrInvalidSwatchConfig)
	}
	tw := max(int(math32.Ceil(float32(r.Dx())/su)), 1)
	th := max(int(math32.Ceil(float32(r.Dy())/sv)), 1)
	tile := image.NewNRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(tile, tile.Bounds(), tex, tex.Bounds(), draw.Src, nil)

	return func(u, v float32) mgl32.Vec4 {
		t := m.Mul4x1(mgl32.Vec4{u, v, 0, 1})
		fu := t.X() - math32.Floor(t.X())
		fv := t.Y() - math32.Floor(t.Y())
		px := min(int(fu*float32(tw)), tw-1)
		py := min(int(fv*float32(th)), th-1)
		return toVec4(tile.NRGBAAt(px, py))
	}, nil
}

func toVec4(c color.Color) mgl32.Vec4 {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return mgl32.Vec4{
		float32(n.R) / 0xffff,
		float32(n.G) / 0xffff,
		float32(n.B) / 0xffff,
		float32(n.A) / 0xffff,
	}
}

func fromVec4(v mgl32.Vec4) color.NRGBA64 {
	q := func(f float32) uint16 {
		return uint16(clamp01(f)*0xffff + 0.5)
	}
	return color.NRGBA64{R: q(v[0]), G: q(v[1]), B: q(v[2]), A: q(v[3])}
}
