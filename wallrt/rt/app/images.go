package app

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
)

// SolidImage returns a w x h opaque white image.
func SolidImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

// CameraFrame renders a stand-in for a device camera image: a painted wall
// lit from the upper left, with a darker floor strip along the bottom.
func CameraFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	floor := int(float32(h) * 0.82)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u := float32(x) / float32(max(w-1, 1))
			v := float32(y) / float32(max(h-1, 1))
			light := 0.95 - 0.35*math32.Hypot(u-0.2, v-0.1)
			if y >= floor {
				img.SetRGBA(x, y, shade(color.RGBA{R: 120, G: 96, B: 72, A: 255}, light*0.8))
				continue
			}
			img.SetRGBA(x, y, shade(color.RGBA{R: 226, G: 222, B: 212, A: 255}, light))
		}
	}
	return img
}

// BrickTexture renders one tile of a running-bond brick pattern.
func BrickTexture(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	row := max(size/4, 2)
	brick := max(size/2, 2)
	mortar := max(size/32, 1)
	for y := 0; y < size; y++ {
		r := y / row
		offset := 0
		if r%2 == 1 {
			offset = brick / 2
		}
		for x := 0; x < size; x++ {
			inMortar := y%row < mortar || (x+offset)%brick < mortar
			if inMortar {
				img.SetRGBA(x, y, color.RGBA{R: 200, G: 196, B: 188, A: 255})
				continue
			}
			tone := float32(0.85 + 0.15*float32((x/brick+r)%3)/2)
			img.SetRGBA(x, y, shade(color.RGBA{R: 168, G: 74, B: 52, A: 255}, tone))
		}
	}
	return img
}

func shade(c color.RGBA, f float32) color.RGBA {
	f = math32.Max(0, math32.Min(1, f))
	return color.RGBA{
		R: uint8(float32(c.R) * f),
		G: uint8(float32(c.G) * f),
		B: uint8(float32(c.B) * f),
		A: c.A,
	}
}
