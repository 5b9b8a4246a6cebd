package thumbsgen

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Flatten returns an opaque copy of img. Images carrying alpha or a
// palette are composited over a white background using their alpha as
// mask, anything else is converted directly.
func Flatten(img image.Image) *image.NRGBA {
	if !hasAlphaOrPalette(img) {
		return imaging.Clone(img)
	}

	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}

func hasAlphaOrPalette(img image.Image) bool {
	switch img.(type) {
	case *image.RGBA,
		*image.RGBA64,
		*image.NRGBA,
		*image.NRGBA64,
		*image.Alpha,
		*image.Alpha16,
		*image.NYCbCrA,
		*image.Paletted:
		return true
	}

	_, isPalette := img.ColorModel().(color.Palette)
	return isPalette
}
