package thumbsgen

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"log/slog"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WebP format
)

// ImagingThumbsGenerator produces thumbnails in pure Go. Sources are
// sniffed by content, so a PNG or WebP saved with a .jpg extension is
// still handled.
type ImagingThumbsGenerator struct {
	autoOrient bool
}

func NewImagingThumbsGenerator(autoOrient bool) *ImagingThumbsGenerator {
	return &ImagingThumbsGenerator{
		autoOrient: autoOrient,
	}
}

func (g *ImagingThumbsGenerator) Generate(
	ctx context.Context,
	meta ThumbnailMeta,
) (*ThumbnailInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Debug(
		"Generating thumbnail",
		"srcPath", meta.SrcPath,
		"maxSize", meta.MaxSize,
	)

	srcImg, err := g.decode(meta.SrcPath)
	if err != nil {
		return nil, err
	}

	srcBounds := srcImg.Bounds()
	if srcBounds.Dx() == 0 || srcBounds.Dy() == 0 {
		return nil, fmt.Errorf(
			"invalid source image dimensions: width=%d, height=%d",
			srcBounds.Dx(),
			srcBounds.Dy(),
		)
	}

	thumb := Flatten(srcImg)
	width, height := FitDimensions(srcBounds.Dx(), srcBounds.Dy(), meta.MaxSize)
	if width != srcBounds.Dx() || height != srcBounds.Dy() {
		thumb = imaging.Resize(thumb, width, height, imaging.Lanczos)
	}

	size, err := writeThumbFile(meta.ThumbPath, func(w io.Writer) error {
		return imaging.Encode(
			w,
			thumb,
			imaging.JPEG,
			imaging.JPEGQuality(ThumbsQuality),
		)
	})
	if err != nil {
		return nil, err
	}

	return &ThumbnailInfo{
		SrcWidth:  srcBounds.Dx(),
		SrcHeight: srcBounds.Dy(),
		Width:     width,
		Height:    height,
		Size:      size,
	}, nil
}

func (g *ImagingThumbsGenerator) decode(srcPath string) (image.Image, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to open source image %s: %w",
			srcPath,
			err,
		)
	}
	defer f.Close()

	if _, err := sniffImage(f); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(f, imaging.AutoOrientation(g.autoOrient))
	if err != nil {
		return nil, fmt.Errorf(
			"failed to decode source image %s: %w",
			srcPath,
			err,
		)
	}

	return img, nil
}
