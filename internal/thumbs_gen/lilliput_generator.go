package thumbsgen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/discord/lilliput"
	"github.com/h2non/filetype/matchers"
)

// Output buffer for encoded thumbnails. Thumbnails are bounded by
// MaxSize so this is far above what a single one needs.
const lilliputOutputBufferSize = 50 * 1024 * 1024

// LilliputThumbsGenerator resizes and encodes JPEG sources through
// lilliput (OpenCV + libjpeg-turbo). Any other content is handed to
// fallback, which knows how to flatten alpha and palettes.
type LilliputThumbsGenerator struct {
	autoOrient bool
	fallback   ThumbsGenerator
}

func NewLilliputThumbsGenerator(
	autoOrient bool,
	fallback ThumbsGenerator,
) *LilliputThumbsGenerator {

	return &LilliputThumbsGenerator{
		autoOrient: autoOrient,
		fallback:   fallback,
	}
}

func (g *LilliputThumbsGenerator) Generate(
	ctx context.Context,
	meta ThumbnailMeta,
) (*ThumbnailInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Load original file into memory
	inputBuf, isJpeg, err := g.readFile(meta.SrcPath)
	if err != nil {
		return nil, err
	}

	if !isJpeg {
		slog.Debug(
			"Source is not JPEG content, using fallback generator",
			"srcPath", meta.SrcPath,
		)
		return g.fallback.Generate(ctx, meta)
	}

	slog.Debug(
		"Generating thumbnail",
		"srcPath", meta.SrcPath,
		"maxSize", meta.MaxSize,
	)

	decoder, err := g.decode(meta.SrcPath, inputBuf)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	origWidth, origHeight, orientation, err := g.getOrigDimensions(
		meta.SrcPath,
		decoder,
	)
	if err != nil {
		return nil, err
	}

	// Header dimensions are the stored ones, before EXIF rotation
	if g.autoOrient && transposesAxes(orientation) {
		origWidth, origHeight = origHeight, origWidth
	}

	ops := lilliput.NewImageOps(max(origWidth, origHeight))
	defer ops.Close()

	outputBuf := make([]byte, lilliputOutputBufferSize)

	tgtWidth, tgtHeight := FitDimensions(origWidth, origHeight, meta.MaxSize)
	opts := &lilliput.ImageOptions{
		FileType:             ".jpeg",
		Width:                tgtWidth,
		Height:               tgtHeight,
		ResizeMethod:         lilliput.ImageOpsResize,
		NormalizeOrientation: g.autoOrient,
		EncodeOptions: map[int]int{
			lilliput.JpegQuality: ThumbsQuality,
		},
	}

	thumbBuf, err := ops.Transform(decoder, opts, outputBuf)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to create thumbnail for %s: %w",
			meta.SrcPath,
			err,
		)
	}

	size, err := writeThumbFile(meta.ThumbPath, func(w io.Writer) error {
		_, err := w.Write(thumbBuf)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &ThumbnailInfo{
		SrcWidth:  origWidth,
		SrcHeight: origHeight,
		Width:     tgtWidth,
		Height:    tgtHeight,
		Size:      size,
	}, nil
}

// readFile loads the whole source and reports whether its content
// is actually JPEG.
func (g *LilliputThumbsGenerator) readFile(
	srcPath string,
) ([]byte, bool, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, false, fmt.Errorf(
			"failed to open source image %s: %w",
			srcPath,
			err,
		)
	}
	defer f.Close()

	kind, err := sniffImage(f)
	if err != nil {
		return nil, false, err
	}
	if kind != matchers.TypeJpeg {
		return nil, false, nil
	}

	inputBuf, err := io.ReadAll(f)
	if err != nil {
		return nil, false, fmt.Errorf(
			"failed to read source image %s: %w",
			srcPath,
			err,
		)
	}

	return inputBuf, true, nil
}

func (g *LilliputThumbsGenerator) decode(
	srcPath string,
	inputBuf []byte,
) (lilliput.Decoder, error) {
	decoder, err := lilliput.NewDecoder(inputBuf)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to create lilliput decoder for %s: %w",
			srcPath,
			err,
		)
	}

	return decoder, nil
}

func (g *LilliputThumbsGenerator) getOrigDimensions(
	srcPath string,
	decoder lilliput.Decoder,
) (int, int, lilliput.ImageOrientation, error) {
	imgHeader, err := decoder.Header()
	if err != nil {
		return 0, 0, 0, fmt.Errorf(
			"failed to get image header for %s: %w",
			srcPath,
			err,
		)
	}

	origWidth := imgHeader.Width()
	origHeight := imgHeader.Height()
	if origWidth == 0 || origHeight == 0 {
		return 0, 0, 0, fmt.Errorf(
			"invalid original image dimensions: width=%d, height=%d",
			origWidth,
			origHeight,
		)
	}

	return origWidth, origHeight, imgHeader.Orientation(), nil
}

// EXIF orientations 5 to 8 rotate by 90 or 270 degrees, which swaps
// width and height once normalized.
func transposesAxes(orientation lilliput.ImageOrientation) bool {
	return orientation >= 5 && orientation <= 8
}
