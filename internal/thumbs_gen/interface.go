package thumbsgen

import (
	"context"
)

const ThumbsQuality = 85

// Default max dimension per preset
const (
	ClientMaxSize = 800
	ServerMaxSize = 400
)

// ThumbnailMeta holds all the necessary metadata for generating
// the thumbnail of a single source image.
type ThumbnailMeta struct {

	// Absolute path to the source image
	SrcPath string

	// Absolute path where the thumbnail is written. Any existing
	// file at this path is replaced.
	ThumbPath string

	// Max width or height in pixels. Images already within this
	// bound keep their dimensions, they are never upscaled.
	MaxSize int
}

// ThumbnailInfo describes a thumbnail that was written to disk.
type ThumbnailInfo struct {
	SrcWidth  int
	SrcHeight int
	Width     int
	Height    int

	// Encoded size in bytes
	Size int64
}

type ThumbsGenerator interface {
	Generate(ctx context.Context, meta ThumbnailMeta) (*ThumbnailInfo, error)
}
