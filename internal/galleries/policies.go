package galleries

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NamingPolicy decides the extension of generated thumbnails.
type NamingPolicy string

const (
	// Always '<stem>-thumb.jpeg', whatever the source extension case
	NamingForceJpeg NamingPolicy = "jpeg"

	// '<stem>-thumb<ext>' keeping the source extension as is
	NamingPreserveExt NamingPolicy = "preserve"
)

// RegenPolicy decides when an existing thumbnail is regenerated.
type RegenPolicy string

const (
	// Generate only when the thumbnail file does not exist
	RegenIfMissing RegenPolicy = "exists"

	// Also regenerate when the source is newer than the thumbnail
	RegenIfStale RegenPolicy = "freshness"
)

func ParseNamingPolicy(s string) (NamingPolicy, error) {
	switch p := NamingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case NamingForceJpeg, NamingPreserveExt:
		return p, nil
	default:
		return "", fmt.Errorf("unknown naming policy %q", s)
	}
}

func ParseRegenPolicy(s string) (RegenPolicy, error) {
	switch p := RegenPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case RegenIfMissing, RegenIfStale:
		return p, nil
	default:
		return "", fmt.Errorf("unknown regeneration policy %q", s)
	}
}

// ThumbnailPath computes the sibling thumbnail path for srcPath by
// inserting ThumbMarker before the extension.
func ThumbnailPath(srcPath string, policy NamingPolicy) string {
	dir := filepath.Dir(srcPath)
	name := filepath.Base(srcPath)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	if policy == NamingPreserveExt {
		return filepath.Join(dir, stem+ThumbMarker+ext)
	}

	return filepath.Join(dir, stem+ThumbMarker+".jpeg")
}

// NeedsRegeneration reports whether thumbPath has to be (re)generated
// from srcPath under the given policy.
func NeedsRegeneration(
	srcPath string,
	thumbPath string,
	policy RegenPolicy,
) (bool, error) {
	thumbInfo, err := os.Stat(thumbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}

		return false, fmt.Errorf(
			"failed to stat thumbnail %s: %w",
			thumbPath,
			err,
		)
	}

	if policy != RegenIfStale {
		return false, nil
	}

	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return false, fmt.Errorf(
			"failed to stat source image %s: %w",
			srcPath,
			err,
		)
	}

	return srcInfo.ModTime().After(thumbInfo.ModTime()), nil
}
