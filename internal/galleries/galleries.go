package galleries

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Marker inserted in thumbnail file names. Files whose stem contains it
// are never selected as source images.
const ThumbMarker = "-thumb"

var ErrGalleriesRootNotFound = errors.New("galleries root not found")

var sourceExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
}

// Gallery is an event folder directly under the galleries root.
type Gallery struct {
	Name string
	Path string
}

type Filter struct {

	// Gallery folder name that is never processed
	ExcludedGallery string

	// Skip folders whose name starts with '.'
	SkipHidden bool
}

func (f Filter) excludes(name string) bool {
	if f.ExcludedGallery != "" && name == f.ExcludedGallery {
		return true
	}

	return f.SkipHidden && strings.HasPrefix(name, ".")
}

// ListGalleries returns the immediate subdirectories of galleriesRoot
// that pass the filter, in lexical order. Non-directory entries are
// ignored.
func ListGalleries(galleriesRoot string, filter Filter) ([]Gallery, error) {
	info, err := os.Stat(galleriesRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrGalleriesRootNotFound, galleriesRoot)
		}

		return nil, fmt.Errorf(
			"failed to stat galleries root %s: %w",
			galleriesRoot,
			err,
		)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf(
			"%w: %s is not a directory",
			ErrGalleriesRootNotFound,
			galleriesRoot,
		)
	}

	entries, err := os.ReadDir(galleriesRoot)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to list galleries root %s: %w",
			galleriesRoot,
			err,
		)
	}

	var galleries []Gallery
	for _, entry := range entries {
		entryPath := filepath.Join(galleriesRoot, entry.Name())
		if !isDir(entry, entryPath) {
			continue
		}

		if filter.excludes(entry.Name()) {
			slog.Debug("Skipping excluded gallery", "gallery", entry.Name())
			continue
		}

		galleries = append(galleries, Gallery{
			Name: entry.Name(),
			Path: entryPath,
		})
	}

	return galleries, nil
}

// ListSourceImages returns the paths of the JPEG files inside galleryDir
// that are not thumbnails themselves, in lexical order.
func ListSourceImages(galleryDir string) ([]string, error) {
	entries, err := os.ReadDir(galleryDir)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to list gallery %s: %w",
			galleryDir,
			err,
		)
	}

	var images []string
	for _, entry := range entries {
		if !IsSourceImageName(entry.Name()) {
			continue
		}

		entryPath := filepath.Join(galleryDir, entry.Name())
		if !isRegularFile(entry, entryPath) {
			continue
		}

		images = append(images, entryPath)
	}

	return images, nil
}

// IsSourceImageName reports whether a file name has an accepted
// extension (case-insensitive) and a stem free of ThumbMarker.
func IsSourceImageName(name string) bool {
	ext := filepath.Ext(name)
	if _, ok := sourceExtensions[strings.ToLower(ext)]; !ok {
		return false
	}

	stem := strings.TrimSuffix(name, ext)
	return !strings.Contains(stem, ThumbMarker)
}

// Symlinks are followed so linked folders and files behave like the
// real thing.
func isDir(entry os.DirEntry, entryPath string) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.IsDir()
	}

	info, err := os.Stat(entryPath)
	return err == nil && info.IsDir()
}

func isRegularFile(entry os.DirEntry, entryPath string) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.Type().IsRegular()
	}

	info, err := os.Stat(entryPath)
	return err == nil && info.Mode().IsRegular()
}
