package thumbsgen

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// Bytes needed by filetype to match any known signature
const sniffHeaderLen = 261

var ErrUnsupportedContent = errors.New("unsupported content")

// sniffImage reads the header of f to identify its real image type and
// rewinds f to the start.
func sniffImage(f *os.File) (types.Type, error) {
	header := make([]byte, sniffHeaderLen)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return filetype.Unknown, fmt.Errorf(
				"%w: %s is empty",
				ErrUnsupportedContent,
				f.Name(),
			)
		}

		return filetype.Unknown, fmt.Errorf(
			"failed to read header of %s: %w",
			f.Name(),
			err,
		)
	}

	kind, err := filetype.Image(header[:n])
	if err != nil || kind == filetype.Unknown {
		return filetype.Unknown, fmt.Errorf(
			"%w: %s is not a recognized image",
			ErrUnsupportedContent,
			f.Name(),
		)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return filetype.Unknown, fmt.Errorf(
			"failed to rewind %s: %w",
			f.Name(),
			err,
		)
	}

	return kind, nil
}

// writeThumbFile writes through a temporary sibling file renamed into
// place, so a failed encode never leaves a partial thumbnail behind.
func writeThumbFile(
	thumbPath string,
	encode func(w io.Writer) error,
) (int64, error) {
	dir := filepath.Dir(thumbPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(thumbPath)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf(
			"failed to create temp file for thumbnail %s: %w",
			thumbPath,
			err,
		)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := encode(tmp); err != nil {
		tmp.Close()
		return 0, fmt.Errorf(
			"failed to encode thumbnail %s: %w",
			thumbPath,
			err,
		)
	}

	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf(
			"failed to flush thumbnail %s: %w",
			thumbPath,
			err,
		)
	}

	// CreateTemp uses 0600
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return 0, fmt.Errorf(
			"failed to set permissions on thumbnail %s: %w",
			thumbPath,
			err,
		)
	}

	if err := os.Rename(tmpPath, thumbPath); err != nil {
		return 0, fmt.Errorf(
			"failed to write thumbnail file %s: %w",
			thumbPath,
			err,
		)
	}

	info, err := os.Stat(thumbPath)
	if err != nil {
		return 0, fmt.Errorf(
			"failed to stat thumbnail file %s: %w",
			thumbPath,
			err,
		)
	}

	return info.Size(), nil
}
