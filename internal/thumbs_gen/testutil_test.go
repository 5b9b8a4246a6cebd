package thumbsgen

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeJpeg(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 120, 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

// writeTransparentPng writes an image whose border is fully transparent
// black and whose center is opaque red.
func writeTransparentPng(t *testing.T, path string, size int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := size / 4; y < size*3/4; y++ {
		for x := size / 4; x < size*3/4; x++ {
			img.Set(x, y, color.NRGBA{255, 0, 0, 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func readImage(t *testing.T, path string) (image.Image, string) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode %s: %v", path, err)
	}
	return img, format
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Expected no temp files left, got %v", matches)
	}
}

// writeOrientedJpeg writes a width x height JPEG carrying an EXIF
// orientation tag, so viewers display it rotated.
func writeOrientedJpeg(t *testing.T, path string, width, height int, orientation uint8) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 120, 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}

	exif := []byte{
		0xff, 0xe1, 0x00, 0x22, // APP1, length 34
		'E', 'x', 'i', 'f', 0x00, 0x00,
		'M', 'M', 0x00, 0x2a, 0x00, 0x00, 0x00, 0x08, // big endian TIFF header
		0x00, 0x01, // one IFD entry
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, // Orientation, SHORT, count 1
		0x00, orientation, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // no next IFD
	}

	data := buf.Bytes()
	out := make([]byte, 0, len(data)+len(exif))
	out = append(out, data[:2]...) // SOI
	out = append(out, exif...)
	out = append(out, data[2:]...)

	if err := os.WriteFile(path, out, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}
