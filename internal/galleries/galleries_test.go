package galleries

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file %s: %v", path, err)
	}
}

func TestListGalleries_FiltersEntries(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"Wedding", "Bat_Mitzvah", ".cache", "Bar_Mitzvah"} {
		if err := os.Mkdir(filepath.Join(root, dir), 0755); err != nil {
			t.Fatalf("Failed to create gallery %s: %v", dir, err)
		}
	}
	touch(t, filepath.Join(root, "README.txt"))

	tests := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{
			name:     "exclude name and hidden",
			filter:   Filter{ExcludedGallery: "Bat_Mitzvah", SkipHidden: true},
			expected: []string{"Bar_Mitzvah", "Wedding"},
		},
		{
			name:     "exclude name only",
			filter:   Filter{ExcludedGallery: "Bat_Mitzvah"},
			expected: []string{".cache", "Bar_Mitzvah", "Wedding"},
		},
		{
			name:     "other spelling does not match",
			filter:   Filter{ExcludedGallery: "Bat_Mitsva", SkipHidden: true},
			expected: []string{"Bar_Mitzvah", "Bat_Mitzvah", "Wedding"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			galleries, err := ListGalleries(root, tt.filter)
			if err != nil {
				t.Fatalf("ListGalleries failed: %v", err)
			}

			var names []string
			for _, g := range galleries {
				names = append(names, g.Name)
				if g.Path != filepath.Join(root, g.Name) {
					t.Errorf("Unexpected path %s for gallery %s", g.Path, g.Name)
				}
			}
			if !reflect.DeepEqual(names, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, names)
			}
		})
	}
}

func TestListGalleries_MissingRoot(t *testing.T) {
	_, err := ListGalleries(filepath.Join(t.TempDir(), "nope"), Filter{})
	if !errors.Is(err, ErrGalleriesRootNotFound) {
		t.Fatalf("Expected ErrGalleriesRootNotFound, got %v", err)
	}
}

func TestListGalleries_RootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "galleries")
	touch(t, file)

	_, err := ListGalleries(file, Filter{})
	if !errors.Is(err, ErrGalleriesRootNotFound) {
		t.Fatalf("Expected ErrGalleriesRootNotFound, got %v", err)
	}
}

func TestListSourceImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"a.jpg",
		"b.JPG",
		"c.jpeg",
		"d.JPEG",
		"photo-thumb.jpg",
		"photo-thumb.jpeg",
		"e.png",
		"notes.txt",
		"jpg",
	} {
		touch(t, filepath.Join(dir, name))
	}
	if err := os.Mkdir(filepath.Join(dir, "folder.jpg"), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	images, err := ListSourceImages(dir)
	if err != nil {
		t.Fatalf("ListSourceImages failed: %v", err)
	}

	var names []string
	for _, img := range images {
		names = append(names, filepath.Base(img))
	}

	expected := []string{"a.jpg", "b.JPG", "c.jpeg", "d.JPEG"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Expected %v, got %v", expected, names)
	}
}

func TestIsSourceImageName(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"photo.jpg", true},
		{"photo.JpEg", true},
		{"photo-thumb.jpg", false},
		{"photo-thumbnail.jpg", false},
		{"my-thumb-photo.jpeg", false},
		{"photo.jpg.png", false},
		{"photo.webp", false},
		{"-thumb.jpg", false},
	}

	for _, tt := range tests {
		if got := IsSourceImageName(tt.name); got != tt.expected {
			t.Errorf("IsSourceImageName(%q) = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}

func TestThumbnailPath(t *testing.T) {
	tests := []struct {
		src      string
		policy   NamingPolicy
		expected string
	}{
		{"/g/Wedding/photo1.jpg", NamingForceJpeg, "/g/Wedding/photo1-thumb.jpeg"},
		{"/g/Wedding/photo1.JPG", NamingForceJpeg, "/g/Wedding/photo1-thumb.jpeg"},
		{"/g/Wedding/photo.1.jpeg", NamingForceJpeg, "/g/Wedding/photo.1-thumb.jpeg"},
		{"/g/Wedding/photo1.jpg", NamingPreserveExt, "/g/Wedding/photo1-thumb.jpg"},
		{"/g/Wedding/photo1.JPG", NamingPreserveExt, "/g/Wedding/photo1-thumb.JPG"},
		{"/g/Wedding/photo1.JPEG", NamingPreserveExt, "/g/Wedding/photo1-thumb.JPEG"},
	}

	for _, tt := range tests {
		got := ThumbnailPath(filepath.FromSlash(tt.src), tt.policy)
		if got != filepath.FromSlash(tt.expected) {
			t.Errorf("ThumbnailPath(%s, %s) = %s, expected %s", tt.src, tt.policy, got, tt.expected)
		}
	}
}

func TestNeedsRegeneration(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.jpg")
	thumb := filepath.Join(dir, "photo-thumb.jpeg")
	touch(t, src)

	for _, policy := range []RegenPolicy{RegenIfMissing, RegenIfStale} {
		needed, err := NeedsRegeneration(src, thumb, policy)
		if err != nil {
			t.Fatalf("NeedsRegeneration failed: %v", err)
		}
		if !needed {
			t.Errorf("Missing thumbnail should be generated under %s", policy)
		}
	}

	touch(t, thumb)
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	// Thumbnail newer than source
	if err := os.Chtimes(src, older, older); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
	if err := os.Chtimes(thumb, newer, newer); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
	for _, policy := range []RegenPolicy{RegenIfMissing, RegenIfStale} {
		needed, err := NeedsRegeneration(src, thumb, policy)
		if err != nil {
			t.Fatalf("NeedsRegeneration failed: %v", err)
		}
		if needed {
			t.Errorf("Fresh thumbnail should not be regenerated under %s", policy)
		}
	}

	// Equal mtimes are not stale
	if err := os.Chtimes(src, newer, newer); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
	needed, err := NeedsRegeneration(src, thumb, RegenIfStale)
	if err != nil {
		t.Fatalf("NeedsRegeneration failed: %v", err)
	}
	if needed {
		t.Error("Equal mtimes should not trigger regeneration")
	}

	// Source newer than thumbnail
	if err := os.Chtimes(thumb, older, older); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
	needed, err = NeedsRegeneration(src, thumb, RegenIfStale)
	if err != nil {
		t.Fatalf("NeedsRegeneration failed: %v", err)
	}
	if !needed {
		t.Error("Stale thumbnail should be regenerated under freshness policy")
	}

	needed, err = NeedsRegeneration(src, thumb, RegenIfMissing)
	if err != nil {
		t.Fatalf("NeedsRegeneration failed: %v", err)
	}
	if needed {
		t.Error("Existing thumbnail should never be regenerated under exists policy")
	}
}

func TestParsePolicies(t *testing.T) {
	if p, err := ParseNamingPolicy(" Preserve "); err != nil || p != NamingPreserveExt {
		t.Errorf("Expected preserve policy, got %q, %v", p, err)
	}
	if _, err := ParseNamingPolicy("png"); err == nil {
		t.Error("Expected error for unknown naming policy")
	}
	if p, err := ParseRegenPolicy("FRESHNESS"); err != nil || p != RegenIfStale {
		t.Errorf("Expected freshness policy, got %q, %v", p, err)
	}
	if _, err := ParseRegenPolicy("always"); err == nil {
		t.Error("Expected error for unknown regeneration policy")
	}
}
