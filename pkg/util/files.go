package util

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Extensions of the media files the tool picks up from folders
var (
	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".webp"}
	AudioExtensions = []string{".mp3", ".wav", ".m4a", ".aac", ".ogg"}
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// TempFile creates a temporary file with a specific extension
func TempFile(dir, pattern, ext string) (*os.File, error) {
	return os.CreateTemp(dir, pattern+"*"+ext)
}

// CleanupFiles removes multiple files, ignoring errors
func CleanupFiles(paths ...string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}

// Stem returns the base name without its extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// HasExtension reports whether path ends in one of exts, ignoring case
func HasExtension(path string, exts []string) bool {
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}

// IsImage reports whether path looks like a supported image
func IsImage(path string) bool { return HasExtension(path, ImageExtensions) }

// IsAudio reports whether path looks like a supported audio file
func IsAudio(path string) bool { return HasExtension(path, AudioExtensions) }

// ListFiles returns the regular files in dir whose extension is in exts,
// sorted by name. Subdirectories are not descended.
func ListFiles(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !HasExtension(entry.Name(), exts) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(files)
	return files, nil
}
