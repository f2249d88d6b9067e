package title

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dhowden/tag"
)

// Derive returns explicit when it is set, otherwise a title built from the
// audio file name: "for love.mp3" becomes "For Love". Only whitespace
// separates words.
func Derive(audioPath, explicit string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	base := filepath.Base(audioPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return Capitalize(stem)
}

// Capitalize upper-cases the first letter of every whitespace-separated
// word and lower-cases the rest.
func Capitalize(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToTitle(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// FromTags reads the title stored in the audio file's metadata
func FromTags(audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", fmt.Errorf("read tags: %w", err)
	}
	return strings.TrimSpace(m.Title()), nil
}
