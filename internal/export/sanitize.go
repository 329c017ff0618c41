package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

var ErrInvalidOutputDir = errors.New("invalid output directory")

// nameRune maps a rune for use in file names and EDL comments. Control
// characters are dropped and anything outside letters, digits and
// " -_.,()" becomes '_'.
func nameRune(r rune) rune {
	switch {
	case unicode.IsControl(r):
		return -1
	case unicode.IsLetter(r), unicode.IsDigit(r):
		return r
	case strings.ContainsRune(" -_.,()", r):
		return r
	}
	return '_'
}

// SanitizeName cleans s and caps it at maxLen runes (0 means no cap).
func SanitizeName(s string, maxLen int) string {
	out := strings.TrimSpace(strings.Map(nameRune, s))
	if runes := []rune(out); maxLen > 0 && len(runes) > maxLen {
		out = strings.TrimSpace(string(runes[:maxLen]))
	}
	return out
}

// ValidateOutputDir accepts only an existing directory given as a clean
// path with no ".." segment.
func ValidateOutputDir(dir string) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidOutputDir}, args...)...)
	}

	switch {
	case strings.TrimSpace(dir) == "":
		return invalid("path is required")
	case slices.Contains(strings.Split(filepath.ToSlash(dir), "/"), ".."):
		return invalid("path traversal")
	case filepath.Clean(dir) != dir:
		return invalid("path must be clean")
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return invalid("%s does not exist", dir)
	case err != nil:
		return invalid("%v", err)
	case !info.IsDir():
		return invalid("%s is not a directory", dir)
	}
	return nil
}
