package export

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

const maxTitleRunes = 120

// ExportBaseName turns a project title into the base file name of its
// export. A title that sanitizes away entirely falls back to a fixed name
// so the export always lands somewhere predictable.
func ExportBaseName(title string) string {
	name := SanitizeName(title, maxTitleRunes)
	if name == "" {
		return "cutroom_export"
	}
	return name
}

// SanitizeName strips control characters, replaces runes that are unsafe in
// file names with underscores and caps the result at maxLen runes.
func SanitizeName(s string, maxLen int) string {
	cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return r
		case strings.ContainsRune(" -_.,()", r):
			return r
		default:
			return '_'
		}
	}, s))

	if maxLen > 0 {
		if runes := []rune(cleaned); len(runes) > maxLen {
			return string(runes[:maxLen])
		}
	}
	return cleaned
}

// ValidateOutputDir accepts only a clean, existing directory path, so a
// caller-supplied destination cannot traverse out of where it points.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("output_dir is required")
	}
	if slices.Contains(strings.Split(filepath.ToSlash(dir), "/"), "..") {
		return fmt.Errorf("output_dir cannot contain path traversal")
	}
	if filepath.Clean(dir) != dir {
		return fmt.Errorf("output_dir must be clean path")
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output_dir does not exist")
		}
		return fmt.Errorf("invalid output_dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output_dir is not a directory")
	}
	return nil
}
