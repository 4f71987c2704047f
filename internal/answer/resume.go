package answer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// maxResumeBytes caps the resume sent with every prompt
const maxResumeBytes = 16 * 1024

// LoadResume reads a plain-text or markdown resume
func LoadResume(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md", "":
	default:
		return "", fmt.Errorf("unsupported resume format %q (use .txt or .md)", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read resume: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("resume %s is not UTF-8 text", path)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("resume %s is empty", path)
	}
	if len(text) > maxResumeBytes {
		cut := maxResumeBytes
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text, nil
}
