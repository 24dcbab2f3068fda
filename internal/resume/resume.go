package resume

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
)

// ReadFile extracts the plain text of a resume. Text files are read as is, office and PDF
// documents are converted.
func ReadFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var text string
	switch ext {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read resume %s: %w", path, err)
		}
		text = string(data)
	case ".pdf", ".docx", ".doc", ".rtf", ".odt":
		res, err := docconv.ConvertPath(path)
		if err != nil {
			return "", fmt.Errorf("convert resume %s: %w", path, err)
		}
		text = res.Body
	default:
		return "", fmt.Errorf("unsupported resume file type %q", ext)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("resume %s has no text", path)
	}

	return text, nil
}
