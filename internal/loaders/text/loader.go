// Package text provides a loader for plain text formats. Markdown is
// loaded verbatim: heading markers and inline formatting survive into
// the index, where they do no harm and keep the text searchable.
package text

import (
	"context"
	"fmt"
	"os"

	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Loader handles plain text and markdown files.
type Loader struct{}

// New creates a new text loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".md", ".markdown", ".txt"}
}

// Priority returns the selection priority.
func (l *Loader) Priority() int {
	return 5 // Fallback loader
}

// Load reads the file and returns its content as-is.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	return string(content), nil
}
