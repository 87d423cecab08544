package loaders

import (
	"github.com/vellum-labs/kbsync-cli/internal/loaders/pdf"
	"github.com/vellum-labs/kbsync-cli/internal/loaders/text"
)

// RegisterDefaults registers all built-in loaders with the registry.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) {
	r.Register(text.New())
	r.Register(pdf.New())
}
