package loaders

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
)

// Registry maps file extensions to loaders. When several loaders
// claim the same extension the highest priority wins.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]driven.DocumentLoader
}

var _ driven.LoaderRegistry = (*Registry)(nil)

// NewRegistry creates an empty loader registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt: make(map[string]driven.DocumentLoader),
	}
}

// Register adds a loader to the registry. Extensions already claimed
// by a higher-priority loader are left untouched.
func (r *Registry) Register(loader driven.DocumentLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range loader.Extensions() {
		ext = strings.ToLower(ext)
		current, ok := r.byExt[ext]
		if !ok || loader.Priority() > current.Priority() {
			r.byExt[ext] = loader
		}
	}
}

// ForExtension returns the loader registered for the extension.
func (r *Registry) ForExtension(ext string) (driven.DocumentLoader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loader, ok := r.byExt[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedExtension, ext)
	}
	return loader, nil
}

// SupportedExtensions returns all registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
