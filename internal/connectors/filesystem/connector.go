// Package filesystem scans and watches a documentation corpus laid
// out as <root>/<product>/<files>. The first directory level names
// the product; everything below it belongs to that product.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
)

// Connector enumerates and watches the corpus tree.
type Connector struct {
	rootPath    string
	extensions  map[string]struct{}
	fingerprint bool
}

var (
	_ driven.CorpusScanner = (*Connector)(nil)
	_ driven.CorpusWatcher = (*Connector)(nil)
)

// Option adjusts connector behavior.
type Option func(*Connector)

// WithFingerprints makes Scan hash every file (hex SHA-256) so the
// diff can classify modified-in-place files as updated. Costs one full
// read of the corpus per run.
func WithFingerprints() Option {
	return func(c *Connector) {
		c.fingerprint = true
	}
}

// New creates a connector for the corpus rooted at rootPath,
// recognizing files with the given extensions (lowercase, leading dot).
func New(rootPath string, extensions []string, opts ...Option) *Connector {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}

	c := &Connector{
		rootPath:   rootPath,
		extensions: exts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the corpus root directory.
func (c *Connector) Root() string {
	return c.rootPath
}

// Scan walks the corpus and streams every recognized file. The error
// channel carries at most one error; a scan that errors is incomplete
// and must not be diffed, because unvisited files would be
// misclassified as deleted.
func (c *Connector) Scan(ctx context.Context) (<-chan domain.CorpusEntry, <-chan error) {
	entries := make(chan domain.CorpusEntry)
	errs := make(chan error, 1)

	go func() {
		defer close(entries)
		defer close(errs)

		root, err := c.absRoot()
		if err != nil {
			errs <- &domain.ScanError{Path: c.rootPath, Err: err}
			return
		}

		products, err := os.ReadDir(root)
		if err != nil {
			errs <- &domain.ScanError{Path: root, Err: err}
			return
		}

		seen := make(map[string]struct{})

		for _, dirent := range products {
			// Files directly under the root have no product category
			// and are not indexed.
			if !dirent.IsDir() {
				continue
			}
			product := dirent.Name()
			if isHidden(product) {
				continue
			}

			if err := c.walkProduct(ctx, root, product, seen, entries); err != nil {
				errs <- &domain.ScanError{Path: filepath.Join(root, product), Err: err}
				return
			}
		}
	}()

	return entries, errs
}

// walkProduct emits every recognized file under one product
// directory. Nested subdirectories keep the top-level product tag.
func (c *Connector) walkProduct(ctx context.Context, root, product string, seen map[string]struct{}, out chan<- domain.CorpusEntry) error {
	productDir := filepath.Join(root, product)

	return filepath.WalkDir(productDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != productDir && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(d.Name()) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := c.extensions[ext]; !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		id := filepath.ToSlash(rel)
		if _, dup := seen[id]; dup {
			return nil
		}
		seen[id] = struct{}{}

		entry := domain.CorpusEntry{Path: id, AbsPath: path, Product: product}
		if c.fingerprint {
			entry.Fingerprint = hashFile(path)
		}

		select {
		case out <- entry:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// hashFile returns the hex SHA-256 of the file's bytes, or "" when the
// file cannot be read. An unreadable file is left to the loader, which
// records the real failure.
func hashFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close() //nolint:errcheck

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Watch emits an event per relevant filesystem change under the
// corpus root. Directories created while watching are registered so
// their contents keep producing events. The channel closes on context
// cancellation or watcher failure.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.CorpusEvent, error) {
	root, err := c.absRoot()
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	// fsnotify does not recurse; register the root and every visible
	// directory below it.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close() //nolint:errcheck
		return nil, fmt.Errorf("watching %s: %w", root, err)
	}

	events := make(chan domain.CorpusEvent)

	go func() {
		defer close(events)
		defer watcher.Close() //nolint:errcheck

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// New directories must be registered before their
				// contents produce events.
				if event.Op.Has(fsnotify.Create) {
					if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
						if !isHidden(filepath.Base(event.Name)) {
							watcher.Add(event.Name) //nolint:errcheck
						}
						continue
					}
				}

				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}

				select {
				case events <- *change:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// A broken watcher cannot be trusted to report
				// further changes; closing the channel tells the
				// caller to re-establish the watch.
				return
			}
		}
	}()

	return events, nil
}

// handleFsEvent converts a filesystem notification into a corpus
// event. Returns nil for events a sync has no use for: directories,
// hidden files, unrecognized extensions, chmod.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.CorpusEvent {
	path := event.Name
	if isHidden(path) {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := c.extensions[ext]; !ok {
		return nil
	}

	switch {
	case event.Op.Has(fsnotify.Create):
		if !isRegularFile(path) {
			return nil
		}
		return &domain.CorpusEvent{Path: path, Type: domain.ChangeCreated}

	case event.Op.Has(fsnotify.Write):
		if !isRegularFile(path) {
			return nil
		}
		return &domain.CorpusEvent{Path: path, Type: domain.ChangeUpdated}

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		// The path is already gone; no stat possible.
		return &domain.CorpusEvent{Path: path, Type: domain.ChangeDeleted}

	default:
		return nil
	}
}

// absRoot resolves and validates the corpus root.
func (c *Connector) absRoot() (string, error) {
	root, err := filepath.Abs(c.rootPath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("corpus root %s does not exist", root)
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("corpus root %s is not a directory", root)
	}

	return root, nil
}

// isRegularFile reports whether path exists and is a regular file.
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// isHidden reports whether any component of the path starts with a
// dot. The relative markers "." and ".." do not count as hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
