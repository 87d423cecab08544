// Package loaders provides implementations of the DocumentLoader
// interface for the file formats found in a documentation corpus.
// Each loader knows how to extract plain text from files of specific
// extensions.
//
// Loaders are registered with the LoaderRegistry at startup.
package loaders
