// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CorpusScanner: Enumerates documents in the corpus tree
//   - DocumentLoader: Extracts text from a file by extension
//   - LoaderRegistry: Selects the appropriate loader
//   - Chunker: Splits extracted text into overlapping chunks
//   - IndexBackend: Stores, lists and deletes indexed chunks
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - CorpusWatcher: Pushes filesystem change events (watch mode only)
//   - EmbeddingService: Generates vector embeddings. Backends that store
//     vectors require one; backends may also run without vectors.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or loader package
package driven
