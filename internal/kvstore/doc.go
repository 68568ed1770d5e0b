// Package kvstore provides the persistent key-value capability that speaker
// overrides, display preferences, and custom summary templates are stored
// in.
//
// Values are opaque strings; callers serialize their own JSON. Three
// backends are available: SQLiteStore (default, WAL mode with busy retry),
// FileStore (a single JSON document guarded by an advisory file lock so two
// steno processes never interleave read-modify-write cycles), and Memory for
// tests and throwaway sessions. Every backend is safe for concurrent use.
package kvstore
