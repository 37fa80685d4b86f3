// Package tokenstore persists auth.Credential values under a stable key.
//
// Three backends are provided:
//
//   - MemoryStore: process-local, for tests and short-lived tools
//   - FileStore: one JSON file per key, replaced atomically by rename
//   - SQLStore: a row per key in any database bun supports (sqlite, postgres)
//
// Every Save is atomic with respect to the next Load: a crash mid-save leaves
// either the previous credential or the new one, never a partial record.
package tokenstore
