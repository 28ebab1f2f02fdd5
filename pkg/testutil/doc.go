// Package testutil provides utilities for testing dopack components.
//
// Key components:
//   - MemoryFS: in-memory types.FS with real symlink semantics and error
//     injection, for fast, isolated tests
//   - FileTree: declarative tree setup for MemoryFS or any other types.FS
//   - OS helpers: temp-dir fixtures for the few tests that need real links
//
// Usage guidelines:
//   - Prefer MemoryFS; reach for t.TempDir only when the code under test
//     talks to the real disk (aferocopy, afero.OsFs)
//   - All test data should be defined inline, not in external files
package testutil
