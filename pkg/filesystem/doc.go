// Package filesystem provides the types.FS implementation used by dopack.
//
// The implementation is backed by afero so the same code path serves the
// real disk (afero.OsFs) and afero-backed fixtures. File content is copied
// with aferocopy. RealPath resolves symbolic links one component at a time
// through the FS interface itself, so it also works for in-memory
// implementations that cannot follow links transparently.
package filesystem
