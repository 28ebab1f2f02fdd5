package walker

import (
	"path"
	"sort"
	"time"
)

// Entry is one member of the export. Path is root-relative and always uses
// "/" separators. An entry reached through a symbolic link keeps the link's
// path; SymlinkTarget holds the raw link value and SymlinkRealPath the fully
// resolved target.
type Entry struct {
	Path            string    `json:"path"`
	IsDir           bool      `json:"isDir"`
	ModTime         time.Time `json:"mtime"`
	Size            int64     `json:"size,omitempty"`
	SymlinkTarget   string    `json:"symlinkTarget,omitempty"`
	SymlinkRealPath string    `json:"symlinkRealPath,omitempty"`
}

// IsSymlink reports whether the entry was reached through a link.
func (e Entry) IsSymlink() bool {
	return e.SymlinkRealPath != ""
}

// Manifest maps root-relative paths to entries.
type Manifest map[string]Entry

// Get returns the entry for p.
func (m Manifest) Get(p string) (Entry, bool) {
	e, ok := m[p]
	return e, ok
}

// Has reports whether p is part of the export. The root ("" or ".") is
// always part of it.
func (m Manifest) Has(p string) bool {
	if p == "" || p == "." {
		return true
	}
	_, ok := m[p]
	return ok
}

// Paths returns all paths in lexical order.
func (m Manifest) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Files returns the non-directory entries in path order.
func (m Manifest) Files() []Entry {
	var files []Entry
	for _, p := range m.Paths() {
		if e := m[p]; !e.IsDir {
			files = append(files, e)
		}
	}
	return files
}

// Size returns the total size of the files in the manifest.
func (m Manifest) Size() int64 {
	var total int64
	for _, e := range m {
		if !e.IsDir {
			total += e.Size
		}
	}
	return total
}

func (m Manifest) merge(other Manifest) {
	for k, v := range other {
		m[k] = v
	}
}

func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}
