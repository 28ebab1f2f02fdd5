package testutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// maxLinkHops mirrors filesystem.MaxLinkHops so loop tests behave the same
// in memory and on disk.
const maxLinkHops = 40

var (
	errNotDir     = errors.New("not a directory")
	errIsDir      = errors.New("is a directory")
	errNotEmpty   = errors.New("directory not empty")
	errNotLink    = errors.New("not a symbolic link")
	errLinkLoop   = errors.New("too many levels of symbolic links")
	errNotRegular = errors.New("not a regular file")
)

// MemoryFS implements types.FS with an in-memory tree. Symbolic links are
// real nodes: Stat and friends follow them, Lstat and Readlink do not.
type MemoryFS struct {
	mu   sync.RWMutex
	root *fileNode

	// Error injection
	errorPaths map[string]error

	// Statistics
	readCount  int
	writeCount int
}

// fileNode represents a file, directory or symlink in memory
type fileNode struct {
	mode     os.FileMode
	modTime  time.Time
	content  []byte
	isDir    bool
	isLink   bool
	linkDest string
	children map[string]*fileNode
}

// NewMemoryFS creates a new in-memory filesystem
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		root:       newDirNode(0755),
		errorPaths: make(map[string]error),
	}
}

func newDirNode(perm os.FileMode) *fileNode {
	return &fileNode{
		mode:     perm | os.ModeDir,
		modTime:  time.Now(),
		isDir:    true,
		children: make(map[string]*fileNode),
	}
}

func normalizePath(path string) string {
	if !filepath.IsAbs(path) {
		path = "/" + path
	}
	return filepath.Clean(path)
}

func splitParts(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// lookup walks path from the root, following symlinks in every intermediate
// component and, when followLast is set, in the final one as well.
func (m *MemoryFS) lookup(op, path string, followLast bool) (*fileNode, error) {
	path = normalizePath(path)
	if err, ok := m.errorPaths[path]; ok {
		return nil, err
	}

	pending := splitParts(path)
	node := m.root
	resolved := "/"
	hops := 0

	for len(pending) > 0 {
		part := pending[0]
		pending = pending[1:]

		switch part {
		case ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			node = m.walkResolved(resolved)
			continue
		}

		if !node.isDir {
			return nil, &fs.PathError{Op: op, Path: path, Err: errNotDir}
		}
		child, ok := node.children[part]
		if !ok {
			return nil, &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
		}

		if child.isLink && (len(pending) > 0 || followLast) {
			hops++
			if hops > maxLinkHops {
				return nil, &fs.PathError{Op: op, Path: path, Err: errLinkLoop}
			}
			target := child.linkDest
			if filepath.IsAbs(target) {
				node = m.root
				resolved = "/"
			}
			pending = append(splitParts(target), pending...)
			continue
		}

		node = child
		resolved = filepath.Join(resolved, part)
		if err, ok := m.errorPaths[resolved]; ok {
			return nil, err
		}
	}

	return node, nil
}

// walkResolved returns the node for a path known to contain no symlinks.
func (m *MemoryFS) walkResolved(path string) *fileNode {
	node := m.root
	for _, part := range splitParts(path) {
		node = node.children[part]
	}
	return node
}

// parentOf resolves the directory that holds path and returns it with the
// final path element.
func (m *MemoryFS) parentOf(op, path string) (*fileNode, string, error) {
	path = normalizePath(path)
	if path == "/" {
		return nil, "", &fs.PathError{Op: op, Path: path, Err: fs.ErrInvalid}
	}
	if err, ok := m.errorPaths[path]; ok {
		return nil, "", err
	}
	parent, err := m.lookup(op, filepath.Dir(path), true)
	if err != nil {
		return nil, "", err
	}
	if !parent.isDir {
		return nil, "", &fs.PathError{Op: op, Path: path, Err: errNotDir}
	}
	return parent, filepath.Base(path), nil
}

// ReadFile reads the entire file content
func (m *MemoryFS) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	m.readCount++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.lookup("read", name, true)
	if err != nil {
		return nil, err
	}
	if node.isDir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: errIsDir}
	}

	content := make([]byte, len(node.content))
	copy(content, node.content)
	return content, nil
}

// WriteFile writes data to a file, creating it and its parents if necessary
func (m *MemoryFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writeCount++

	if err := m.mkdirAll(filepath.Dir(normalizePath(name)), 0755); err != nil {
		return err
	}
	parent, base, err := m.parentOf("write", name)
	if err != nil {
		return err
	}

	if existing, ok := parent.children[base]; ok {
		target := existing
		if existing.isLink {
			if target, err = m.lookup("write", name, true); err != nil {
				return err
			}
		}
		if target.isDir {
			return &fs.PathError{Op: "write", Path: name, Err: errIsDir}
		}
		target.content = append([]byte(nil), data...)
		target.modTime = time.Now()
		return nil
	}

	parent.children[base] = &fileNode{
		mode:    perm,
		modTime: time.Now(),
		content: append([]byte(nil), data...),
	}
	return nil
}

// Stat returns file info, following symlinks
func (m *MemoryFS) Stat(name string) (os.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.lookup("stat", name, true)
	if err != nil {
		return nil, err
	}
	return &fileInfo{node: node, name: filepath.Base(name)}, nil
}

// Lstat returns file info without following a final symlink
func (m *MemoryFS) Lstat(name string) (os.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.lookup("lstat", name, false)
	if err != nil {
		return nil, err
	}
	return &fileInfo{node: node, name: filepath.Base(name)}, nil
}

// Chtimes updates the modification time of the node path resolves to
func (m *MemoryFS) Chtimes(name string, atime, mtime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, err := m.lookup("chtimes", name, true)
	if err != nil {
		return err
	}
	node.modTime = mtime
	return nil
}

// CopyFile copies a regular file's content and mode to dst
func (m *MemoryFS) CopyFile(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.readCount++
	m.writeCount++

	node, err := m.lookup("copy", src, true)
	if err != nil {
		return err
	}
	if node.isDir {
		return &fs.PathError{Op: "copy", Path: src, Err: errNotRegular}
	}

	parent, base, err := m.parentOf("copy", dst)
	if err != nil {
		return err
	}
	if existing, ok := parent.children[base]; ok && existing.isDir {
		return &fs.PathError{Op: "copy", Path: dst, Err: errIsDir}
	}

	parent.children[base] = &fileNode{
		mode:    node.mode.Perm(),
		modTime: time.Now(),
		content: append([]byte(nil), node.content...),
	}
	return nil
}

// Remove removes a file, symlink or empty directory
func (m *MemoryFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, base, err := m.parentOf("remove", name)
	if err != nil {
		return err
	}
	node, ok := parent.children[base]
	if !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	if node.isDir && len(node.children) > 0 {
		return &fs.PathError{Op: "remove", Path: name, Err: errNotEmpty}
	}

	delete(parent.children, base)
	return nil
}

// RemoveAll removes a path and everything beneath it. A missing path is not
// an error.
func (m *MemoryFS) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, base, err := m.parentOf("removeall", path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	delete(parent.children, base)
	return nil
}

// MkdirAll creates a directory and all necessary parents
func (m *MemoryFS) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mkdirAll(path, perm)
}

// mkdirAll is the internal implementation without locking
func (m *MemoryFS) mkdirAll(path string, perm os.FileMode) error {
	path = normalizePath(path)
	if err, ok := m.errorPaths[path]; ok {
		return err
	}

	if node, err := m.lookup("mkdir", path, true); err == nil {
		if !node.isDir {
			return &fs.PathError{Op: "mkdir", Path: path, Err: errNotDir}
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != path {
		if err := m.mkdirAll(dir, perm); err != nil {
			return err
		}
	}

	parent, base, err := m.parentOf("mkdir", path)
	if err != nil {
		return err
	}
	if _, exists := parent.children[base]; exists {
		// a dangling symlink occupies the name
		return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrExist}
	}
	parent.children[base] = newDirNode(perm)
	return nil
}

// Readlink returns the destination of a symbolic link
func (m *MemoryFS) Readlink(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.lookup("readlink", name, false)
	if err != nil {
		return "", err
	}
	if !node.isLink {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: errNotLink}
	}
	return node.linkDest, nil
}

// Symlink creates a symbolic link
func (m *MemoryFS) Symlink(target, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, base, err := m.parentOf("symlink", link)
	if err != nil {
		return err
	}
	if _, exists := parent.children[base]; exists {
		return &fs.PathError{Op: "symlink", Path: link, Err: fs.ErrExist}
	}

	parent.children[base] = &fileNode{
		mode:     0777 | os.ModeSymlink,
		modTime:  time.Now(),
		isLink:   true,
		linkDest: target,
	}
	return nil
}

// ReadDir reads a directory and returns its entries sorted by name
func (m *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.Lock()
	m.readCount++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.lookup("readdir", name, true)
	if err != nil {
		return nil, err
	}
	if !node.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: errNotDir}
	}

	entries := make([]fs.DirEntry, 0, len(node.children))
	for childName, child := range node.children {
		entries = append(entries, &dirEntry{
			name: childName,
			info: &fileInfo{node: child, name: childName},
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	return entries, nil
}

// WithError configures the filesystem to return an error for a specific path
func (m *MemoryFS) WithError(path string, err error) *MemoryFS {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errorPaths[normalizePath(path)] = err
	return m
}

// Stats returns filesystem operation statistics
func (m *MemoryFS) Stats() (reads, writes int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.readCount, m.writeCount
}

// fileInfo implements os.FileInfo
type fileInfo struct {
	node *fileNode
	name string
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return int64(len(fi.node.content)) }
func (fi *fileInfo) Mode() os.FileMode  { return fi.node.mode }
func (fi *fileInfo) ModTime() time.Time { return fi.node.modTime }
func (fi *fileInfo) IsDir() bool        { return fi.node.isDir }
func (fi *fileInfo) Sys() interface{}   { return nil }

// dirEntry implements fs.DirEntry
type dirEntry struct {
	name string
	info os.FileInfo
}

func (de *dirEntry) Name() string               { return de.name }
func (de *dirEntry) IsDir() bool                { return de.info.IsDir() }
func (de *dirEntry) Type() os.FileMode          { return de.info.Mode().Type() }
func (de *dirEntry) Info() (os.FileInfo, error) { return de.info, nil }
