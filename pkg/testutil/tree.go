package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/arthur-debert/dopack/pkg/types"
)

// FileTree represents a nested file structure for declarative test setup.
// Values are file contents (string), nested directories (FileTree) or
// symbolic links (Link).
type FileTree map[string]interface{}

// Link declares a symbolic link inside a FileTree; the value is the raw
// link target.
type Link string

// CreateFileTree materializes tree under basePath on fs. Entries are created
// in name order so links declared before their targets still work.
func CreateFileTree(t *testing.T, fs types.FS, basePath string, tree FileTree) {
	t.Helper()

	if err := fs.MkdirAll(basePath, 0755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", basePath, err)
	}

	names := make([]string, 0, len(tree))
	for name := range tree {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fullPath := filepath.Join(basePath, name)

		switch v := tree[name].(type) {
		case string:
			if err := fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
				t.Fatalf("Failed to create parent of %s: %v", fullPath, err)
			}
			if err := fs.WriteFile(fullPath, []byte(v), 0644); err != nil {
				t.Fatalf("Failed to write file %s: %v", fullPath, err)
			}
		case Link:
			if err := fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
				t.Fatalf("Failed to create parent of %s: %v", fullPath, err)
			}
			if err := fs.Symlink(string(v), fullPath); err != nil {
				t.Fatalf("Failed to create symlink %s -> %s: %v", fullPath, v, err)
			}
		case FileTree:
			CreateFileTree(t, fs, fullPath, v)
		default:
			t.Fatalf("Invalid file tree content type for %s: %T", name, v)
		}
	}
}

// ListTree returns every path under root relative to it, with "/" appended
// to directories and " -> target" to symlinks. Useful for comparing whole
// exported trees in one assertion.
func ListTree(t *testing.T, fs types.FS, root string) []string {
	t.Helper()

	var out []string
	var walk func(dir, rel string)
	walk = func(dir, rel string) {
		entries, err := fs.ReadDir(dir)
		if err != nil {
			t.Fatalf("Failed to list %s: %v", dir, err)
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			name := entry.Name()
			if rel != "" {
				name = rel + "/" + name
			}
			info, err := fs.Lstat(path)
			if err != nil {
				t.Fatalf("Failed to lstat %s: %v", path, err)
			}
			switch {
			case info.Mode()&os.ModeSymlink != 0:
				target, err := fs.Readlink(path)
				if err != nil {
					t.Fatalf("Failed to readlink %s: %v", path, err)
				}
				out = append(out, name+" -> "+target)
			case info.IsDir():
				out = append(out, name+"/")
				walk(path, name)
			default:
				out = append(out, name)
			}
		}
	}
	walk(root, "")
	sort.Strings(out)
	return out
}
