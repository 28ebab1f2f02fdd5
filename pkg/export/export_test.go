// Test Type: Integration Test
// Description: Tests for the full export pipeline on in-memory and real filesystems

package export_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/export"
	"github.com/arthur-debert/dopack/pkg/filesystem"
	"github.com/arthur-debert/dopack/pkg/packages"
	"github.com/arthur-debert/dopack/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_IncludeOverridesTopRule(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateFileTree(t, fs, "/src", testutil.FileTree{
		".npmignore": "/dist/\n*.log\n!/dist/keep.txt\n",
		"dist":       testutil.FileTree{"a.log": "", "keep.txt": "keep"},
		"src":        testutil.FileTree{"b.log": "", "c.txt": "see"},
	})

	result, err := export.New(fs).Export(context.Background(), "/out", export.Options{Source: "/src"})
	require.NoError(t, err)

	assert.Equal(t, []string{".npmignore", "dist/", "dist/keep.txt", "src/", "src/c.txt"}, testutil.ListTree(t, fs, "/out"))
	assert.Equal(t, ".npmignore", result.IgnoreFile)
	assert.Equal(t, int64(2), result.Walk.IgnoredFiles)
	require.NotNil(t, result.Copy)
	assert.Equal(t, 3, result.Copy.Files)
	assert.Nil(t, result.Rewrite, "no package tree means no rewrite stage")
}

func TestExport_DefaultRules(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateFileTree(t, fs, "/src", testutil.FileTree{
		".git":       testutil.FileTree{"config": ""},
		".svn":       testutil.FileTree{"entries": ""},
		".DS_Store":  "",
		"._index.js": "",
		"index.js":   "x",
		"lib":        testutil.FileTree{"desktop.ini": "", "a.js": "a"},
	})

	result, err := export.New(fs).Export(context.Background(), "/out", export.Options{Source: "/src"})
	require.NoError(t, err)

	assert.Empty(t, result.IgnoreFile)
	assert.Equal(t, []string{"index.js", "lib/", "lib/a.js"}, testutil.ListTree(t, fs, "/out"))
}

func TestExport_DryRun(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateFileTree(t, fs, "/src", testutil.FileTree{"a.js": "a", "b.log": ""})

	result, err := export.New(fs).Export(context.Background(), "", export.Options{
		Source:       "/src",
		DryRun:       true,
		IgnoreFiles:  []string{".customignore"},
		DefaultRules: []string{"*.log"},
	})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, []string{"a.js"}, result.Manifest.Paths())
	assert.Nil(t, result.Copy)
	_, err = fs.Stat("/out")
	assert.Error(t, err)
}

func TestExport_RewritesPackageTree(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateFileTree(t, fs, "/src", testutil.FileTree{
		"package.json": `{"name": "app", "version": "0.1.0", "scripts": {"test": "jest"}, "bin": "cli.js"}`,
		"cli.js":       "#!/usr/bin/env node",
		"node_modules": testutil.FileTree{
			"dep": testutil.FileTree{
				"package.json": `{"name": "dep", "author": "someone", "main": "index.js"}`,
				"index.js":     "",
			},
		},
	})

	tree := packages.NewTree()
	app := tree.Add(packages.Node{UID: "app@0.1.0", Name: "app"})
	dep := tree.Add(packages.Node{UID: "dep@1.0.0", Name: "dep", Version: "1.0.0", RelPath: "node_modules/dep"})
	require.NoError(t, tree.AddChild(app, "dep", dep))

	result, err := export.New(fs).Export(context.Background(), "/out", export.Options{
		Source:         "/src",
		Packages:       tree,
		PackageManager: "npm",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Rewrite)
	assert.Equal(t, 2, result.Rewrite.Written)

	content, err := fs.ReadFile("/out/package.json")
	require.NoError(t, err)
	assert.Equal(t, `{
  "uid": "app@0.1.0",
  "name": "app",
  "version": "0.1.0",
  "pm": "npm",
  "bin": {
    "app": "cli.js"
  },
  "bundleDependencies": [
    "dep"
  ]
}
`, string(content))

	source, err := fs.ReadFile("/src/package.json")
	require.NoError(t, err)
	assert.Contains(t, string(source), "scripts", "the source tree is never rewritten")
}

func TestExport_Errors(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateFileTree(t, fs, "/src", testutil.FileTree{"a.js": "a"})
	testutil.CreateFileTree(t, fs, "/taken", testutil.FileTree{"x": ""})

	tests := []struct {
		name string
		dest string
		opts export.Options
		code errors.ErrorCode
	}{
		{"no source", "/out", export.Options{}, errors.ErrInvalidInput},
		{"no destination", "", export.Options{Source: "/src"}, errors.ErrInvalidInput},
		{"destination is source", "/src", export.Options{Source: "/src"}, errors.ErrInvalidInput},
		{"destination above source", "/", export.Options{Source: "/src", Replace: true}, errors.ErrInvalidInput},
		{"destination exists", "/taken", export.Options{Source: "/src"}, errors.ErrDestinationExists},
		{"missing source", "/out", export.Options{Source: "/nowhere"}, errors.ErrFilesystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := export.New(fs).Export(context.Background(), tt.dest, tt.opts)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.code, errors.GetErrorCode(err))
		})
	}
}

func TestExport_SymlinkPullInOnDisk(t *testing.T) {
	testutil.SkipOnWindows(t)

	base := t.TempDir()
	external := filepath.Join(base, "external")
	source := filepath.Join(base, "source")
	dest := filepath.Join(base, "dest")

	testutil.CreateFile(t, external, "f.txt", "external content")
	testutil.CreateFile(t, source, "index.js", "module.exports = {}")
	require.NoError(t, os.MkdirAll(filepath.Join(source, "a"), 0755))
	testutil.CreateSymlink(t, external, filepath.Join(source, "a", "link"))
	testutil.CreateSymlink(t, "index.js", filepath.Join(source, "main.js"))

	result, err := export.New(filesystem.NewOS()).Export(context.Background(), dest, export.Options{Source: source})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Copy.Roots)

	pulled := filepath.Join(dest, "a", "link", "f.txt")
	testutil.AssertFileContent(t, pulled, "external content")
	info, err := os.Lstat(filepath.Join(dest, "a", "link"))
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "the link is materialized as a real directory")

	assert.True(t, testutil.SymlinkExists(t, filepath.Join(dest, "main.js")))
	target, err := os.Readlink(filepath.Join(dest, "main.js"))
	require.NoError(t, err)
	assert.Equal(t, "index.js", target)
}

func TestExport_ReplaceIsIdempotent(t *testing.T) {
	testutil.SkipOnWindows(t)

	source := t.TempDir()
	testutil.CreateFile(t, source, ".npmignore", "*.log\nbuild/\n")
	testutil.CreateFile(t, source, "index.js", "console.log('hi')")
	testutil.CreateFile(t, source, "lib/util.js", "exports.x = 1")
	testutil.CreateFile(t, source, "lib/debug.log", "noise")
	testutil.CreateFile(t, source, "build/out.js", "compiled")
	testutil.CreateSymlink(t, "lib/util.js", filepath.Join(source, "util.js"))

	// an in-tree destination must not end up inside its own export
	dest := filepath.Join(source, "dist")
	exporter := export.New(filesystem.NewOS())

	_, err := exporter.Export(context.Background(), dest, export.Options{Source: source})
	require.NoError(t, err)
	first := testutil.TreeChecksum(t, dest)

	_, err = exporter.Export(context.Background(), dest, export.Options{Source: source})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrDestinationExists))

	_, err = exporter.Export(context.Background(), dest, export.Options{Source: source, Replace: true, Concurrency: 1})
	require.NoError(t, err)
	assert.Equal(t, first, testutil.TreeChecksum(t, dest))

	assert.False(t, testutil.FileExists(t, filepath.Join(dest, "dist")))
	assert.False(t, testutil.FileExists(t, filepath.Join(dest, "lib", "debug.log")))
	assert.False(t, testutil.FileExists(t, filepath.Join(dest, "build")))
}

func TestExport_AncestorDestinationKeepsSource(t *testing.T) {
	base := t.TempDir()
	project := filepath.Join(base, "proj")
	source := filepath.Join(project, "src")
	testutil.CreateFile(t, source, "a.txt", "keep me")

	for _, dest := range []string{project, base} {
		_, err := export.New(filesystem.NewOS()).Export(context.Background(), dest, export.Options{
			Source:  source,
			Replace: true,
		})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
		details := errors.GetErrorDetails(err)
		assert.Equal(t, source, details["source"])
		assert.Equal(t, dest, details["destination"])

		testutil.AssertFileContent(t, filepath.Join(source, "a.txt"), "keep me")
	}
}
