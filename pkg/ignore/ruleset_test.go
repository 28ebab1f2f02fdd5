// Test Type: Unit Test
// Description: Tests for ignore rule compilation, matching policy and loading

package ignore_test

import (
	"bytes"
	"testing"

	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/ignore"
	"github.com/arthur-debert/dopack/pkg/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		ok       bool
		scope    ignore.Scope
		text     string
		prefix   string
		dirOnly  bool
		anchored bool
	}{
		{name: "blank", line: "   ", ok: false},
		{name: "comment", line: "# build output", ok: false},
		{name: "lone slash", line: "/", ok: false},
		{name: "every", line: "*.log", ok: true, scope: ignore.ScopeEvery, text: "*.log", prefix: ""},
		{name: "every literal", line: "coverage", ok: true, scope: ignore.ScopeEvery, text: "coverage", prefix: "coverage"},
		{name: "top dir", line: "/dist/", ok: true, scope: ignore.ScopeTop, text: "dist", prefix: "dist", dirOnly: true, anchored: true},
		{name: "inner slash anchors", line: "docs/*.md", ok: true, scope: ignore.ScopeTop, text: "docs/*.md", prefix: "docs/", anchored: true},
		{name: "anchored include", line: "!/dist/keep.txt", ok: true, scope: ignore.ScopeInclude, text: "dist/keep.txt", prefix: "dist/keep.txt", anchored: true},
		{name: "basename include", line: "!README*", ok: true, scope: ignore.ScopeInclude, text: "README*", prefix: "README"},
		{name: "trailing cr", line: "tmp/\r", ok: true, scope: ignore.ScopeEvery, text: "tmp", prefix: "tmp", dirOnly: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := ignore.Compile(tt.line)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.scope, rule.Scope)
			assert.Equal(t, tt.text, rule.Text)
			assert.Equal(t, tt.prefix, rule.Prefix)
			assert.Equal(t, tt.dirOnly, rule.DirOnly)
			assert.Equal(t, tt.anchored, rule.Anchored)
		})
	}
}

func TestRuleMatches(t *testing.T) {
	rule, ok := ignore.Compile("*.log")
	require.True(t, ok)

	assert.True(t, rule.Matches("a.log", false))
	assert.True(t, rule.Matches(".log", false))
	assert.False(t, rule.Matches("a.log.gz", false))
	assert.False(t, rule.Matches("dir/a.log", false), "wildcard must not cross separators")

	literal, ok := ignore.Compile("a+b(1).txt")
	require.True(t, ok)
	assert.True(t, literal.Matches("a+b(1).txt", false), "regexp metacharacters are literal")

	dirOnly, ok := ignore.Compile("build/")
	require.True(t, ok)
	assert.True(t, dirOnly.Matches("build", true))
	assert.False(t, dirOnly.Matches("build", false))
}

func TestMatchPolicy(t *testing.T) {
	rs := ignore.Parse("/dist/\n*.log\n!/dist/keep.txt\n")

	tests := []struct {
		path    string
		isDir   bool
		ignored bool
	}{
		{"dist", true, true},
		{"dist/a.log", false, true},
		{"dist/keep.txt", false, false},
		{"src/b.log", false, true},
		{"src/c.txt", false, false},
		{"src", true, false},
		{"lib/dist", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.ignored, rs.Match(tt.path, tt.isDir))
		})
	}
}

func TestIncludeAlwaysWins(t *testing.T) {
	rs := ignore.Parse("/secret/\nsecret\n*.key\n!/secret/public.key\n!*.pub")

	candidates := []struct {
		path  string
		isDir bool
	}{
		{"secret/public.key", false},
		{"nested/id.pub", false},
		{"secret/id.pub", false},
	}
	for _, c := range candidates {
		assert.True(t, rs.Included(c.path, c.isDir), c.path)
		assert.False(t, rs.Match(c.path, c.isDir), c.path)
	}
	assert.True(t, rs.Match("secret/private.key", false))
}

func TestIncludedCoversSubtree(t *testing.T) {
	rs := ignore.Parse("/vendor/\n!/vendor/keep/")

	assert.True(t, rs.Included("vendor/keep", true))
	assert.True(t, rs.Included("vendor/keep/deep/file.go", false))
	assert.False(t, rs.Included("vendor/other/file.go", false))
	assert.False(t, rs.Included("vendor/keep", false), "dir-only include does not name a file")
}

func TestDescendInto(t *testing.T) {
	rs := ignore.Parse("/dist/\n!/dist/sub/keep.txt\n!/build/*/out.js\n!keep.me")

	assert.True(t, rs.DescendInto("dist"))
	assert.True(t, rs.DescendInto("dist/sub"))
	assert.False(t, rs.DescendInto("dist/other"))
	assert.True(t, rs.DescendInto("build"))
	assert.True(t, rs.DescendInto("build/x"))
	assert.False(t, rs.DescendInto("src"), "unanchored includes never force descent")
}

func TestIncludeRoots(t *testing.T) {
	rs := ignore.Parse("!/dist/keep.txt\n!/build/*/out.js\n!keep.me\n*.tmp")

	assert.Equal(t, []string{"dist/keep.txt"}, rs.IncludeRoots())
	assert.Equal(t, 4, rs.Len())
}

func TestRulesOrdering(t *testing.T) {
	rs := ignore.Parse("*.log\n/dist/\n!/dist/keep.txt\n*.tmp")

	var got []string
	for _, r := range rs.Rules() {
		got = append(got, r.String())
	}
	assert.Equal(t, []string{"/dist/", "*.log", "*.tmp", "!/dist/keep.txt"}, got)
}

func TestLoad(t *testing.T) {
	t.Run("first_candidate_wins", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.CreateFileTree(t, fs, "/src", testutil.FileTree{
			".npmignore": "*.log\n",
			".gitignore": "*.txt\n",
		})

		rs, err := ignore.Load(fs, "/src", ignore.LoadOptions{})
		require.NoError(t, err)

		assert.Equal(t, ".npmignore", rs.Source)
		assert.True(t, rs.Match("a.log", false))
		assert.False(t, rs.Match("a.txt", false), ".gitignore must not be merged in")
	})

	t.Run("defaults_when_no_file", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.CreateFileTree(t, fs, "/src", testutil.FileTree{"index.js": ""})

		rs, err := ignore.Load(fs, "/src", ignore.LoadOptions{})
		require.NoError(t, err)

		assert.Empty(t, rs.Source)
		assert.Equal(t, len(ignore.DefaultRules), rs.Len())
		assert.True(t, rs.Match(".git", true))
		assert.True(t, rs.Match(".git/config", false))
		assert.True(t, rs.Match("lib/.DS_Store", false))
		assert.True(t, rs.Match("._index.js", false))
		assert.False(t, rs.Match("index.js", false))
		assert.False(t, rs.Match("node_modules", true))
	})

	t.Run("custom_candidates_and_defaults", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.CreateFileTree(t, fs, "/src", testutil.FileTree{".gitignore": "*.js"})

		rs, err := ignore.Load(fs, "/src", ignore.LoadOptions{Files: []string{".packignore"}, Defaults: []string{"*.md"}})
		require.NoError(t, err)

		assert.True(t, rs.Match("README.md", false))
		assert.False(t, rs.Match("index.js", false))
	})

	t.Run("host_logger", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.CreateFileTree(t, fs, "/src", testutil.FileTree{".npmignore": "*.log\n"})

		var buf bytes.Buffer
		logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
		zerolog.SetGlobalLevel(zerolog.DebugLevel)

		_, err := ignore.Load(fs, "/src", ignore.LoadOptions{Logger: &logger})
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `"component":"ignore"`)
		assert.Contains(t, buf.String(), "Loaded ignore file")
	})

	t.Run("read_error_is_filesystem", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.CreateFileTree(t, fs, "/src", testutil.FileTree{".distignore": "x"})
		fs.WithError("/src/.distignore", assert.AnError)

		_, err := ignore.Load(fs, "/src", ignore.LoadOptions{})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrFilesystem))
	})
}
