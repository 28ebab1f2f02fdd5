package topics

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"help/ignore-rules.md":      {Data: []byte("# Ignore rules\n\nTop, every and include.")},
		"help/symlinks.txt":         {Data: []byte("Links are pulled in.")},
		"help/option-dry-run.txt":   {Data: []byte("Dry run help")},
		"help/descriptors.txxt":     {Data: []byte("Descriptor guide")},
		"help/advanced/packages.md": {Data: []byte("Package trees")},
		"help/notes.json":           {Data: []byte("{}")},
	}
}

func TestNew_ScansTopics(t *testing.T) {
	t.Run("default extensions", func(t *testing.T) {
		tm, err := New(testFS(), Options{})
		require.NoError(t, err)

		assert.Equal(t, []string{"ignore-rules", "option-dry-run", "packages", "symlinks"}, tm.ListTopics())

		topic, ok := tm.GetTopic("ignore-rules")
		require.True(t, ok)
		assert.Equal(t, "help/ignore-rules.md", topic.Path)
		assert.Equal(t, ".md", topic.Format())
	})

	t.Run("custom extensions", func(t *testing.T) {
		tm, err := New(testFS(), Options{Extensions: []string{".txxt"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"descriptors"}, tm.ListTopics())
	})

	t.Run("nil filesystem", func(t *testing.T) {
		tm, err := New(nil, Options{})
		require.NoError(t, err)
		assert.Empty(t, tm.ListTopics())
	})
}

func TestGetTopic(t *testing.T) {
	tm, err := New(testFS(), Options{})
	require.NoError(t, err)

	tests := []struct {
		input    string
		expected string
		exists   bool
	}{
		{"symlinks", "symlinks", true},
		{"option-dry-run", "option-dry-run", true},
		{"dry-run", "option-dry-run", true},
		{"--dry-run", "option-dry-run", true},
		{"-v", "", false},
		{"nonexistent", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			topic, exists := tm.GetTopic(tt.input)
			assert.Equal(t, tt.exists, exists)
			if exists {
				assert.Equal(t, tt.expected, topic.Name)
			}
		})
	}
}

func TestWriteList(t *testing.T) {
	tm, err := New(testFS(), Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	tm.WriteList(&buf, "dopack")

	out := buf.String()
	assert.Contains(t, out, "General topics:\n  ignore-rules\n  packages\n  symlinks\n")
	assert.Contains(t, out, "Option topics:\n  --dry-run\n")
	assert.Contains(t, out, "Use 'dopack help <topic>'")

	empty, err := New(fstest.MapFS{}, Options{})
	require.NoError(t, err)
	buf.Reset()
	empty.WriteList(&buf, "dopack")
	assert.Equal(t, "No help topics available.\n", buf.String())
}

func TestInitialize_HelpCommand(t *testing.T) {
	rootCmd := &cobra.Command{Use: "testapp", Short: "Test application"}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Export something",
		Run:   func(cmd *cobra.Command, args []string) {},
	})

	_, err := Initialize(rootCmd, testFS(), Options{Renderer: RendererFunc(func(content, format string) string {
		return format + ":" + content
	})})
	require.NoError(t, err)

	helpCmd, _, err := rootCmd.Find([]string{"help"})
	require.NoError(t, err)
	assert.Equal(t, "help [command or topic]", helpCmd.Use)

	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{"topic", []string{"help", "symlinks"}, ".txt:Links are pulled in."},
		{"option topic", []string{"help", "dry-run"}, "Dry run help"},
		{"topic list", []string{"help", "topics"}, "Available help topics:"},
		{"command help", []string{"help", "export"}, "Export something"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			rootCmd.SetOut(&buf)
			rootCmd.SetArgs(tt.args)
			require.NoError(t, rootCmd.Execute())
			assert.Contains(t, buf.String(), tt.contains)
		})
	}
}

func TestPlainRenderer(t *testing.T) {
	r := &PlainRenderer{}
	assert.Equal(t, "# Title\n", r.Render("# Title", ".md"))
	assert.Equal(t, "Body\n", r.Render("Body\n\n\n", ".txt"))
}

func TestGlamourRenderer_NonMarkdown(t *testing.T) {
	r := &GlamourRenderer{Style: "notty"}
	assert.Equal(t, "plain text", r.Render("plain text", ".txt"))
	assert.Contains(t, r.Render("# Title\n\nBody text", ".md"), "Body text")
}
