package topics

import "strings"

// Renderer turns a topic's raw content into terminal output. format is the
// topic file extension, such as ".md".
type Renderer interface {
	Render(content string, format string) string
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(content, format string) string

// Render calls f.
func (f RendererFunc) Render(content, format string) string {
	return f(content, format)
}

// PlainRenderer prints topics as written, ending in exactly one newline.
type PlainRenderer struct{}

// Render returns content with its trailing blank lines collapsed.
func (r *PlainRenderer) Render(content string, format string) string {
	return strings.TrimRight(content, "\n") + "\n"
}
