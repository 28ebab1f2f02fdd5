// Package json provides machine-readable JSON output
package json

import (
	"io"

	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/export"
	"github.com/arthur-debert/dopack/pkg/ignore"
	"github.com/arthur-debert/dopack/pkg/walker"
	jsoniter "github.com/json-iterator/go"
)

var api = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

// Renderer provides JSON output for machine consumption
type Renderer struct {
	output io.Writer
}

// New creates a new JSON renderer
func New(output io.Writer) (*Renderer, error) {
	return &Renderer{output: output}, nil
}

// encode writes v as one indented document
func (r *Renderer) encode(v interface{}) error {
	data, err := api.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = r.output.Write(append(data, '\n'))
	return err
}

// RenderExport renders the export result as JSON
func (r *Renderer) RenderExport(result *export.Result) error {
	return r.encode(result)
}

// RenderManifest renders the manifest entries in path order
func (r *Renderer) RenderManifest(manifest walker.Manifest) error {
	entries := make([]walker.Entry, 0, len(manifest))
	for _, p := range manifest.Paths() {
		entries = append(entries, manifest[p])
	}
	return r.encode(entries)
}

type ruleObject struct {
	Scope   string `json:"scope"`
	Pattern string `json:"pattern"`
	DirOnly bool   `json:"dirOnly,omitempty"`
}

type rulesObject struct {
	Source string       `json:"source"`
	Rules  []ruleObject `json:"rules"`
}

// RenderRules renders the rules with the file they came from
func (r *Renderer) RenderRules(source string, rules []ignore.Rule) error {
	out := rulesObject{Source: source, Rules: make([]ruleObject, 0, len(rules))}
	for _, rule := range rules {
		out.Rules = append(out.Rules, ruleObject{
			Scope:   rule.Scope.String(),
			Pattern: rule.String(),
			DirOnly: rule.DirOnly,
		})
	}
	return r.encode(out)
}

type errorObject struct {
	Error   string                 `json:"error"`
	Code    errors.ErrorCode       `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RenderError renders an error with its code and details
func (r *Renderer) RenderError(err error) error {
	return r.encode(errorObject{
		Error:   err.Error(),
		Code:    errors.GetErrorCode(err),
		Details: errors.GetErrorDetails(err),
	})
}

// RenderMessage renders a simple message as JSON
func (r *Renderer) RenderMessage(msg string) error {
	return r.encode(map[string]string{"message": msg})
}
