package descriptor

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/types"
	jsoniter "github.com/json-iterator/go"
)

// api keeps non-ASCII and HTML characters as written in the source
// descriptor.
var api = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// Parse decodes a descriptor. Unknown fields are kept verbatim.
func Parse(data []byte) (*Raw, error) {
	raw, err := parse(data)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func parse(data []byte) (*Raw, *errors.DopackError) {
	fields := map[string]jsoniter.RawMessage{}
	if err := api.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrap(err, errors.ErrDescriptorRead, "invalid descriptor")
	}

	raw := &Raw{}
	known := []struct {
		key    string
		target interface{}
	}{
		{"name", &raw.Name},
		{"version", &raw.Version},
		{"scripts", &raw.Scripts},
		{"dependencies", &raw.Dependencies},
		{"devDependencies", &raw.DevDependencies},
		{"peerDependencies", &raw.PeerDependencies},
		{"optionalDependencies", &raw.OptionalDependencies},
	}
	for _, k := range known {
		value, ok := fields[k.key]
		if !ok {
			continue
		}
		if err := api.Unmarshal(value, k.target); err != nil {
			return nil, errors.Wrapf(err, errors.ErrDescriptorRead, "invalid %q field", k.key).
				WithDetail("field", k.key)
		}
		delete(fields, k.key)
	}

	if value, ok := fields["bin"]; ok {
		bin, err := parseBin(value, raw.Name)
		if err != nil {
			return nil, err
		}
		raw.Bin = bin
		delete(fields, "bin")
	}

	raw.Extra = fields
	return raw, nil
}

func parseBin(value jsoniter.RawMessage, pkgName string) (map[string]string, *errors.DopackError) {
	var single string
	if err := api.Unmarshal(value, &single); err == nil {
		if single == "" {
			return nil, nil
		}
		return map[string]string{binName(pkgName, single): single}, nil
	}

	bin := map[string]string{}
	if err := api.Unmarshal(value, &bin); err != nil {
		return nil, errors.Wrap(err, errors.ErrDescriptorRead, `invalid "bin" field`).
			WithDetail("field", "bin")
	}
	return bin, nil
}

// Marshal encodes e with a stable key order: the computed fields first,
// then the preserved fields sorted by name. The output is indented with two
// spaces and ends with a newline.
func Marshal(e *Exported) ([]byte, error) {
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	first := true
	field := func(name string, value interface{}) {
		if !first {
			stream.WriteMore()
		}
		first = false
		stream.WriteObjectField(name)
		stream.WriteVal(value)
	}

	stream.WriteObjectStart()
	field("uid", e.UID)
	if e.Rev != "" {
		field("rev", e.Rev)
	}
	field("name", e.Name)
	if e.Version != "" {
		field("version", e.Version)
	}
	field("pm", e.PM)
	if len(e.Bin) > 0 {
		field("bin", e.Bin)
	}
	bundled := e.BundleDependencies
	if bundled == nil {
		bundled = []string{}
	}
	field("bundleDependencies", bundled)

	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		field(key, e.Fields[key])
	}
	stream.WriteObjectEnd()

	if stream.Error != nil {
		return nil, errors.Wrap(stream.Error, errors.ErrDescriptorWrite, "cannot encode descriptor")
	}

	var out bytes.Buffer
	if err := json.Indent(&out, stream.Buffer(), "", "  "); err != nil {
		return nil, errors.Wrap(err, errors.ErrDescriptorWrite, "cannot encode descriptor")
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Read loads and parses the descriptor at path.
func Read(fsys types.FS, path string) (*Raw, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDescriptorRead, "cannot read descriptor").
			WithDetail("path", path)
	}
	raw, perr := parse(data)
	if perr != nil {
		return nil, perr.WithDetail("path", path)
	}
	return raw, nil
}

// Write encodes e and replaces the file at path.
func Write(fsys types.FS, path string, e *Exported) error {
	data, err := Marshal(e)
	if err != nil {
		return errors.Wrap(err, errors.ErrDescriptorWrite, "cannot encode descriptor").
			WithDetail("path", path)
	}
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, errors.ErrDescriptorWrite, "cannot write descriptor").
			WithDetail("path", path)
	}
	return nil
}
