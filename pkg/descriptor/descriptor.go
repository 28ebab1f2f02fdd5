package descriptor

import (
	"path"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// FileName is the descriptor file looked up at every package location.
const FileName = "package.json"

// DefaultStrip lists the descriptor fields dropped on export. An entry
// ending in "*" drops every field with that prefix.
var DefaultStrip = []string{
	"_*",
	"author",
	"contributors",
	"maintainers",
	"license",
	"licenses",
	"repository",
	"bugs",
	"homepage",
	"funding",
	"keywords",
	"files",
	"directories",
	"readme",
	"readmeFilename",
	"gitHead",
	"publishConfig",
	"devEngines",
}

// computed fields are always recomputed on export and never carried over
// from the raw descriptor.
var computed = map[string]bool{
	"uid":                 true,
	"rev":                 true,
	"name":                true,
	"version":             true,
	"pm":                  true,
	"bin":                 true,
	"bundleDependencies":  true,
	"bundledDependencies": true,
}

// Raw is a package descriptor as found in the source tree. The fields the
// export reasons about are typed; everything else is kept verbatim in Extra.
type Raw struct {
	Name    string
	Version string
	// Bin maps command names to package-relative paths. A descriptor that
	// declares bin as a single string is normalized to one entry.
	Bin                  map[string]string
	Scripts              map[string]string
	Dependencies         map[string]string
	DevDependencies      map[string]string
	PeerDependencies     map[string]string
	OptionalDependencies map[string]string
	Extra                map[string]jsoniter.RawMessage
}

// Exported is the trimmed, install-ready descriptor.
type Exported struct {
	UID                string
	Rev                string
	Name               string
	Version            string
	PM                 string
	Bin                map[string]string
	BundleDependencies []string
	// Fields holds the preserved runtime fields (main, engines, ...).
	Fields map[string]jsoniter.RawMessage
}

// Export trims raw into its exported form. Scripts and dependency ranges
// are always dropped, Extra fields are dropped when they match strip (nil
// means DefaultStrip). Computed fields are left for the caller to fill.
func Export(raw *Raw, strip []string) *Exported {
	if strip == nil {
		strip = DefaultStrip
	}

	e := &Exported{
		Name:    raw.Name,
		Version: raw.Version,
		Fields:  make(map[string]jsoniter.RawMessage, len(raw.Extra)),
	}
	if len(raw.Bin) > 0 {
		e.Bin = make(map[string]string, len(raw.Bin))
		for name, p := range raw.Bin {
			e.Bin[name] = p
		}
	}
	for key, value := range raw.Extra {
		if computed[key] || Stripped(key, strip) {
			continue
		}
		e.Fields[key] = value
	}
	return e
}

// Stripped reports whether key is named by the strip list.
func Stripped(key string, strip []string) bool {
	for _, s := range strip {
		if prefix, ok := strings.CutSuffix(s, "*"); ok {
			if strings.HasPrefix(key, prefix) {
				return true
			}
			continue
		}
		if key == s {
			return true
		}
	}
	return false
}

// BinNames returns the command names of e in sorted order.
func (e *Exported) BinNames() []string {
	names := make([]string, 0, len(e.Bin))
	for name := range e.Bin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// binName is the command name npm derives from a string bin: the package
// name without its scope.
func binName(pkgName, binPath string) string {
	if pkgName == "" {
		base := path.Base(binPath)
		return strings.TrimSuffix(base, path.Ext(base))
	}
	if i := strings.LastIndex(pkgName, "/"); i >= 0 {
		return pkgName[i+1:]
	}
	return pkgName
}
