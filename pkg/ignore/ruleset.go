package ignore

import (
	"bufio"
	stderrors "errors"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/logging"
	"github.com/arthur-debert/dopack/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultFiles lists the ignore files consulted, highest priority first.
var DefaultFiles = []string{".distignore", ".npmignore", ".gitignore"}

// DefaultRules is used when no ignore file exists: version control metadata
// and OS metadata only.
var DefaultRules = []string{
	".git/",
	".svn/",
	".hg/",
	".bzr/",
	"CVS/",
	".DS_Store",
	"._*",
	"Thumbs.db",
	"desktop.ini",
}

// ruleGroup maps a literal prefix to the rules sharing it. It is built once
// and only read afterwards.
type ruleGroup map[string][]Rule

func (g ruleGroup) add(rule Rule) {
	g[rule.Prefix] = append(g[rule.Prefix], rule)
}

// match checks the exact candidate first, then every shorter prefix of it
// down to the catch-all "" group.
func (g ruleGroup) match(candidate string, isDir bool) bool {
	if len(g) == 0 {
		return false
	}
	for i := len(candidate); i >= 0; i-- {
		for _, rule := range g[candidate[:i]] {
			if rule.Matches(candidate, isDir) {
				return true
			}
		}
	}
	return false
}

// RuleSet is the compiled form of one ignore file. It is immutable and safe
// for concurrent use.
type RuleSet struct {
	// Source is the ignore file the rules came from, empty for defaults.
	Source string

	top          ruleGroup
	every        ruleGroup
	include      ruleGroup // unanchored includes, keyed by basename prefix
	includeAbove ruleGroup // anchored includes, keyed by path prefix
	anchored     []Rule
	count        int
}

// New compiles lines into a RuleSet.
func New(lines []string) *RuleSet {
	rs := &RuleSet{
		top:          ruleGroup{},
		every:        ruleGroup{},
		include:      ruleGroup{},
		includeAbove: ruleGroup{},
	}
	for _, line := range lines {
		rule, ok := Compile(line)
		if !ok {
			continue
		}
		rs.count++
		switch rule.Scope {
		case ScopeTop:
			rs.top.add(rule)
		case ScopeEvery:
			rs.every.add(rule)
		case ScopeInclude:
			if rule.Anchored {
				rs.includeAbove.add(rule)
				rs.anchored = append(rs.anchored, rule)
			} else {
				rs.include.add(rule)
			}
		}
	}
	return rs
}

// Parse compiles the content of an ignore file.
func Parse(content string) *RuleSet {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return New(lines)
}

// LoadOptions tunes Load.
type LoadOptions struct {
	// Files are the ignore file names tried in order. Nil means DefaultFiles.
	Files []string
	// Defaults are compiled when no file exists. Nil means DefaultRules.
	Defaults []string
	Logger   *zerolog.Logger
}

// Load reads the first ignore file from opts.Files that exists in baseDir.
// Later candidates are never merged in. When none exists the defaults are
// compiled instead.
func Load(fsys types.FS, baseDir string, opts LoadOptions) (*RuleSet, error) {
	logger := logging.For(opts.Logger, "ignore")
	candidates := opts.Files
	if candidates == nil {
		candidates = DefaultFiles
	}
	defaults := opts.Defaults
	if defaults == nil {
		defaults = DefaultRules
	}

	for _, name := range candidates {
		full := filepath.Join(baseDir, name)
		content, err := fsys.ReadFile(full)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.Wrapf(err, errors.ErrFilesystem, "cannot read ignore file %s", name).
				WithDetail("path", full)
		}

		rs := Parse(string(content))
		rs.Source = name
		logger.Debug().
			Str("file", full).
			Int("rules", rs.Len()).
			Msg("Loaded ignore file")
		return rs, nil
	}

	rs := New(defaults)
	logger.Debug().
		Str("dir", baseDir).
		Int("rules", rs.Len()).
		Msg("No ignore file found, using default rules")
	return rs, nil
}

// Len returns the number of compiled rules.
func (rs *RuleSet) Len() int {
	return rs.count
}

// Match reports whether p (root-relative, slash separated) is ignored.
// Include rules win over everything, then Top rules, then Every rules on
// the basename. Ancestors are tested too so that a path under an ignored
// directory is ignored even when asked about directly.
func (rs *RuleSet) Match(p string, isDir bool) bool {
	if rs.Included(p, isDir) {
		return false
	}

	for cur, curIsDir := p, isDir; cur != "." && cur != ""; cur, curIsDir = path.Dir(cur), true {
		if rs.top.match(cur, curIsDir) {
			return true
		}
		if rs.every.match(path.Base(cur), curIsDir) {
			return true
		}
	}
	return false
}

// Included reports whether an Include rule names p or one of its ancestors.
func (rs *RuleSet) Included(p string, isDir bool) bool {
	if len(rs.include) == 0 && len(rs.includeAbove) == 0 {
		return false
	}
	for cur, curIsDir := p, isDir; cur != "." && cur != ""; cur, curIsDir = path.Dir(cur), true {
		if rs.includeAbove.match(cur, curIsDir) {
			return true
		}
		if rs.include.match(path.Base(cur), curIsDir) {
			return true
		}
	}
	return false
}

// DescendInto reports whether the ignored directory dir must still be
// walked because an anchored Include rule names something beneath it.
// Unanchored includes never force descent.
func (rs *RuleSet) DescendInto(dir string) bool {
	below := dir + "/"
	for _, rule := range rs.anchored {
		if strings.HasPrefix(rule.Prefix, below) {
			return true
		}
		if rule.HasWildcard() && strings.HasPrefix(below, rule.Prefix) {
			return true
		}
	}
	return false
}

// IncludeRoots returns the literal anchored include paths.
func (rs *RuleSet) IncludeRoots() []string {
	var roots []string
	for _, rule := range rs.anchored {
		if !rule.HasWildcard() {
			roots = append(roots, rule.Text)
		}
	}
	return roots
}

// Rules returns every compiled rule ordered by scope then text, for display.
func (rs *RuleSet) Rules() []Rule {
	var out []Rule
	for _, g := range []ruleGroup{rs.top, rs.every, rs.includeAbove, rs.include} {
		for _, rules := range g {
			out = append(out, rules...)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].String() < out[j].String()
	})
	return out
}
