package ignore

import (
	"regexp"
	"strings"
)

// Scope says where in the tree a rule applies.
type Scope int

const (
	// ScopeTop rules are anchored to the tree root.
	ScopeTop Scope = iota
	// ScopeEvery rules match a basename at any depth.
	ScopeEvery
	// ScopeInclude rules override Top and Every exclusions.
	ScopeInclude
)

func (s Scope) String() string {
	switch s {
	case ScopeTop:
		return "top"
	case ScopeEvery:
		return "every"
	case ScopeInclude:
		return "include"
	}
	return "unknown"
}

// Rule is one compiled line of an ignore file.
type Rule struct {
	Scope Scope
	// Text is the pattern with its !, leading / and trailing / removed.
	Text string
	// Prefix is the part of Text before the first wildcard.
	Prefix string
	// DirOnly rules were written with a trailing slash and never match files.
	DirOnly bool
	// Anchored is true for Top rules and for Include rules whose pattern is
	// a root-relative path. Unanchored rules match against basenames.
	Anchored bool

	pattern *regexp.Regexp
}

// Compile turns a single ignore-file line into a Rule. The second return
// value is false for blank lines and comments.
func Compile(line string) (Rule, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return Rule{}, false
	}

	var rule Rule
	switch {
	case strings.HasPrefix(line, "!"):
		rule.Scope = ScopeInclude
		line = line[1:]
	case strings.HasPrefix(line, "/"):
		rule.Scope = ScopeTop
	default:
		rule.Scope = ScopeEvery
	}

	if strings.HasSuffix(line, "/") {
		rule.DirOnly = true
		line = strings.TrimRight(line, "/")
	}

	switch {
	case strings.HasPrefix(line, "/"):
		rule.Anchored = true
		line = strings.TrimLeft(line, "/")
	case strings.Contains(line, "/"):
		// a/b names a path from the root, not a basename
		rule.Anchored = true
		if rule.Scope == ScopeEvery {
			rule.Scope = ScopeTop
		}
	}
	if rule.Scope == ScopeTop {
		rule.Anchored = true
	}

	if line == "" {
		return Rule{}, false
	}

	rule.Text = line
	rule.Prefix = line
	if i := strings.IndexByte(line, '*'); i >= 0 {
		rule.Prefix = line[:i]
	}
	rule.pattern = wildcard(line)
	return rule, true
}

// wildcard compiles a pattern where * matches any run of characters other
// than the path separator.
func wildcard(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile("^" + strings.Join(parts, "[^/]*") + "$")
}

// Matches reports whether candidate equals the rule text or matches its
// wildcard form. Candidate is a root-relative path for anchored rules and
// a basename otherwise.
func (r Rule) Matches(candidate string, isDir bool) bool {
	if r.DirOnly && !isDir {
		return false
	}
	return candidate == r.Text || r.pattern.MatchString(candidate)
}

// HasWildcard reports whether the rule contains a * pattern.
func (r Rule) HasWildcard() bool {
	return len(r.Prefix) < len(r.Text)
}

func (r Rule) String() string {
	var b strings.Builder
	if r.Scope == ScopeInclude {
		b.WriteByte('!')
	}
	if r.Anchored {
		b.WriteByte('/')
	}
	b.WriteString(r.Text)
	if r.DirOnly {
		b.WriteByte('/')
	}
	return b.String()
}
