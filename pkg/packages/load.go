package packages

import (
	"path"
	"sort"

	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/types"
	"gopkg.in/yaml.v3"
)

// DefaultBundleDir is where a child package lives below its parent when the
// tree file does not say otherwise.
const DefaultBundleDir = "node_modules"

// nodeDoc is one node of a tree file. JSON documents parse the same way.
type nodeDoc struct {
	Path     string              `yaml:"path"`
	RelPath  *string             `yaml:"relpath"`
	UID      string              `yaml:"uid"`
	Name     string              `yaml:"name"`
	Version  string              `yaml:"version"`
	Rev      string              `yaml:"rev"`
	PM       string              `yaml:"pm"`
	Children map[string]*nodeDoc `yaml:"children"`
	// Circular names the uid of an ancestor.
	Circular string `yaml:"circular"`
}

// LoadTree reads a package tree file (YAML or JSON).
func LoadTree(fsys types.FS, file, bundleDir string) (*Tree, error) {
	data, err := fsys.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPackageTree, "cannot read package tree").
			WithDetail("path", file)
	}
	tree, err := ParseTree(data, bundleDir)
	if err != nil {
		if coded, ok := err.(*errors.DopackError); ok {
			return nil, coded.WithDetail("path", file)
		}
		return nil, err
	}
	return tree, nil
}

// ParseTree builds a tree from a tree document. A child without relpath is
// placed at <parent>/<bundleDir>/<name>.
func ParseTree(data []byte, bundleDir string) (*Tree, error) {
	if bundleDir == "" {
		bundleDir = DefaultBundleDir
	}

	var root nodeDoc
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, errors.ErrPackageTree, "cannot parse package tree")
	}

	b := &treeBuilder{tree: NewTree(), bundleDir: bundleDir}
	rel := ""
	if root.RelPath != nil {
		rel = *root.RelPath
	}
	if _, err := b.add(&root, root.Name, rel, nil); err != nil {
		return nil, err
	}
	return b.tree, nil
}

type treeBuilder struct {
	tree      *Tree
	bundleDir string
}

// ancestor is one entry of the chain from the root to the node being added.
type ancestor struct {
	uid string
	id  NodeID
}

func (b *treeBuilder) add(doc *nodeDoc, name, rel string, chain []ancestor) (NodeID, error) {
	if doc == nil {
		return 0, errors.Newf(errors.ErrPackageTree, "empty node %q", name)
	}
	if doc.Name != "" {
		name = doc.Name
	}

	id := b.tree.Add(Node{
		Path:     doc.Path,
		RelPath:  path.Clean("/" + rel)[1:],
		UID:      doc.UID,
		Name:     name,
		Version:  doc.Version,
		Revision: doc.Rev,
		PM:       doc.PM,
	})

	if doc.Circular != "" {
		target, ok := findAncestor(chain, doc.Circular)
		if !ok {
			return 0, errors.Newf(errors.ErrPackageTree, "circular reference %q is not an ancestor of %q", doc.Circular, name).
				WithDetail("uid", doc.Circular)
		}
		if err := b.tree.SetCircular(id, target); err != nil {
			return 0, err
		}
	}

	chain = append(chain[:len(chain):len(chain)], ancestor{uid: doc.UID, id: id})

	names := make([]string, 0, len(doc.Children))
	for childName := range doc.Children {
		names = append(names, childName)
	}
	sort.Strings(names)

	for _, childName := range names {
		child := doc.Children[childName]
		childRel := path.Join(rel, b.bundleDir, childName)
		if child != nil && child.RelPath != nil {
			childRel = *child.RelPath
		}
		childID, err := b.add(child, childName, childRel, chain)
		if err != nil {
			return 0, err
		}
		if err := b.tree.AddChild(id, childName, childID); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func findAncestor(chain []ancestor, uid string) (NodeID, bool) {
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].uid == uid {
			return chain[i].id, true
		}
	}
	return 0, false
}
