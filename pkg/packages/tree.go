package packages

import (
	"sort"

	"github.com/arthur-debert/dopack/pkg/descriptor"
	"github.com/arthur-debert/dopack/pkg/errors"
)

// NodeID addresses a node inside its Tree.
type NodeID int

// Node is one package of the exported dependency tree.
type Node struct {
	ID NodeID
	// Path is the package location in the source tree.
	Path string
	// RelPath is the package location relative to the export root,
	// "/"-separated, empty for the root package.
	RelPath  string
	UID      string
	Name     string
	Version  string
	Revision string
	// PM names the package manager that installed the package.
	PM string
	// Descriptor, when set, is used instead of reading the descriptor file
	// from the export.
	Descriptor *descriptor.Raw
	Children   map[string]NodeID
	// Circular points at an ancestor whose children this node re-enters.
	Circular *NodeID
}

// ChildNames returns the child names of n in sorted order.
func (n *Node) ChildNames() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tree is an arena of package nodes. Edges are node IDs so cycles never
// turn into owning references. The first node added is the root.
type Tree struct {
	nodes []Node
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Add stores n and returns its ID.
func (t *Tree) Add(n Node) NodeID {
	n.ID = NodeID(len(t.nodes))
	if n.Children == nil {
		n.Children = map[string]NodeID{}
	}
	t.nodes = append(t.nodes, n)
	return n.ID
}

// AddChild records child as the dependency name of parent.
func (t *Tree) AddChild(parent NodeID, name string, child NodeID) error {
	if !t.valid(parent) || !t.valid(child) {
		return errors.Newf(errors.ErrPackageTree, "unknown node in edge %s", name).
			WithDetail("parent", int(parent)).
			WithDetail("child", int(child))
	}
	t.nodes[parent].Children[name] = child
	return nil
}

// SetCircular makes id re-enter the children of target.
func (t *Tree) SetCircular(id, target NodeID) error {
	if !t.valid(id) || !t.valid(target) {
		return errors.Newf(errors.ErrPackageTree, "unknown node in circular reference").
			WithDetail("node", int(id)).
			WithDetail("target", int(target))
	}
	t.nodes[id].Circular = &target
	return nil
}

// Root returns the root node ID. The tree must not be empty.
func (t *Tree) Root() NodeID {
	return 0
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given ID.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}
