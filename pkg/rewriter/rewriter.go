package rewriter

import (
	"context"
	stderrors "errors"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/dopack/pkg/descriptor"
	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/filesystem"
	"github.com/arthur-debert/dopack/pkg/logging"
	"github.com/arthur-debert/dopack/pkg/packages"
	"github.com/arthur-debert/dopack/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultPackageManager is written as pm when neither the node nor the
// options name one.
const DefaultPackageManager = "npm"

// Options tunes a rewrite pass.
type Options struct {
	// DescriptorFile is the descriptor name at each package location.
	DescriptorFile string
	// PackageManager is the fallback pm value.
	PackageManager string
	// Strip overrides descriptor.DefaultStrip.
	Strip  []string
	Logger *zerolog.Logger
}

// Result summarizes a rewrite pass.
type Result struct {
	// Visited counts distinct nodes reached, however many paths led there.
	Visited    int `json:"visited"`
	Written    int `json:"written"`
	BinDropped int `json:"binDropped"`
}

// Rewriter turns the descriptors of an exported package tree into their
// install-ready form.
type Rewriter struct {
	fs     types.FS
	opts   Options
	logger zerolog.Logger
}

// New creates a rewriter.
func New(fsys types.FS, opts Options) *Rewriter {
	if opts.DescriptorFile == "" {
		opts.DescriptorFile = descriptor.FileName
	}
	if opts.PackageManager == "" {
		opts.PackageManager = DefaultPackageManager
	}
	logger := logging.For(opts.Logger, "rewriter")
	return &Rewriter{fs: fsys, opts: opts, logger: logger}
}

// pass holds the state of one Rewrite call.
type pass struct {
	*Rewriter
	tree *packages.Tree
	root string
	// reached counts distinct nodes, written ends all further visits of a
	// node and inProgress holds the nodes on the current descent.
	reached    map[packages.NodeID]bool
	written    map[packages.NodeID]bool
	inProgress map[packages.NodeID]bool
	result     Result
}

// edge is a child reached from a node together with its export location.
type edge struct {
	name string
	id   packages.NodeID
	at   string
}

// Rewrite walks tree depth first and rewrites the descriptor of every node
// whose descriptor file exists below exportRoot. Each node is rewritten at
// most once, at the first location it is reached through that holds a
// descriptor; a location without one leaves the node open for the next
// path that reaches it. The first read or write failure stops the pass.
func (r *Rewriter) Rewrite(ctx context.Context, tree *packages.Tree, exportRoot string) (Result, error) {
	done := logging.LogOperationStart(r.logger, "rewrite")
	defer done()

	if tree == nil || tree.Len() == 0 {
		return Result{}, nil
	}

	p := &pass{
		Rewriter: r,
		tree:       tree,
		root:       exportRoot,
		reached:    map[packages.NodeID]bool{},
		written:    map[packages.NodeID]bool{},
		inProgress: map[packages.NodeID]bool{},
	}
	if err := p.visit(ctx, tree.Root(), ""); err != nil {
		return p.result, err
	}

	r.logger.Debug().
		Int("visited", p.result.Visited).
		Int("written", p.result.Written).
		Msg("Rewrite finished")
	return p.result, nil
}

func (p *pass) visit(ctx context.Context, id packages.NodeID, at string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.written[id] || p.inProgress[id] {
		return nil
	}
	p.inProgress[id] = true
	defer delete(p.inProgress, id)
	if !p.reached[id] {
		p.reached[id] = true
		p.result.Visited++
	}

	edges := p.edges(id, at)
	written, err := p.rewriteNode(id, at, edges)
	if err != nil {
		return err
	}
	if written {
		p.written[id] = true
	}

	for _, e := range edges {
		if err := p.visit(ctx, e.id, e.at); err != nil {
			return err
		}
	}
	return nil
}

// edges lists the children of id located relative to at. A circular node
// also re-enters the children of its target, relocated under at.
func (p *pass) edges(id packages.NodeID, at string) []edge {
	node := p.tree.Node(id)

	var edges []edge
	seen := map[string]bool{}
	add := func(parent *packages.Node) {
		for _, name := range parent.ChildNames() {
			if seen[name] {
				continue
			}
			seen[name] = true
			childID := parent.Children[name]
			child := p.tree.Node(childID)
			edges = append(edges, edge{
				name: name,
				id:   childID,
				at:   childLocation(at, parent.RelPath, child.RelPath),
			})
		}
	}

	add(node)
	if node.Circular != nil {
		add(p.tree.Node(*node.Circular))
	}
	return edges
}

// childLocation substitutes the location a parent was reached at for the
// parent's own relpath prefix. A child outside its parent's relpath keeps
// its own relpath.
func childLocation(at, parentRel, childRel string) string {
	if parentRel == "" {
		return path.Join(at, childRel)
	}
	if rest, ok := strings.CutPrefix(childRel, parentRel+"/"); ok {
		return path.Join(at, rest)
	}
	return childRel
}

func (p *pass) location(at string) string {
	return filepath.Join(p.root, filepath.FromSlash(at))
}

// rewriteNode reports whether a descriptor was found and written at at.
func (p *pass) rewriteNode(id packages.NodeID, at string, edges []edge) (bool, error) {
	node := p.tree.Node(id)
	dir := p.location(at)
	file := filepath.Join(dir, p.opts.DescriptorFile)

	logger := p.logger.With().Str("package", node.Name).Str("location", at).Logger()

	if _, err := p.fs.Stat(file); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			logger.Debug().Msg("No descriptor at export location, skipping")
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrDescriptorRead, "cannot stat descriptor").
			WithDetail("path", file)
	}

	raw := node.Descriptor
	if raw == nil {
		var err error
		if raw, err = descriptor.Read(p.fs, file); err != nil {
			return false, err
		}
	}

	exported := descriptor.Export(raw, p.opts.Strip)
	p.result.BinDropped += p.validateBin(exported, dir, logger)

	exported.UID = node.UID
	exported.Rev = node.Revision
	if node.Name != "" {
		exported.Name = node.Name
	}
	if node.Version != "" {
		exported.Version = node.Version
	}
	exported.PM = node.PM
	if exported.PM == "" {
		exported.PM = p.opts.PackageManager
	}
	exported.BundleDependencies = p.bundled(dir, edges)

	if err := descriptor.Write(p.fs, file, exported); err != nil {
		return false, err
	}
	p.result.Written++
	logger.Debug().
		Strs("bundleDependencies", exported.BundleDependencies).
		Msg("Rewrote descriptor")
	return true, nil
}

// validateBin drops bin entries that do not resolve to a file inside dir
// and returns how many were dropped.
func (p *pass) validateBin(e *descriptor.Exported, dir string, logger zerolog.Logger) int {
	dropped := 0
	for _, name := range e.BinNames() {
		target := filepath.Join(dir, filepath.FromSlash(e.Bin[name]))
		info, err := p.fs.Stat(target)
		if err == nil && !info.IsDir() && filesystem.IsWithin(dir, target) {
			continue
		}
		logger.Info().Str("bin", name).Str("path", e.Bin[name]).Msg("Dropping bin entry without a target")
		delete(e.Bin, name)
		dropped++
	}
	if len(e.Bin) == 0 {
		e.Bin = nil
	}
	return dropped
}

// bundled returns the names of children that landed on disk below dir.
func (p *pass) bundled(dir string, edges []edge) []string {
	names := []string{}
	for _, e := range edges {
		childDir := p.location(e.at)
		if childDir == dir || !filesystem.IsWithin(dir, childDir) {
			continue
		}
		info, err := p.fs.Stat(childDir)
		if err != nil || !info.IsDir() {
			continue
		}
		names = append(names, e.name)
	}
	sort.Strings(names)
	return names
}
