package copier

import (
	"context"
	stderrors "errors"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/filesystem"
	"github.com/arthur-debert/dopack/pkg/logging"
	"github.com/arthur-debert/dopack/pkg/types"
	"github.com/arthur-debert/dopack/pkg/walker"
	"github.com/rs/zerolog"
)

// Options tunes a copy.
type Options struct {
	// Replace allows an existing destination to be removed first.
	Replace bool
	// IncludeRoots are root-relative paths named by include rules. Each one
	// whose parent directory is not part of the manifest becomes its own
	// copy root. Manifests from walker.Walk always record the parents of
	// included paths, so this only applies to manifests built or filtered
	// by the caller.
	IncludeRoots []string
	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// Root is one (source, destination) pair to materialize. Tag is the
// manifest path that corresponds to Source.
type Root struct {
	Source      string
	Destination string
	Tag         string
	Relocated   bool
}

// Result summarizes a copy.
type Result struct {
	Roots int   `json:"roots"`
	Files int   `json:"files"`
	Dirs  int   `json:"dirs"`
	Links int   `json:"links"`
	Bytes int64 `json:"bytes"`
}

// Copier materializes a manifest into a destination directory.
type Copier struct {
	fs     types.FS
	opts   Options
	logger zerolog.Logger
}

// New creates a copier.
func New(fsys types.FS, opts Options) *Copier {
	logger := logging.For(opts.Logger, "copier")
	return &Copier{fs: fsys, opts: opts, logger: logger}
}

// run holds the state of one Copy call.
type run struct {
	*Copier
	manifest walker.Manifest
	queue    []Root
	seen     map[string]bool
	result   Result
}

// Copy copies every manifest entry from source into dest. Symlinks whose
// targets lie outside the root being copied become new roots, appended to a
// queue that is drained one root at a time. The first error stops the copy;
// work already done is left in place.
func (c *Copier) Copy(ctx context.Context, source, dest string, manifest walker.Manifest) (Result, error) {
	done := logging.LogOperationStart(c.logger, "copy")
	defer done()

	if err := c.prepareDestination(source, dest); err != nil {
		return Result{}, err
	}

	realSource, err := filesystem.RealPath(c.fs, source)
	if err != nil {
		return Result{}, copyError(err, "resolve", source, dest)
	}

	r := &run{
		Copier:   c,
		manifest: manifest,
		seen:     map[string]bool{},
	}
	r.enqueue(Root{Source: realSource, Destination: dest})

	for _, inc := range c.opts.IncludeRoots {
		parent := path.Dir(inc)
		if !manifest.Has(inc) || parent == "." || manifest.Has(parent) {
			continue
		}
		r.enqueue(Root{
			Source:      filepath.Join(realSource, filepath.FromSlash(inc)),
			Destination: filepath.Join(dest, filepath.FromSlash(inc)),
			Tag:         inc,
		})
	}

	for i := 0; i < len(r.queue); i++ {
		if err := ctx.Err(); err != nil {
			return r.result, err
		}
		if err := r.copyRoot(r.queue[i]); err != nil {
			return r.result, err
		}
		r.result.Roots++
	}

	c.logger.Debug().
		Int("roots", r.result.Roots).
		Int("files", r.result.Files).
		Int64("bytes", r.result.Bytes).
		Msg("Copy finished")
	return r.result, nil
}

func (c *Copier) prepareDestination(source, dest string) error {
	_, err := c.fs.Lstat(dest)
	switch {
	case err == nil:
		if !c.opts.Replace {
			return errors.Newf(errors.ErrDestinationExists, "destination %s already exists", dest).
				WithDetail("source", source).
				WithDetail("destination", dest)
		}
		c.logger.Debug().Str("destination", dest).Msg("Removing existing destination")
		if err := c.fs.RemoveAll(dest); err != nil {
			return copyError(err, "remove", source, dest)
		}
	case !stderrors.Is(err, fs.ErrNotExist):
		return copyError(err, "stat", source, dest)
	}

	if err := c.fs.MkdirAll(dest, 0755); err != nil {
		return copyError(err, "mkdir", source, dest)
	}
	return nil
}

func (r *run) enqueue(root Root) {
	if r.seen[root.Destination] {
		return
	}
	r.seen[root.Destination] = true
	r.queue = append(r.queue, root)
}

func (r *run) copyRoot(root Root) error {
	r.logger.Debug().
		Str("source", root.Source).
		Str("destination", root.Destination).
		Str("tag", root.Tag).
		Bool("relocated", root.Relocated).
		Msg("Copying root")

	if root.Relocated {
		if _, err := r.fs.Lstat(root.Destination); err == nil {
			if err := r.fs.RemoveAll(root.Destination); err != nil {
				return copyError(err, "remove", root.Source, root.Destination)
			}
		}
	}

	info, err := r.fs.Stat(root.Source)
	if err != nil {
		return copyError(err, "stat", root.Source, root.Destination)
	}
	if !info.IsDir() {
		if err := r.fs.MkdirAll(filepath.Dir(root.Destination), 0755); err != nil {
			return copyError(err, "mkdir", root.Source, root.Destination)
		}
		return r.copyFile(root.Source, root.Destination, r.manifest[root.Tag])
	}

	if err := r.fs.MkdirAll(root.Destination, 0755); err != nil {
		return copyError(err, "mkdir", root.Source, root.Destination)
	}
	return r.copyDir(root, root.Source, root.Destination, root.Tag)
}

func (r *run) copyDir(root Root, srcDir, dstDir, key string) error {
	entries, err := r.fs.ReadDir(srcDir)
	if err != nil {
		return copyError(err, "readdir", srcDir, dstDir)
	}

	for _, de := range entries {
		childKey := de.Name()
		if key != "" {
			childKey = key + "/" + de.Name()
		}
		entry, ok := r.manifest.Get(childKey)
		if !ok {
			continue
		}

		src := filepath.Join(srcDir, de.Name())
		dst := filepath.Join(dstDir, de.Name())

		switch {
		case entry.IsSymlink():
			if err := r.copyLink(root, entry, dstDir, dst); err != nil {
				return err
			}
		case entry.IsDir:
			if err := r.fs.MkdirAll(dst, 0755); err != nil {
				return copyError(err, "mkdir", src, dst)
			}
			r.result.Dirs++
			if err := r.copyDir(root, src, dst, childKey); err != nil {
				return err
			}
		default:
			if err := r.copyFile(src, dst, entry); err != nil {
				return err
			}
		}
	}
	return nil
}

// copyLink recreates a link whose target is itself exported as a relative
// link, and queues everything else as a relocated root so the content is
// pulled into the export.
func (r *run) copyLink(root Root, entry walker.Entry, dstDir, dst string) error {
	if filesystem.IsWithin(root.Source, entry.SymlinkRealPath) {
		rel, err := filepath.Rel(root.Source, entry.SymlinkRealPath)
		if err != nil {
			return copyError(err, "rel", entry.SymlinkRealPath, dst)
		}
		targetKey := filepath.ToSlash(rel)
		if root.Tag != "" {
			targetKey = path.Join(root.Tag, targetKey)
		}
		if targetKey != "." && r.manifest.Has(targetKey) {
			counterpart := filepath.Join(root.Destination, rel)
			target, err := filepath.Rel(dstDir, counterpart)
			if err != nil {
				return copyError(err, "rel", entry.SymlinkRealPath, dst)
			}
			if err := r.fs.Symlink(target, dst); err != nil {
				return copyError(err, "symlink", entry.SymlinkRealPath, dst)
			}
			r.result.Links++
			return nil
		}
	}

	r.logger.Info().
		Str("link", entry.Path).
		Str("target", entry.SymlinkRealPath).
		Msg("Pulling in symlinked content")
	r.enqueue(Root{
		Source:      entry.SymlinkRealPath,
		Destination: dst,
		Tag:         entry.Path,
		Relocated:   true,
	})
	return nil
}

func (r *run) copyFile(src, dst string, entry walker.Entry) error {
	if err := r.fs.CopyFile(src, dst); err != nil {
		return copyError(err, "copy", src, dst)
	}
	if !entry.ModTime.IsZero() {
		if err := r.fs.Chtimes(dst, entry.ModTime, entry.ModTime); err != nil {
			return copyError(err, "chtimes", src, dst)
		}
	}
	r.result.Files++
	r.result.Bytes += entry.Size
	return nil
}

func copyError(err error, op, source, dest string) error {
	var coded *errors.DopackError
	if stderrors.As(err, &coded) {
		return err
	}
	return errors.Wrapf(err, errors.ErrFilesystem, "%s failed", op).
		WithDetail("source", source).
		WithDetail("destination", dest)
}
