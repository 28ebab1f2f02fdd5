package walker

import (
	"context"
	stderrors "errors"
	"io/fs"
	"path"
	"path/filepath"
	"sync/atomic"

	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/filesystem"
	"github.com/arthur-debert/dopack/pkg/ignore"
	"github.com/arthur-debert/dopack/pkg/logging"
	"github.com/arthur-debert/dopack/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options tunes a walk.
type Options struct {
	// Concurrency caps the in-flight entries per directory. Zero or less
	// means no cap.
	Concurrency int
	// Exclude lists root-relative paths that are never visited.
	Exclude []string
	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// Stats are reporting counters; nothing in the walk depends on them.
type Stats struct {
	RulesLoaded  int   `json:"rulesLoaded"`
	TotalFiles   int64 `json:"totalFiles"`
	IgnoredFiles int64 `json:"ignoredFiles"`
	PrunedDirs   int64 `json:"prunedDirs"`
	SkippedLinks int64 `json:"skippedLinks"`
	IncludedSize int64 `json:"includedSize"`
}

// Walker enumerates a source tree against an ignore rule set.
type Walker struct {
	fs      types.FS
	root    string
	rules   *ignore.RuleSet
	opts    Options
	exclude map[string]bool
	logger  zerolog.Logger

	totalFiles   atomic.Int64
	ignoredFiles atomic.Int64
	prunedDirs   atomic.Int64
	skippedLinks atomic.Int64
	includedSize atomic.Int64
}

// New creates a walker for the tree at root.
func New(fsys types.FS, root string, rules *ignore.RuleSet, opts Options) *Walker {
	logger := logging.For(opts.Logger, "walker")

	exclude := make(map[string]bool, len(opts.Exclude))
	for _, p := range opts.Exclude {
		exclude[path.Clean(filepath.ToSlash(p))] = true
	}

	return &Walker{
		fs:      fsys,
		root:    root,
		rules:   rules,
		opts:    opts,
		exclude: exclude,
		logger:  logger,
	}
}

// Stats returns the counters accumulated so far.
func (w *Walker) Stats() Stats {
	return Stats{
		RulesLoaded:  w.rules.Len(),
		TotalFiles:   w.totalFiles.Load(),
		IgnoredFiles: w.ignoredFiles.Load(),
		PrunedDirs:   w.prunedDirs.Load(),
		SkippedLinks: w.skippedLinks.Load(),
		IncludedSize: w.includedSize.Load(),
	}
}

// Walk returns the manifest of everything under subPath ("" for the whole
// tree) that survives the ignore rules. Any I/O error other than a broken
// or looping symlink aborts the walk and no manifest is returned.
func (w *Walker) Walk(ctx context.Context, subPath string) (Manifest, error) {
	done := logging.LogOperationStart(w.logger, "walk")
	defer done()

	subPath = path.Clean(filepath.ToSlash(subPath))
	if subPath == "." {
		subPath = ""
	}

	realRoot, err := filesystem.RealPath(w.fs, w.root)
	if err != nil {
		return nil, rootError(err, w.root)
	}

	start := realRoot
	if subPath != "" {
		start, err = filesystem.RealPath(w.fs, filepath.Join(realRoot, filepath.FromSlash(subPath)))
		if err != nil {
			return nil, rootError(err, subPath)
		}
	}

	parentIgnored := subPath != "" && w.rules.Match(subPath, true)
	manifest, err := w.walkDir(ctx, start, subPath, parentIgnored, []string{realRoot})
	if err != nil {
		return nil, err
	}

	w.logger.Debug().
		Str("root", realRoot).
		Int("entries", len(manifest)).
		Int64("totalFiles", w.totalFiles.Load()).
		Int64("ignoredFiles", w.ignoredFiles.Load()).
		Msg("Walk finished")
	return manifest, nil
}

// walkDir lists dir and visits every entry concurrently. The merged result
// is only built after all entries finished.
func (w *Walker) walkDir(ctx context.Context, dir, rel string, parentIgnored bool, chain []string) (Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := w.fs.ReadDir(dir)
	if err != nil {
		return nil, errors.Filesystem(err, "readdir", dir)
	}

	results := make([]Manifest, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	if w.opts.Concurrency > 0 {
		g.SetLimit(w.opts.Concurrency)
	}

	for i, entry := range entries {
		g.Go(func() error {
			m, err := w.visit(gctx, dir, rel, entry.Name(), parentIgnored, chain)
			if err != nil {
				return err
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := Manifest{}
	for _, m := range results {
		merged.merge(m)
	}
	return merged, nil
}

func (w *Walker) visit(ctx context.Context, dir, parentRel, name string, parentIgnored bool, chain []string) (Manifest, error) {
	abs := filepath.Join(dir, name)
	rel := joinRel(parentRel, name)
	if w.exclude[rel] {
		w.logger.Debug().Str("path", rel).Msg("Excluded from walk")
		return nil, nil
	}

	info, err := w.fs.Lstat(abs)
	if err != nil {
		return nil, errors.Filesystem(err, "lstat", abs)
	}

	entry := Entry{Path: rel}
	listPath := abs
	isLink := info.Mode()&fs.ModeSymlink != 0

	if isLink {
		realPath, err := filesystem.RealPath(w.fs, abs)
		switch {
		case err == nil:
		case errors.IsErrorCode(err, errors.ErrBrokenSymlink), stderrors.Is(err, fs.ErrNotExist):
			w.skippedLinks.Add(1)
			w.logger.Debug().Str("path", rel).Msg("Skipping broken symlink")
			return nil, nil
		case errors.IsErrorCode(err, errors.ErrSymlinkLoop):
			w.skippedLinks.Add(1)
			w.logger.Warn().Str("path", rel).Msg("Skipping symlink loop")
			return nil, nil
		default:
			return nil, errors.Filesystem(err, "resolve", abs)
		}

		target, err := w.fs.Readlink(abs)
		if err != nil {
			return nil, errors.Filesystem(err, "readlink", abs)
		}
		info, err = w.fs.Stat(realPath)
		if err != nil {
			return nil, errors.Filesystem(err, "stat", realPath)
		}

		entry.SymlinkTarget = target
		entry.SymlinkRealPath = realPath
		listPath = realPath
		w.totalFiles.Add(1)
	}

	entry.ModTime = info.ModTime()

	if info.IsDir() {
		return w.visitDir(ctx, entry, listPath, parentIgnored, chain)
	}

	if !isLink {
		w.totalFiles.Add(1)
	}
	if w.ignored(rel, false, parentIgnored) {
		w.ignoredFiles.Add(1)
		w.logger.Trace().Str("path", rel).Msg("Ignored")
		return nil, nil
	}

	entry.Size = info.Size()
	w.includedSize.Add(entry.Size)
	return Manifest{rel: entry}, nil
}

func (w *Walker) visitDir(ctx context.Context, entry Entry, listPath string, parentIgnored bool, chain []string) (Manifest, error) {
	rel := entry.Path

	if entry.IsSymlink() {
		for _, ancestor := range chain {
			if ancestor == listPath {
				w.skippedLinks.Add(1)
				w.logger.Warn().
					Str("path", rel).
					Str("target", listPath).
					Msg("Skipping symlink that points back to an ancestor directory")
				return nil, nil
			}
		}
	}

	ignored := w.ignored(rel, true, parentIgnored)
	if ignored && !w.rules.DescendInto(rel) {
		if entry.IsSymlink() {
			w.ignoredFiles.Add(1)
		} else {
			w.prunedDirs.Add(1)
		}
		w.logger.Trace().Str("path", rel).Msg("Pruned directory")
		return nil, nil
	}

	children, err := w.walkDir(ctx, listPath, rel, ignored, append(chain[:len(chain):len(chain)], listPath))
	if err != nil {
		return nil, err
	}
	if ignored && len(children) == 0 {
		// descended only for includes that matched nothing
		return nil, nil
	}

	entry.IsDir = true
	children[rel] = entry
	return children, nil
}

// rootError reports a walk root that cannot be resolved. A dangling root
// link is a filesystem failure here, not a link to skip.
func rootError(err error, p string) error {
	if errors.IsErrorCode(err, errors.ErrBrokenSymlink) {
		return errors.Wrap(err, errors.ErrFilesystem, "resolve failed").WithDetail("path", p)
	}
	return errors.Filesystem(err, "resolve", p)
}

func (w *Walker) ignored(rel string, isDir, parentIgnored bool) bool {
	if w.rules.Match(rel, isDir) {
		return true
	}
	return parentIgnored && !w.rules.Included(rel, isDir)
}
