// Package export runs the export pipeline for one source tree.
// It encapsulates the flow: load ignore rules → walk → copy → rewrite descriptors.
package export

import (
	"context"
	"path/filepath"
	"time"

	"github.com/arthur-debert/dopack/pkg/copier"
	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/filesystem"
	"github.com/arthur-debert/dopack/pkg/ignore"
	"github.com/arthur-debert/dopack/pkg/logging"
	"github.com/arthur-debert/dopack/pkg/packages"
	"github.com/arthur-debert/dopack/pkg/rewriter"
	"github.com/arthur-debert/dopack/pkg/types"
	"github.com/arthur-debert/dopack/pkg/walker"
	"github.com/rs/zerolog"
)

// Options contains the options of one export
type Options struct {
	// Source is the tree to export.
	Source string
	// Replace allows an existing destination to be removed.
	Replace bool
	// Packages is the dependency tree whose descriptors are rewritten. Nil
	// skips the rewrite stage.
	Packages       *packages.Tree
	PackageManager string
	DescriptorFile string
	Strip          []string
	// IgnoreFiles and DefaultRules override the ignore rule lookup.
	IgnoreFiles  []string
	DefaultRules []string
	// DryRun stops after the walk.
	DryRun      bool
	Concurrency int
	Logger      *zerolog.Logger
}

// Result contains what each stage did
type Result struct {
	Source      string           `json:"source"`
	Destination string           `json:"destination,omitempty"`
	IgnoreFile  string           `json:"ignoreFile"`
	Walk        walker.Stats     `json:"walk"`
	Manifest    walker.Manifest  `json:"-"`
	Copy        *copier.Result   `json:"copy,omitempty"`
	Rewrite     *rewriter.Result `json:"rewrite,omitempty"`
	DryRun      bool             `json:"dryRun"`
	Duration    time.Duration    `json:"duration"`
}

// Exporter runs exports against one filesystem.
type Exporter struct {
	fs types.FS
}

// New creates an exporter.
func New(fsys types.FS) *Exporter {
	return &Exporter{fs: fsys}
}

// Export packages opts.Source into dest. Stages run strictly in order and
// the first failing stage ends the export; its error is returned as is.
// Work already copied is left on disk.
func (e *Exporter) Export(ctx context.Context, dest string, opts Options) (*Result, error) {
	logger := logging.For(opts.Logger, "export")
	start := time.Now()

	source, dest, exclude, err := resolvePaths(opts.Source, dest, opts.DryRun)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("source", source).
		Str("destination", dest).
		Bool("replace", opts.Replace).
		Bool("dryRun", opts.DryRun).
		Msg("Starting export")

	result := &Result{Source: source, Destination: dest, DryRun: opts.DryRun}

	// Step 1: Load ignore rules
	rules, err := ignore.Load(e.fs, source, ignore.LoadOptions{
		Files:    opts.IgnoreFiles,
		Defaults: opts.DefaultRules,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	result.IgnoreFile = rules.Source

	// Step 2: Walk the source tree
	w := walker.New(e.fs, source, rules, walker.Options{
		Concurrency: opts.Concurrency,
		Exclude:     exclude,
		Logger:      opts.Logger,
	})
	manifest, err := w.Walk(ctx, "")
	if err != nil {
		return nil, err
	}
	result.Manifest = manifest
	result.Walk = w.Stats()

	logger.Info().
		Str("ignoreFile", rules.Source).
		Int("rules", result.Walk.RulesLoaded).
		Int64("files", result.Walk.TotalFiles).
		Int64("ignored", result.Walk.IgnoredFiles).
		Int64("bytes", result.Walk.IncludedSize).
		Msg("Walked source tree")

	if opts.DryRun {
		result.Duration = time.Since(start)
		return result, nil
	}

	// Step 3: Copy the manifest
	c := copier.New(e.fs, copier.Options{
		Replace:      opts.Replace,
		IncludeRoots: rules.IncludeRoots(),
		Logger:       opts.Logger,
	})
	copied, err := c.Copy(ctx, source, dest, manifest)
	if err != nil {
		return nil, err
	}
	result.Copy = &copied

	logger.Info().
		Int("roots", copied.Roots).
		Int("files", copied.Files).
		Int("links", copied.Links).
		Int64("bytes", copied.Bytes).
		Msg("Copied manifest")

	// Step 4: Rewrite descriptors
	if opts.Packages != nil {
		r := rewriter.New(e.fs, rewriter.Options{
			DescriptorFile: opts.DescriptorFile,
			PackageManager: opts.PackageManager,
			Strip:          opts.Strip,
			Logger:         opts.Logger,
		})
		rewritten, err := r.Rewrite(ctx, opts.Packages, dest)
		if err != nil {
			return nil, err
		}
		result.Rewrite = &rewritten

		logger.Info().
			Int("visited", rewritten.Visited).
			Int("written", rewritten.Written).
			Int("binDropped", rewritten.BinDropped).
			Msg("Rewrote descriptors")
	}

	result.Duration = time.Since(start)
	logger.Info().
		Str("destination", dest).
		Dur("duration", result.Duration).
		Msg("Export completed")
	return result, nil
}

// resolvePaths makes source and dest absolute and, when dest lies inside
// source, returns its relative path so the walk skips it. A dest equal to
// or above source is rejected, as replacing it would remove the source.
func resolvePaths(source, dest string, dryRun bool) (string, string, []string, error) {
	if source == "" {
		return "", "", nil, errors.New(errors.ErrInvalidInput, "no source directory given")
	}
	source, err := filepath.Abs(source)
	if err != nil {
		return "", "", nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid source directory").
			WithDetail("source", source)
	}

	if dest == "" {
		if dryRun {
			return source, "", nil, nil
		}
		return "", "", nil, errors.New(errors.ErrInvalidInput, "no destination directory given")
	}
	dest, err = filepath.Abs(dest)
	if err != nil {
		return "", "", nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid destination directory").
			WithDetail("destination", dest)
	}

	if filesystem.IsWithin(dest, source) {
		return "", "", nil, errors.New(errors.ErrInvalidInput, "destination contains the source directory").
			WithDetail("source", source).
			WithDetail("destination", dest)
	}
	if filesystem.IsWithin(source, dest) {
		rel, err := filepath.Rel(source, dest)
		if err != nil {
			return "", "", nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid destination directory")
		}
		return source, dest, []string{filepath.ToSlash(rel)}, nil
	}
	return source, dest, nil, nil
}
