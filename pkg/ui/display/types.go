// Package display turns command results into renderer-neutral summaries.
package display

import (
	"time"

	"github.com/arthur-debert/dopack/pkg/export"
	"github.com/c2h5oh/datasize"
)

// Summary is the display form of an export result
type Summary struct {
	Title    string    `json:"title"`
	DryRun   bool      `json:"dryRun"`
	Sections []Section `json:"sections"`
}

// Section groups the rows of one stage.
type Section struct {
	Name string `json:"name"`
	Rows []Row  `json:"rows"`
}

// Row is one label/value line.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Bytes formats a byte count for humans.
func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return datasize.ByteSize(n).HumanReadable()
}

// ExportSummary builds the summary of one export. Stages that did not run
// get no section.
func ExportSummary(r *export.Result) Summary {
	s := Summary{DryRun: r.DryRun}
	if r.DryRun {
		s.Title = "Dry run of " + r.Source
	} else {
		s.Title = "Exported " + r.Source + " to " + r.Destination
	}

	ignoreFile := r.IgnoreFile
	if ignoreFile == "" {
		ignoreFile = "(built-in rules)"
	}
	s.Sections = append(s.Sections, Section{
		Name: "Walk",
		Rows: []Row{
			{"Ignore file", ignoreFile},
			{"Rules", itoa(int64(r.Walk.RulesLoaded))},
			{"Files seen", itoa(r.Walk.TotalFiles)},
			{"Ignored", itoa(r.Walk.IgnoredFiles)},
			{"Pruned directories", itoa(r.Walk.PrunedDirs)},
			{"Skipped links", itoa(r.Walk.SkippedLinks)},
			{"Included size", Bytes(r.Walk.IncludedSize)},
		},
	})

	if r.Copy != nil {
		s.Sections = append(s.Sections, Section{
			Name: "Copy",
			Rows: []Row{
				{"Roots", itoa(int64(r.Copy.Roots))},
				{"Files", itoa(int64(r.Copy.Files))},
				{"Directories", itoa(int64(r.Copy.Dirs))},
				{"Links", itoa(int64(r.Copy.Links))},
				{"Written", Bytes(r.Copy.Bytes)},
			},
		})
	}

	if r.Rewrite != nil {
		s.Sections = append(s.Sections, Section{
			Name: "Descriptors",
			Rows: []Row{
				{"Packages visited", itoa(int64(r.Rewrite.Visited))},
				{"Rewritten", itoa(int64(r.Rewrite.Written))},
				{"Bin entries dropped", itoa(int64(r.Rewrite.BinDropped))},
			},
		})
	}

	s.Sections = append(s.Sections, Section{
		Name: "Timing",
		Rows: []Row{{"Duration", r.Duration.Round(time.Millisecond).String()}},
	})
	return s
}
