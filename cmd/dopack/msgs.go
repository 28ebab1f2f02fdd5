package dopack

import (
	_ "embed"
	"strings"
)

// Command descriptions
const (
	MsgRootShort       = "Export package source trees into clean distributions"
	MsgExportShort     = "Export a source tree into a destination directory"
	MsgLsShort         = "List the paths an export would include"
	MsgConfigShort     = "Print the effective configuration"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
	MsgManShort        = "Generate man pages"
)

// Flag descriptions
const (
	MsgFlagVerbose     = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagFormat      = "Output format: auto, term, text or json"
	MsgFlagJSON        = "Shorthand for --format json"
	MsgFlagSource      = "Source tree to export (default: current directory)"
	MsgFlagReplace     = "Remove an existing destination before exporting"
	MsgFlagPackages    = "Package tree file (YAML or JSON) driving the descriptor rewrite"
	MsgFlagPM          = "Package manager recorded in rewritten descriptors"
	MsgFlagConcurrency = "Maximum parallel entries per directory during the walk (0: unbounded)"
	MsgFlagDryRun      = "Walk and report without copying anything"
	MsgFlagTemplate    = "Print a commented configuration template instead"
	MsgFlagRules       = "List the compiled ignore rules instead of the paths"
	MsgFlagManDir      = "Directory to write man pages into"
)

// Messages
const (
	MsgErrNoCommand    = "no command specified"
	MsgErrShell        = "unsupported shell %q"
	MsgVersionLine     = "dopack version %s\n"
	MsgVersionCommit   = "  commit: %s\n"
	MsgVersionDate     = "  built:  %s\n"
	MsgManWritten      = "Man pages written to %s"
	MsgNothingExported = "Nothing to export: every path of %s is ignored"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/export-long.txt
	msgExportLongRaw string
	MsgExportLong    = strings.TrimSpace(msgExportLongRaw)

	//go:embed msgs/export-example.txt
	msgExportExampleRaw string
	MsgExportExample    = strings.TrimRight(msgExportExampleRaw, "\n")

	//go:embed msgs/ls-long.txt
	msgLsLongRaw string
	MsgLsLong    = strings.TrimSpace(msgLsLongRaw)

	//go:embed msgs/config-long.txt
	msgConfigLongRaw string
	MsgConfigLong    = strings.TrimSpace(msgConfigLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
