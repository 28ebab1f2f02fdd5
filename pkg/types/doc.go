// Package types defines the capability interfaces shared by the export
// stages. The engine never touches the os package directly; everything goes
// through FS so stages can run against an in-memory tree in tests.
package types
