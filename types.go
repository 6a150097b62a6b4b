package seqshare

import "github.com/phausler/seqshare/types"

// Re-export types from the types package.
//
// This file provides a stable public API for the library's core types and
// interfaces via type aliases. Keeping the definitions in the `types`
// subpackage lets internal packages depend on them without depending on the
// root package, while users still get `seqshare.Source`, `seqshare.Logger`,
// etc.
type (
	Logger           = types.Logger
	MetricsCollector = types.MetricsCollector
)

// Re-export the producer contract types.
type (
	Source[T any]     = types.Source[T]
	SourceFunc[T any] = types.SourceFunc[T]
	OpenFunc[T any]   = types.OpenFunc[T]
)
