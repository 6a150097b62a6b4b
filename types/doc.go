// Package types provides core type definitions and interfaces for the seqshare library.
//
// This package contains shared types that are used across multiple packages in the
// seqshare library. By keeping these types in a separate package, we avoid import
// cycles between the main seqshare package and its internal implementations.
//
// Key types:
//   - Source: Single-pass asynchronous element producer
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
