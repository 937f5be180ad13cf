// Package types provides core type definitions and interfaces for the flock library.
//
// This package contains shared types used across multiple packages in flock. By
// keeping these types in a separate package, we avoid import cycles between the
// root flock package and its internal implementations.
//
// Key types:
//   - WorkerID, WorkerState, WorkerInfo: the worker data model
//   - Envelope: the tagged master↔worker wire message
//   - Logger: structured logging interface
//   - MetricsCollector: metrics recording interface
//   - Hooks: optional lifecycle callbacks
package types
