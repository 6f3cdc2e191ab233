// Package log provides the structured logging abstraction used by scriptd.
//
// Every component takes a [Logger] rather than a concrete logging library so
// that embedding applications can route script output into their own
// infrastructure. A zerolog-backed adapter and a no-op logger are provided.
//
// # Usage
//
//	logger := log.NewZerologAdapter()
//	logger = logger.With(log.String("script", "fisher"))
//	logger.Info("task executed", log.String("task", "bank"), log.Duration("took", d))
//
// Tests typically use the no-op logger:
//
//	logger := log.NewNoopLogger()
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package log
