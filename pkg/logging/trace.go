package logging

import "log/slog"

// EnableTrace gates the per-sample tracing below. Left false by default: a
// search can probe tens of thousands of line-of-sight samples, and logging
// every one at normal Debug verbosity would drown the cell-level search logs.
var EnableTrace = false

// Trace logs msg at DEBUG level through logger, but only when EnableTrace is
// set — for call sites too hot to log unconditionally, like a per-sample
// terrain intersection probe.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if EnableTrace {
		logger.Debug(msg, args...)
	}
}

// TraceDefault is Trace against the default logger, for call sites with no
// request/search-scoped logger handy.
func TraceDefault(msg string, args ...any) {
	if EnableTrace {
		slog.Debug(msg, args...)
	}
}
