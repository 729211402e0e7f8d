// Package logger sets up the process-wide JSON slog logger and carries a
// request-scoped logger, tagged with the trace ID, through context.Context.
package logger
