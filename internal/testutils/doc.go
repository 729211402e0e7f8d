// Package testutils provides helpers shared by tests across packages. Its
// main export is TestSlogHandler, an in-memory slog.Handler used to assert
// on what was logged, for example that credentials never reach the logs.
package testutils
