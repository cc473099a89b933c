package application

import "log/slog"

// ResolveLogger returns logger, or the process default when the use case
// or worker was built without one.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
