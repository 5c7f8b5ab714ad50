package ports

// Verbosity-gated sink for human-readable progress messages.
// Planning code never depends on what the reporter does with them.
type Reporter interface {
	Progress(format string, args ...any)
	Info(format string, args ...any)
}

// Reporter that drops everything.
type NopReporter struct{}

func (NopReporter) Progress(string, ...any) {}
func (NopReporter) Info(string, ...any)     {}
