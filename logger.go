package identity

// Logger is the structured logger used across the package. Messages take
// alternating key/value args, e.g. logger.Error("lookup failed", "error", err).
//
// glog.Logger satisfies this interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// LoggerProvider hands out named loggers.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// LoggerProviderFunc adapts a function to LoggerProvider.
type LoggerProviderFunc func(name string) Logger

// GetLogger implements LoggerProvider.
func (f LoggerProviderFunc) GetLogger(name string) Logger {
	if f == nil {
		return nil
	}
	return f(name)
}

// ResolveLogger picks the logger for name: the provider's logger when it
// returns one, then the fallback, then a no-op logger. A nil provider is
// replaced by one that always yields the resolved logger.
func ResolveLogger(name string, provider LoggerProvider, fallback Logger) (LoggerProvider, Logger) {
	var logger Logger
	if provider != nil {
		logger = provider.GetLogger(name)
	}
	if logger == nil {
		logger = fallback
	}
	if logger == nil {
		logger = nopLogger{}
	}

	if provider == nil {
		resolved := logger
		provider = LoggerProviderFunc(func(string) Logger { return resolved })
	}

	return provider, logger
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
