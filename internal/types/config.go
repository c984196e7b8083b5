package types

type RunMode string

const (
	// ModeLocal runs the scheduler loop in-process with in-memory storage
	ModeLocal RunMode = "local"
	// ModeScheduler runs the follow-up payment loop against postgres
	ModeScheduler RunMode = "scheduler"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
