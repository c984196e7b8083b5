package pubsub

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/flexprice/payschedule/internal/logger"
)

// LoggerAdapter routes watermill logs through the application logger
type LoggerAdapter struct {
	logger *logger.Logger
	fields watermill.LogFields
}

// NewLoggerAdapter creates a watermill.LoggerAdapter backed by logger
func NewLoggerAdapter(logger *logger.Logger) watermill.LoggerAdapter {
	return &LoggerAdapter{logger: logger}
}

func (a *LoggerAdapter) keysAndValues(fields watermill.LogFields) []interface{} {
	all := a.fields.Add(fields)
	kv := make([]interface{}, 0, len(all)*2)
	for k, v := range all {
		kv = append(kv, k, v)
	}
	return kv
}

func (a *LoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Errorw(msg, append(a.keysAndValues(fields), "error", err)...)
}

func (a *LoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Infow(msg, a.keysAndValues(fields)...)
}

func (a *LoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debugw(msg, a.keysAndValues(fields)...)
}

// Trace is logged at debug level, zap has no trace level
func (a *LoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Debugw(msg, a.keysAndValues(fields)...)
}

func (a *LoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &LoggerAdapter{logger: a.logger, fields: a.fields.Add(fields)}
}
