package monitoring

import (
	"github.com/sirupsen/logrus"
)

// LoggerHelper provides standardized logrus fields for a package/function pair.
type LoggerHelper struct {
	logger logrus.FieldLogger
	fields logrus.Fields
}

// NewLogger creates a logger helper tagged with pkg and function. A nil logger selects the
// logrus standard logger.
func NewLogger(logger logrus.FieldLogger, pkg, function string) *LoggerHelper {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LoggerHelper{
		logger: logger,
		fields: logrus.Fields{
			"function": function,
			"package":  pkg,
		},
	}
}

// WithField adds a custom field to the logger
func (l *LoggerHelper) WithField(key string, value any) *LoggerHelper {
	l.fields[key] = value
	return l
}

// WithFields adds multiple custom fields to the logger
func (l *LoggerHelper) WithFields(fields logrus.Fields) *LoggerHelper {
	for k, v := range fields {
		l.fields[k] = v
	}
	return l
}

// WithError adds error information to the logger
func (l *LoggerHelper) WithError(err error, operation string) *LoggerHelper {
	if err != nil {
		l.fields["error"] = err.Error()
	}
	l.fields["operation"] = operation
	return l
}

func (l *LoggerHelper) Debug(message string) { l.logger.WithFields(l.fields).Debug(message) }
func (l *LoggerHelper) Info(message string)  { l.logger.WithFields(l.fields).Info(message) }
func (l *LoggerHelper) Warn(message string)  { l.logger.WithFields(l.fields).Warn(message) }
func (l *LoggerHelper) Error(message string) { l.logger.WithFields(l.fields).Error(message) }

// SecretFields describes a secret for logging without revealing any of its content.
func SecretFields(name string, secret string) logrus.Fields {
	return logrus.Fields{
		name + "_set":    secret != "",
		name + "_length": len(secret),
	}
}

// OperationFields creates standardized operation logging fields
func OperationFields(operation, status string, additional ...map[string]any) logrus.Fields {
	fields := logrus.Fields{
		"operation": operation,
		"status":    status,
	}

	for _, extra := range additional {
		for k, v := range extra {
			fields[k] = v
		}
	}

	return fields
}
