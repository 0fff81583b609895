package providers

import (
	"go.uber.org/zap"
)

// logger is shared by the parser and every locator in this package. It never
// receives message content above debug level.
var logger *zap.Logger

func init() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
}

// SetLogger replaces the package logger, typically with the process logger
// built by shared.NewLogger.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l.With(zap.String("package", "providers"))
	}
}
