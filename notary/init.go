package notary

import (
	"go.uber.org/zap"
)

var logger *zap.Logger

func init() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
}

// SetLogger replaces the package logger.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l.With(zap.String("package", "notary"))
	}
}
