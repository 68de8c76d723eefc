package logging

import (
	"go.uber.org/zap"
)

// Logger writes to stderr only; stdout is reserved for the report payload.
var Logger = zap.NewNop().Sugar()

func InitLogger(debug bool) error {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	Logger = logger.Sugar()
	return nil
}

func Sync() { _ = Logger.Sync() }
