package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how the application logger is built.
type Options struct {
	Debug      bool     // Development config at debug level instead of production JSON.
	AppName    string   // Added to every entry as appName.
	AppVersion string   // Added to every entry as appVersion.
	OutputPath []string // Sinks; defaults to stderr.
}

// New builds the application logger. Entries go to stderr so that stdout
// stays free for the run summary.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config

	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	cfg.OutputPaths = []string{"stderr"}
	if len(opts.OutputPath) > 0 {
		cfg.OutputPaths = opts.OutputPath
	}
	cfg.ErrorOutputPaths = []string{"stderr"}

	// Add default fields
	cfg.InitialFields = map[string]interface{}{
		"appName":    opts.AppName,
		"appVersion": opts.AppVersion,
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop(), err
	}
	return logger, nil
}
