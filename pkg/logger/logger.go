// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the global logger of the reporter.
// It discards everything until SetLogger is called.
var Log = logr.Discard()

// Config configures the zap logger that backs the logr interface.
type Config struct {
	Development       bool
	Cli               bool
	Verbosity         int
	DisableStacktrace bool
	DisableCaller     bool
}

var configFromFlags = Config{}

var developmentConfig = zap.Config{
	Level:             zap.NewAtomicLevelAt(zap.InfoLevel),
	Development:       true,
	Encoding:          "console",
	DisableStacktrace: false,
	DisableCaller:     false,
	EncoderConfig:     developmentEncoderConfig(),
	OutputPaths:       []string{"stderr"},
	ErrorOutputPaths:  []string{"stderr"},
}

var productionConfig = zap.Config{
	Level:             zap.NewAtomicLevelAt(zap.InfoLevel),
	Development:       false,
	DisableStacktrace: true,
	DisableCaller:     true,
	Encoding:          "json",
	EncoderConfig:     zap.NewProductionEncoderConfig(),
	OutputPaths:       []string{"stderr"},
	ErrorOutputPaths:  []string{"stderr"},
}

var cliConfig = zap.Config{
	Level:             zap.NewAtomicLevelAt(zap.InfoLevel),
	Development:       false,
	DisableStacktrace: true,
	DisableCaller:     true,
	Encoding:          "console",
	EncoderConfig:     cliEncoderConfig(),
	OutputPaths:       []string{"stderr"},
	ErrorOutputPaths:  []string{"stderr"},
}

// New creates a new logr logger backed by zap.
// If no config is given the configuration from the command line flags is used.
func New(config *Config) (logr.Logger, error) {
	if config == nil {
		config = &configFromFlags
	}
	zapCfg := determineZapConfig(config)

	level := int8(0 - config.Verbosity)
	zapCfg.Level = zap.NewAtomicLevelAt(zapcore.Level(level))

	zapLog, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zapLog), nil
}

// NewCliLogger creates a logger that writes human readable output for command line tools.
func NewCliLogger() (logr.Logger, error) {
	cfg := configFromFlags
	cfg.Cli = true
	return New(&cfg)
}

// SetLogger sets the global logger.
func SetLogger(log logr.Logger) {
	Log = log
}

func determineZapConfig(config *Config) zap.Config {
	var cfg zap.Config
	switch {
	case config.Development:
		cfg = developmentConfig
	case config.Cli:
		cfg = cliConfig
	default:
		cfg = productionConfig
	}

	cfg.DisableStacktrace = config.DisableStacktrace
	cfg.DisableCaller = config.DisableCaller

	return cfg
}

func developmentEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

func cliEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	cfg.NameKey = ""
	cfg.CallerKey = ""
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

// InitFlags adds the logging flags to the given flagset.
func InitFlags(flagset *flag.FlagSet) {
	if flagset == nil {
		flagset = flag.CommandLine
	}

	flagset.BoolVar(&configFromFlags.Development, "dev", false, "enable development logging which result in console encoding, enabled stacktrace and enabled caller")
	flagset.IntVarP(&configFromFlags.Verbosity, "verbosity", "v", 1, "number for the log level verbosity")
	flagset.BoolVar(&configFromFlags.DisableStacktrace, "disable-stacktrace", true, "disable the stacktrace of error logs")
	flagset.BoolVar(&configFromFlags.DisableCaller, "disable-caller", true, "disable the caller of logs")
}
