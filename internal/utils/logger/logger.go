// Package logger provides the global loggers for the application
package logger

import (
	"flag"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"go.uber.org/zap"

	"github.com/tensorplex-labs/ensemble/internal/config"
)

var (
	Logger = zap.NewNop()

	debug = flag.Bool("debug", false, "sets log level to debug")
	trace = flag.Bool("trace", false, "sets log level to trace")
	info  = flag.Bool("info", false, "sets log level to info (default)")

	once sync.Once
)

// LevelForEnvironment maps ENVIRONMENT to a zerolog level. dev and test log
// everything, anything else logs info and above.
func LevelForEnvironment(environment string) zerolog.Level {
	switch strings.ToLower(environment) {
	case "dev", "test":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

func initLogger() {
	config.LoadDotEnv()

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()

	if !flag.Parsed() {
		flag.Parse()
	}

	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if environment == "" {
		environment = "prod"
	}

	logLevel := LevelForEnvironment(environment)
	switch environment {
	case "dev", "test", "prod":
		log.Info().Str("environment", environment).Str("level", logLevel.String()).Msg("Environment detected")
	default:
		log.Warn().Str("environment", environment).Msg("Unknown environment - defaulting to production log level (info and above)")
	}

	if *debug {
		logLevel = zerolog.DebugLevel
		log.Info().Msg("Debug flag detected - overriding environment log level")
	} else if *trace {
		logLevel = zerolog.TraceLevel
		log.Info().Msg("Trace flag detected - overriding environment log level")
	} else if *info {
		logLevel = zerolog.InfoLevel
		log.Info().Msg("Info flag detected - overriding environment log level")
	}

	zerolog.SetGlobalLevel(logLevel)

	var (
		zl  *zap.Logger
		err error
	)
	if environment == "prod" {
		zl, err = zap.NewProduction()
	} else {
		zl, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to build zap logger, summaries are discarded")
		return
	}
	Logger = zl
}

// Init initializes the loggers with the configuration from the environment
// and command line flags. Flags defined by the caller must be registered
// before Init runs since it parses the command line.
//
//	logger.Init() <- inside whichever main() function in your entrypoint
//
// Then, `go run ./cmd/server --debug`
func Init() {
	once.Do(initLogger)
}

// Sugar returns a sugared logger for key-value summaries
func Sugar() *zap.SugaredLogger {
	return Logger.Sugar()
}
