package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	LOG_LEVEL_DEBUG = "DEBUG"
	LOG_LEVEL_INFO  = "INFO"
	LOG_LEVEL_WARN  = "WARN"
	LOG_LEVEL_ERROR = "ERROR"
	LOG_LEVEL_FATAL = "FATAL"
	LOG_LEVEL_PANIC = "PANIC"
)

// Level variables, the first one set wins.
var levelVariables = []string{"GST_LOGLEVEL", "MDL_COMN_LOGLEVEL"}

func SetupLogging() {
	zerolog.LevelFieldName = "level_name"
	zerolog.TimestampFieldName = "timestamp"
}

func NewLogger(component string) zerolog.Logger {
	return zerolog.New(os.Stderr).
		With().
		Str("component", component).
		Timestamp().
		Logger().
		Level(ParseLevel(lookupLevel()))
}

func lookupLevel() string {
	for _, variable := range levelVariables {
		if level, ok := os.LookupEnv(variable); ok && level != "" {
			return level
		}
	}
	return LOG_LEVEL_INFO
}

// ParseLevel maps a level name to its zerolog level, INFO for unknown names.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case LOG_LEVEL_DEBUG:
		return zerolog.DebugLevel
	case LOG_LEVEL_WARN:
		return zerolog.WarnLevel
	case LOG_LEVEL_ERROR:
		return zerolog.ErrorLevel
	case LOG_LEVEL_FATAL:
		return zerolog.FatalLevel
	case LOG_LEVEL_PANIC:
		return zerolog.PanicLevel
	}
	return zerolog.InfoLevel
}
