package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
)

// LoggerNames lists all package loggers of this module
var LoggerNames = []string{
	"manager",
	"pool",
	"redispool",
	"store",
	"lockmgr",
	"transport",
}

var levelLabels = map[logger.LogLevel]string{
	logger.CRITICAL: "CRIT",
	logger.ERROR:    "ERROR",
	logger.WARNING:  "WARN",
	logger.INFO:     "INFO",
	logger.DEBUG:    "DEBUG",
}

// lineLogger is a logger.ILogger that writes one "LEVEL | package | message" line per call
type lineLogger struct {
	pkg   string
	level logger.LogLevel
	out   *log.Logger
}

func newLineLogger(pkg string, w io.Writer, flags int) *lineLogger {
	return &lineLogger{pkg: pkg, level: logger.INFO, out: log.New(w, "", flags)}
}

func (l *lineLogger) SetLevel(level logger.LogLevel) { l.level = level }

func (l *lineLogger) Debugf(format string, args ...interface{}) {
	l.logf(logger.DEBUG, format, args...)
}

func (l *lineLogger) Infof(format string, args ...interface{}) {
	l.logf(logger.INFO, format, args...)
}

func (l *lineLogger) Warningf(format string, args ...interface{}) {
	l.logf(logger.WARNING, format, args...)
}

func (l *lineLogger) Errorf(format string, args ...interface{}) {
	l.logf(logger.ERROR, format, args...)
}

// Panicf always panics, the message is logged first
func (l *lineLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logf(logger.CRITICAL, "%s", msg)
	panic(msg)
}

func (l *lineLogger) logf(level logger.LogLevel, format string, args ...interface{}) {
	if level > l.level {
		return
	}
	l.out.Printf("%-5s | %-10s | %s", levelLabels[level], l.pkg, fmt.Sprintf(format, args...))
}

// CreateLogger is the logger.Factory used by InitLoggers, it writes to stdout
func CreateLogger(pkgName string) logger.ILogger {
	return newLineLogger(pkgName, os.Stdout, log.Ldate|log.Ltime)
}

// ParseLogLevel converts a level name (debug, info, warn, error) to a logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// InitLoggers installs CreateLogger as logger factory and sets the level of all package loggers
func InitLoggers(level string) error {
	logLevel, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)
	for _, name := range LoggerNames {
		logger.GetLogger(name).SetLevel(logLevel)
	}
	return nil
}
