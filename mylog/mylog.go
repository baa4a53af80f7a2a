package mylog

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// fallback logs errors of a nil MyLog, the standard logger is silenced by NewLog
var fallback Logger = log.New(os.Stderr, "", log.LstdFlags)

type Logger interface {
	Printf(string, ...interface{})
}

type Level int

const (
	LevelFatal Level = iota - 2
	LevelError
	LevelInfo
	LevelTrace
	LevelDebug
)

var levelStrings = map[string]Level{
	"FATAL": LevelFatal,
	"ERROR": LevelError,
	"INFO":  LevelInfo,
	"TRACE": LevelTrace,
	"DEBUG": LevelDebug,
}

var prefixes = map[Level]string{
	LevelFatal: "[FATAL] ",
	LevelError: "[ERROR] ",
	LevelInfo:  "[INFO ] ",
	LevelTrace: "[TRACE] ",
	LevelDebug: "[DEBUG] ",
}

// ParseLevel returns the level named by s (case insensitive)
func ParseLevel(s string) (Level, error) {
	if level, ok := levelStrings[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return level, nil
	}
	return LevelError, fmt.Errorf("invalid log level '%s'", s)
}

func (l Level) String() string {
	return strings.TrimSpace(strings.Trim(prefixes[l], "[] "))
}

type MyLog struct {
	logLevel                  Level
	consoleLogger, fileLogger Logger
	exit                      func(int)
}

// NewLog return a MyLog structure
// Errors are always written on the console logger. When a file logger is given,
// messages up to the log level are written into it, otherwise they go to the console.
func NewLog(lvl string, consoleLogger, fileLogger Logger) (*MyLog, error) {
	level, err := ParseLevel(lvl)
	if err != nil {
		return nil, err
	}

	// intercept all direct call to log as in http package
	log.SetOutput(io.Discard)

	return &MyLog{
		logLevel:      level,
		consoleLogger: consoleLogger,
		fileLogger:    fileLogger,
		exit:          os.Exit,
	}, nil
}

// NewWriterLog is a shortcut to get a MyLog writing on w
func NewWriterLog(lvl string, w io.Writer) (*MyLog, error) {
	return NewLog(lvl, log.New(w, "", log.LstdFlags), nil)
}

// Level returns the current log level
func (l *MyLog) Level() Level {
	if l == nil {
		return LevelError
	}
	return l.logLevel
}

// Fatal prepare the output of FATAL message
func (l *MyLog) Fatal() logcontext {
	return logcontext{l, LevelFatal}
}

// Error prepare the output of ERROR message
func (l *MyLog) Error() logcontext {
	return logcontext{l, LevelError}
}

// Info prepare the output of INFO message
func (l *MyLog) Info() logcontext {
	return logcontext{l, LevelInfo}
}

// Trace prepare the output of TRACE message
func (l *MyLog) Trace() logcontext {
	return logcontext{l, LevelTrace}
}

// Debug prepare the output of DEBUG message
func (l *MyLog) Debug() logcontext {
	return logcontext{l, LevelDebug}
}

// IsDebug return true if log level is DEBUG
func (l *MyLog) IsDebug() bool {
	if l == nil {
		return false
	}
	return l.logLevel >= LevelDebug
}

// logcontext get the level of current message
type logcontext struct {
	mylog *MyLog
	lvl   Level
}

// Printf print message on configured writers
// When a log file writer is provided, only errors are written on
// console writer
// When the message is FATAL, the message is written on writers and the
// program exits
// If the logger isn't initialized, only errors are logged on the console
func (c logcontext) Printf(fmt string, args ...interface{}) {
	if c.mylog == nil {
		switch {
		case c.lvl == LevelFatal:
			fallback.Printf(prefixes[c.lvl]+fmt, args...)
			os.Exit(1)
		case c.lvl <= LevelError:
			fallback.Printf(prefixes[c.lvl]+fmt, args...)
		}
		return
	}
	if c.lvl > c.mylog.logLevel && (c.lvl > LevelError || c.mylog.consoleLogger == nil) {
		return
	}
	switch {
	case c.mylog.fileLogger != nil:
		if c.lvl <= LevelError && c.mylog.consoleLogger != nil {
			c.mylog.consoleLogger.Printf(prefixes[c.lvl]+fmt, args...)
		}
		if c.lvl <= c.mylog.logLevel {
			c.mylog.fileLogger.Printf(prefixes[c.lvl]+fmt, args...)
		}
	case c.mylog.consoleLogger != nil:
		c.mylog.consoleLogger.Printf(prefixes[c.lvl]+fmt, args...)
	}
	if c.lvl == LevelFatal {
		if c.mylog.consoleLogger == nil && c.mylog.fileLogger == nil {
			fallback.Printf(prefixes[c.lvl]+fmt, args...)
		}
		c.mylog.exit(1)
	}
}
