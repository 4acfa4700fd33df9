// Package log provides leveled logging for the tracker daemon and its
// background workers. A level is disabled by routing its writer to
// io.Discard rather than checking a numeric threshold on every call.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

var logDateTime bool

var (
	DebugWriter io.Writer = os.Stderr
	InfoWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
)

var (
	DebugPrefix = "[DEBUG] "
	InfoPrefix  = "[INFO]  "
	WarnPrefix  = "[WARN]  "
	ErrPrefix   = "[ERROR] "
)

var (
	DebugLog = log.New(DebugWriter, DebugPrefix, 0)
	InfoLog  = log.New(InfoWriter, InfoPrefix, 0)
	WarnLog  = log.New(WarnWriter, WarnPrefix, log.Lshortfile)
	ErrLog   = log.New(ErrWriter, ErrPrefix, log.Llongfile)

	DebugTimeLog = log.New(DebugWriter, DebugPrefix, log.LstdFlags)
	InfoTimeLog  = log.New(InfoWriter, InfoPrefix, log.LstdFlags)
	WarnTimeLog  = log.New(WarnWriter, WarnPrefix, log.LstdFlags|log.Lshortfile)
	ErrTimeLog   = log.New(ErrWriter, ErrPrefix, log.LstdFlags|log.Llongfile)
)

// SetLevel discards the writers below lvl ("debug", "info", "warn", "err"/"fatal").
func SetLevel(lvl string) {
	switch lvl {
	case "err", "fatal":
		WarnWriter = io.Discard
		fallthrough
	case "warn":
		InfoWriter = io.Discard
		fallthrough
	case "info":
		DebugWriter = io.Discard
	case "debug":
	default:
		fmt.Fprintf(os.Stderr, "log: unknown level %q, using debug\n", lvl)
		SetLevel("debug")
	}
}

// SetDateTime toggles a date/time prefix on every log line.
func SetDateTime(on bool) { logDateTime = on }

// SetOutput redirects every level's writer to w (e.g. the daemon's
// rotating log file instead of the os.Stderr default). A level
// previously discarded by SetLevel stays discarded: this only changes
// where enabled levels write to.
func SetOutput(w io.Writer) {
	for _, discarded := range []*io.Writer{&DebugWriter, &InfoWriter, &WarnWriter, &ErrWriter} {
		if *discarded != io.Discard {
			*discarded = w
		}
	}
	DebugLog = log.New(DebugWriter, DebugPrefix, 0)
	InfoLog = log.New(InfoWriter, InfoPrefix, 0)
	WarnLog = log.New(WarnWriter, WarnPrefix, log.Lshortfile)
	ErrLog = log.New(ErrWriter, ErrPrefix, log.Llongfile)
	DebugTimeLog = log.New(DebugWriter, DebugPrefix, log.LstdFlags)
	InfoTimeLog = log.New(InfoWriter, InfoPrefix, log.LstdFlags)
	WarnTimeLog = log.New(WarnWriter, WarnPrefix, log.LstdFlags|log.Lshortfile)
	ErrTimeLog = log.New(ErrWriter, ErrPrefix, log.LstdFlags|log.Llongfile)
}

func emit(w io.Writer, plain, timed *log.Logger, s string) {
	if w == io.Discard {
		return
	}
	if logDateTime {
		timed.Output(3, s)
	} else {
		plain.Output(3, s)
	}
}

func Debug(v ...interface{}) { emit(DebugWriter, DebugLog, DebugTimeLog, fmt.Sprint(v...)) }
func Info(v ...interface{})  { emit(InfoWriter, InfoLog, InfoTimeLog, fmt.Sprint(v...)) }
func Warn(v ...interface{})  { emit(WarnWriter, WarnLog, WarnTimeLog, fmt.Sprint(v...)) }
func Error(v ...interface{}) { emit(ErrWriter, ErrLog, ErrTimeLog, fmt.Sprint(v...)) }

func Debugf(format string, v ...interface{}) { emit(DebugWriter, DebugLog, DebugTimeLog, fmt.Sprintf(format, v...)) }
func Infof(format string, v ...interface{})  { emit(InfoWriter, InfoLog, InfoTimeLog, fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...interface{})  { emit(WarnWriter, WarnLog, WarnTimeLog, fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...interface{}) { emit(ErrWriter, ErrLog, ErrTimeLog, fmt.Sprintf(format, v...)) }

// Fatal logs at error level and exits the process with status 1.
func Fatal(v ...interface{}) {
	Error(v...)
	os.Exit(1)
}

func Fatalf(format string, v ...interface{}) {
	Errorf(format, v...)
	os.Exit(1)
}

// Panic logs at error level then panics. Used for invariants the caller
// cannot recover from locally but that must not silently os.Exit (tests
// recover around these).
func Panic(v ...interface{}) {
	Error(v...)
	panic(fmt.Sprint(v...))
}

func Panicf(format string, v ...interface{}) {
	Errorf(format, v...)
	panic(fmt.Sprintf(format, v...))
}
