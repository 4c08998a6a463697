// Package log is a minimal leveled logger in the style of the teacher's
// pktlog/log package: package-level Tracef/Debugf/Infof/Warnf/Errorf calls
// writing through a single swappable backend, gated by a level.
package log

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

// Level is a logging severity level.
type Level int32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

var names = map[Level]string{
	LevelTrace: "TRC",
	LevelDebug: "DBG",
	LevelInfo:  "INF",
	LevelWarn:  "WRN",
	LevelError: "ERR",
}

var (
	level  int32
	output atomic.Value // io.Writer
)

func init() {
	atomic.StoreInt32(&level, int32(LevelInfo))
	output.Store(io.Writer(os.Stderr))
}

// SetLevel changes the global minimum level that is written.
func SetLevel(l Level) {
	atomic.StoreInt32(&level, int32(l))
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	output.Store(w)
}

func logf(l Level, format string, args ...interface{}) {
	if Level(atomic.LoadInt32(&level)) > l {
		return
	}
	w := output.Load().(io.Writer)
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(w, "%s [%s] %s\n", ts, names[l], fmt.Sprintf(format, args...))
}

func Tracef(format string, args ...interface{}) { logf(LevelTrace, format, args...) }
func Debugf(format string, args ...interface{}) { logf(LevelDebug, format, args...) }
func Infof(format string, args ...interface{})  { logf(LevelInfo, format, args...) }
func Warnf(format string, args ...interface{})  { logf(LevelWarn, format, args...) }
func Errorf(format string, args ...interface{}) { logf(LevelError, format, args...) }

func Trace(args ...interface{}) { logf(LevelTrace, "%s", fmt.Sprint(args...)) }
func Debug(args ...interface{}) { logf(LevelDebug, "%s", fmt.Sprint(args...)) }
func Info(args ...interface{})  { logf(LevelInfo, "%s", fmt.Sprint(args...)) }
func Warn(args ...interface{})  { logf(LevelWarn, "%s", fmt.Sprint(args...)) }
func Error(args ...interface{}) { logf(LevelError, "%s", fmt.Sprint(args...)) }
