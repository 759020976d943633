// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package log implements leveled, context-aware logging. Every entry is
// prefixed with the log tags carried by the context (see
// github.com/cockroachdb/logtags), and arguments are rendered through
// github.com/cockroachdb/redact so that values not marked safe can be
// stripped from the output.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/util/syncutil"
)

// Severity identifies the sort of log: info, warning etc.
type Severity int32

// Severity levels, in increasing order of importance.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

const severityChar = "IWEF"

var severityNames = [...]string{"INFO", "WARNING", "ERROR", "FATAL"}

// String implements fmt.Stringer.
func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("Severity(%d)", int32(s))
	}
	return severityNames[s]
}

// SeverityByName attempts to parse the passed in string into a severity. (i.e.
// ERROR, INFO). If it succeeds, the returned bool is set to true.
func SeverityByName(s string) (Severity, bool) {
	s = strings.ToUpper(s)
	for i, name := range severityNames {
		if name == s {
			return Severity(i), true
		}
	}
	return 0, false
}

type loggingT struct {
	verbosity atomic.Int32
	threshold atomic.Int32
	redactArg atomic.Bool

	mu struct {
		syncutil.Mutex
		out    io.Writer
		colors *colorProfile
	}
}

var logging = func() *loggingT {
	l := &loggingT{}
	l.mu.out = os.Stderr
	l.mu.colors = stderrColorProfile()
	return l
}()

// osExitFunc is overridden in tests.
var osExitFunc = os.Exit

// SetVerbosity sets the level at which V() and VEventf start to report.
func SetVerbosity(level int32) {
	logging.verbosity.Store(level)
}

// SetThreshold drops entries below the given severity.
func SetThreshold(s Severity) {
	logging.threshold.Store(int32(s))
}

// SetRedactUnsafe controls whether arguments not marked safe are replaced by
// a redaction marker in the output.
func SetRedactUnsafe(redact bool) {
	logging.redactArg.Store(redact)
}

// SetOutput redirects log output and returns a function restoring the
// previous writer. Colors are disabled for anything but a terminal.
func SetOutput(w io.Writer) (restore func()) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	prevOut, prevColors := logging.mu.out, logging.mu.colors
	logging.mu.out = w
	if f, ok := w.(*os.File); !ok || f != os.Stderr {
		logging.mu.colors = nil
	}
	return func() {
		logging.mu.Lock()
		defer logging.mu.Unlock()
		logging.mu.out, logging.mu.colors = prevOut, prevColors
	}
}

// V returns true if the logging verbosity is set to the specified level or
// higher.
func V(level int32) bool {
	return logging.verbosity.Load() >= level
}

// Infof logs to the INFO log.
func Infof(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, SeverityInfo, format, args)
}

// Warningf logs to the WARNING and INFO logs.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, SeverityWarning, format, args)
}

// Errorf logs to the ERROR, WARNING, and INFO logs.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, SeverityError, format, args)
}

// Fatalf logs to the FATAL log and exits the process.
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, SeverityFatal, format, args)
}

// VEventf logs an info message if the verbosity is at least level.
func VEventf(ctx context.Context, level int32, format string, args ...interface{}) {
	if V(level) {
		logDepth(ctx, 1, SeverityInfo, format, args)
	}
}

func logDepth(ctx context.Context, depth int, s Severity, format string, args []interface{}) {
	if s < Severity(logging.threshold.Load()) {
		return
	}
	file, line := "???", 1
	if _, f, l, ok := runtime.Caller(depth + 1); ok {
		file, line = filepath.Base(f), l
	}
	msg := makeMessage(ctx, format, args, logging.redactArg.Load())
	logging.output(s, time.Now(), file, line, msg)
	if s == SeverityFatal {
		osExitFunc(255)
	}
}

func (l *loggingT) output(s Severity, now time.Time, file string, line int, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var buf strings.Builder
	formatHeader(&buf, s, now, file, line, l.mu.colors)
	buf.WriteString(msg)
	if !strings.HasSuffix(msg, "\n") {
		buf.WriteByte('\n')
	}
	if _, err := io.WriteString(l.mu.out, buf.String()); err != nil {
		// Make sure the message appears somewhere.
		fmt.Fprintf(os.Stderr, "log: write failed: %v\n%s", errors.Wrap(err, "writing log entry"), buf.String())
	}
}

// formatHeader writes a log header using the following format:
//
//	Lyymmdd hh:mm:ss.uuuuuu file:line
//
// where the fields are defined as follows:
//
//	L                A single character, representing the log level (eg 'I' for INFO)
//	yy               The year (zero padded; ie 2016 is '16')
//	mm               The month (zero padded; ie May is '05')
//	dd               The day (zero padded)
//	hh:mm:ss.uuuuuu  Time in hours, minutes and fractional seconds
//	file             The file name
//	line             The line number
func formatHeader(
	buf *strings.Builder, s Severity, now time.Time, file string, line int, colors *colorProfile,
) {
	if colors != nil {
		buf.Write(colors.prefix(s))
	}
	year, month, day := now.Date()
	hour, minute, second := now.Clock()
	fmt.Fprintf(buf, "%c%02d%02d%02d ", severityChar[s], year-2000, int(month), day)
	if colors != nil {
		buf.Write(colors.timePrefix)
	}
	fmt.Fprintf(buf, "%02d:%02d:%02d.%06d %s:%d ", hour, minute, second, now.Nanosecond()/1000, file, line)
	if colors != nil {
		buf.Write(colorReset)
	}
	buf.WriteByte(' ')
}
