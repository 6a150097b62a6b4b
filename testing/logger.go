package testing

import (
	"testing"

	"github.com/phausler/seqshare/types"
)

// NewTestLogger returns a Logger that routes protocol events through t.Logf,
// so round and subscriber activity shows up interleaved with the test's own
// output. Fatal fails the test immediately.
func NewTestLogger(t *testing.T) types.Logger {
	return &testLogger{t: t}
}

type testLogger struct {
	t *testing.T
}

var _ types.Logger = (*testLogger)(nil)

func (l *testLogger) logf(level, msg string, keysAndValues []any) {
	l.t.Logf("%s: %s %v", level, msg, keysAndValues)
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) { l.logf("DEBUG", msg, keysAndValues) }

func (l *testLogger) Info(msg string, keysAndValues ...any) { l.logf("INFO", msg, keysAndValues) }

func (l *testLogger) Warn(msg string, keysAndValues ...any) { l.logf("WARN", msg, keysAndValues) }

func (l *testLogger) Error(msg string, keysAndValues ...any) { l.logf("ERROR", msg, keysAndValues) }

func (l *testLogger) Fatal(msg string, keysAndValues ...any) {
	l.t.Fatalf("FATAL: %s %v", msg, keysAndValues)
}
