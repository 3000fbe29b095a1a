package testutil

import (
	"fmt"
	"sync"

	"github.com/trezcool/mwalimu/core"
)

// Logger records the logged messages by level.
type Logger struct {
	mu       sync.Mutex
	Messages map[string][]string
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger {
	return &Logger{Messages: make(map[string][]string)}
}

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages[level] = append(l.Messages[level], msg)
}

// Count returns how many messages were logged at level.
func (l *Logger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Messages[level])
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("debug", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("info", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("warn", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("error", msg) }
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log("fatal", msg)
	panic(fmt.Sprint(append([]interface{}{msg}, args...)...))
}
