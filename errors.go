package watchtree

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// InitError wraps a failure during Start or reinitialize: descriptor
// creation, multiplexer registration, or the root watch itself. It is
// the only error category treated as fatal at startup.
type InitError struct {
	Op  string
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("watchtree: initialization failed: %s: %v", e.Op, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

func initError(op string, err error) error {
	return &InitError{Op: op, Err: err}
}

// stacktrace captures the calling goroutine's stack, trimmed to
// function names, for inclusion in a cache-inconsistency warning. It
// is diagnostic only; nothing downstream parses it.
func stacktrace(max int) []string {
	pc := make([]uintptr, max)
	n := runtime.Callers(2, pc)
	stack := make([]string, 0, n)
	for _, pc := range pc[:n] {
		f := runtime.FuncForPC(pc)
		if f == nil {
			continue
		}
		name := f.Name()
		if idx := strings.LastIndex(name, string(os.PathSeparator)); idx != -1 {
			name = name[idx+1:]
		}
		stack = append(stack, name)
	}
	return stack
}
