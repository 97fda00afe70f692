package kubectl

import (
	"context"
	"strings"
	"sync"
)

// FakeRunner is a scripted Runner for tests. Handler receives each
// invocation's arguments; every call is recorded.
type FakeRunner struct {
	mu      sync.Mutex
	Handler func(args []string) (Result, error)
	Calls   [][]string
	Stdins  []string
}

// Run implements Runner.
func (f *FakeRunner) Run(_ context.Context, args ...string) (Result, error) {
	return f.record("", args)
}

// RunWithStdin implements Runner.
func (f *FakeRunner) RunWithStdin(_ context.Context, stdin string, args ...string) (Result, error) {
	return f.record(stdin, args)
}

func (f *FakeRunner) record(stdin string, args []string) (Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, args)
	f.Stdins = append(f.Stdins, stdin)
	f.mu.Unlock()

	if f.Handler == nil {
		return Result{ExitCode: 0}, nil
	}
	return f.Handler(args)
}

// CallCount returns how many invocations started with the given prefix.
func (f *FakeRunner) CallCount(prefix ...string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, call := range f.Calls {
		if hasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

// Commands returns each recorded invocation joined into one string.
func (f *FakeRunner) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.Calls))
	for _, call := range f.Calls {
		out = append(out, strings.Join(call, " "))
	}
	return out
}

func hasPrefix(call, prefix []string) bool {
	if len(call) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if call[i] != p {
			return false
		}
	}
	return true
}
