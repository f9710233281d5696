// Package testkit is the engine's own lightweight test registry, used by
// cmd/hivetest instead of go test so that engine test suites can be
// filtered, repeated, and reported the way the original toolchain's
// runner did.
package testkit

import (
	"fmt"
	"sync"
)

// T is passed to a registered test function; it records failures without
// panicking or stopping execution, so one failing assertion doesn't hide
// the rest of a test's output.
type T struct {
	name    string
	failed  bool
	verbose bool
	logs    []string
}

// Fail marks the test as failed without stopping it.
func (t *T) Fail() { t.failed = true }

// Fatalf marks the test as failed and records msg; unlike testing.T it
// does not unwind the goroutine — callers must return after calling it.
func (t *T) Fatalf(format string, args ...interface{}) {
	t.failed = true
	t.logs = append(t.logs, fmt.Sprintf(format, args...))
}

// Logf records a message; cmd/hivetest prints a test's recorded messages
// when the test fails, with or without --verbose.
func (t *T) Logf(format string, args ...interface{}) {
	t.logs = append(t.logs, fmt.Sprintf(format, args...))
}

// Failed reports whether Fail or Fatalf has been called.
func (t *T) Failed() bool { return t.failed }

// Test is one registered test case.
type Test struct {
	Suite string
	Name  string
	Func  func(t *T)
}

var (
	registryMu sync.Mutex
	registry   []Test
)

// Register adds a test case to the global registry. Called from package
// init functions throughout the engine's test suites.
func Register(test Test) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, test)
}

// All returns every registered test, in registration order.
func All() []Test {
	registryMu.Lock()
	defer registryMu.Unlock()
	return append([]Test(nil), registry...)
}

// Result is one executed test's outcome.
type Result struct {
	Test   Test
	Passed bool
	Logs   []string
}

// Run executes test once and returns its result.
func Run(test Test, verbose bool) Result {
	t := &T{name: test.Name, verbose: verbose}
	test.Func(t)
	return Result{Test: test, Passed: !t.failed, Logs: t.logs}
}
