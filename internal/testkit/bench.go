package testkit

import (
	"fmt"
	"sync"
	"time"
)

// B is passed to a registered benchmark function.
type B struct {
	N int

	start time.Time
	timed time.Duration
}

// ResetTimer discards elapsed time accumulated before the call, so setup
// work inside the benchmark function is not counted.
func (b *B) ResetTimer() { b.start = nowOverride() }

// Benchmark is one registered benchmark case.
type Benchmark struct {
	Suite string
	Name  string
	Func  func(b *B)
}

var (
	benchRegistryMu sync.Mutex
	benchRegistry   []Benchmark
)

// RegisterBenchmark adds a benchmark to the global registry.
func RegisterBenchmark(bench Benchmark) {
	benchRegistryMu.Lock()
	defer benchRegistryMu.Unlock()
	benchRegistry = append(benchRegistry, bench)
}

// AllBenchmarks returns every registered benchmark, in registration
// order.
func AllBenchmarks() []Benchmark {
	benchRegistryMu.Lock()
	defer benchRegistryMu.Unlock()
	return append([]Benchmark(nil), benchRegistry...)
}

// BenchResult is one benchmark run's measured outcome.
type BenchResult struct {
	Bench        Benchmark
	Iterations   int
	Elapsed      time.Duration
	NsPerOp      float64
}

// RunFor runs bench repeatedly, doubling N, until at least minTime has
// elapsed, and records that final measurement. The whole search runs
// repetitions times (at least once) and one result per pass is returned;
// the passes are not averaged.
func RunFor(bench Benchmark, minTime time.Duration, repetitions int) []BenchResult {
	if repetitions < 1 {
		repetitions = 1
	}
	var results []BenchResult
	for r := 0; r < repetitions; r++ {
		n := 1
		for {
			b := &B{N: n}
			b.start = nowOverride()
			bench.Func(b)
			elapsed := nowOverride().Sub(b.start)
			if elapsed >= minTime || n > 1<<30 {
				results = append(results, BenchResult{
					Bench:      bench,
					Iterations: n,
					Elapsed:    elapsed,
					NsPerOp:    float64(elapsed.Nanoseconds()) / float64(n),
				})
				break
			}
			n *= 2
		}
	}
	return results
}

func nowOverride() time.Time { return time.Now() }

func (r BenchResult) String() string {
	return fmt.Sprintf("%s/%s\t%d\t%.1f ns/op", r.Bench.Suite, r.Bench.Name, r.Iterations, r.NsPerOp)
}
