// Command hivebench runs the engine's registered benchmarks, with flags
// to filter by name, set a minimum measurement time, and repeat passes.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hive-engine/hive/internal/testkit"
)

func main() {
	var (
		filter      string
		minTimeMs   int
		repetitions int
	)

	root := &cobra.Command{
		Use:   filepath.Base(os.Args[0]),
		Short: "Run registered engine benchmarks",
		RunE: func(cmd *cobra.Command, args []string) error {
			benches := selectBenchmarks(testkit.AllBenchmarks(), filter)
			if len(benches) == 0 {
				fmt.Fprintf(os.Stderr, "no benchmarks matched filter %q\n", filter)
				os.Exit(1)
			}

			minTime := time.Duration(minTimeMs) * time.Millisecond
			if minTime <= 0 {
				minTime = time.Second
			}
			for _, bench := range benches {
				for _, result := range testkit.RunFor(bench, minTime, repetitions) {
					fmt.Println(result.String())
				}
			}
			return nil
		},
	}

	root.Flags().StringVar(&filter, "filter", "", "only run benchmarks whose name contains this substring")
	root.Flags().IntVar(&minTimeMs, "min-time", 1000, "minimum time in milliseconds to run each benchmark for")
	root.Flags().IntVar(&repetitions, "repetitions", 1, "number of full measurement passes per benchmark")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func selectBenchmarks(all []testkit.Benchmark, filter string) []testkit.Benchmark {
	if filter == "" {
		return all
	}
	var out []testkit.Benchmark
	for _, b := range all {
		if strings.Contains(b.Name, filter) {
			out = append(out, b)
		}
	}
	return out
}
