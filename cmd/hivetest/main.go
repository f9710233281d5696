// Command hivetest runs the engine's registered test suites, with flags
// to filter by name or suite, repeat a pass, and stop at the first
// failure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hive-engine/hive/internal/hivelog"
	"github.com/hive-engine/hive/internal/testkit"
)

func main() {
	var (
		filter        string
		suite         string
		verbose       bool
		repeat        int
		stopOnFailure bool
	)

	root := &cobra.Command{
		Use:   filepath.Base(os.Args[0]),
		Short: "Run registered engine test suites",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := hivelog.New("hivetest", hivelog.WithLevel(levelFor(verbose)))
			tests := selectTests(testkit.All(), filter, suite)
			if len(tests) == 0 {
				log.Warn("no tests matched", "filter", filter, "suite", suite)
				return nil
			}

			if repeat < 1 {
				repeat = 1
			}
			var failed int
			var ran int
			for pass := 0; pass < repeat; pass++ {
				for _, test := range tests {
					result := testkit.Run(test, verbose)
					ran++
					if !result.Passed {
						failed++
						log.Error("FAIL", nil, "suite", test.Suite, "name", test.Name)
						for _, line := range result.Logs {
							fmt.Fprintln(os.Stderr, "    "+line)
						}
						if stopOnFailure {
							return exitWithFailures(failed, ran)
						}
					} else if verbose {
						log.Info("PASS", "suite", test.Suite, "name", test.Name)
					}
				}
			}
			return exitWithFailures(failed, ran)
		},
	}

	root.Flags().StringVar(&filter, "filter", "", "only run tests whose name contains this substring")
	root.Flags().StringVar(&suite, "suite", "", "only run tests in this suite")
	root.Flags().BoolVar(&verbose, "verbose", false, "log every passing test, not just failures")
	root.Flags().IntVar(&repeat, "repeat", 1, "run the matched set this many times")
	root.Flags().BoolVar(&stopOnFailure, "stop-on-failure", false, "stop at the first failing test")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func selectTests(all []testkit.Test, filter, suite string) []testkit.Test {
	var out []testkit.Test
	for _, test := range all {
		if suite != "" && test.Suite != suite {
			continue
		}
		if filter != "" && !strings.Contains(test.Name, filter) {
			continue
		}
		out = append(out, test)
	}
	return out
}

func levelFor(verbose bool) string {
	if verbose {
		return "debug"
	}
	return "info"
}

func exitWithFailures(failed, ran int) error {
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d/%d tests failed\n", failed, ran)
		os.Exit(1)
	}
	fmt.Printf("%d tests passed\n", ran)
	return nil
}
