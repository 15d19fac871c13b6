// Command exposecheck runs visibility scenarios headless and reports which
// callbacks fired after each step.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chrisuehlinger/expose/scenario"
)

func main() {
	timeout := flag.Duration("timeout", time.Second, "How long each step waits for pending timers")
	jsonOutput := flag.Bool("json", false, "Output results as JSON")
	verbose := flag.Bool("v", false, "Print every step and the page's console output")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <scenario.yaml|dir>...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s scenarios/lazy.yaml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -json scenarios/\n", os.Args[0])
		os.Exit(2)
	}

	files, err := findScenarios(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	runner := scenario.NewRunner()
	runner.Timeout = *timeout

	for _, file := range files {
		fmt.Fprintf(os.Stderr, "Running: %s\n", file)
		result := runner.RunFile(file)
		if !*jsonOutput {
			printResult(result, *verbose)
		}
	}

	if *jsonOutput {
		data, err := runner.ExportJSON()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	} else {
		passed, failed, errored := runner.Summary()
		fmt.Printf("\nSummary: %d passed, %d failed, %d errors\n", passed, failed, errored)
	}

	if _, failed, errored := runner.Summary(); failed+errored > 0 {
		os.Exit(1)
	}
}

func printResult(result scenario.Result, verbose bool) {
	fmt.Printf("\n%s %s (%.2fs)\n", statusSymbol(result.Status), result.Name, result.Duration.Seconds())
	if result.Message != "" {
		for _, line := range strings.Split(result.Message, "\n") {
			fmt.Printf("    %s\n", line)
		}
	}
	for _, err := range result.Errors {
		fmt.Printf("  ERROR: %s\n", err)
	}
	if !verbose {
		return
	}
	for _, step := range result.Steps {
		fmt.Printf("  %-20s scroll=%g,%g size=%gx%g fired=%d tracked=%d %v\n",
			step.Action, step.ScrollX, step.ScrollY, step.Width, step.Height,
			step.Fired, step.Tracked, step.Records)
	}
	for _, line := range result.Console {
		fmt.Printf("  | %s\n", line)
	}
}

func statusSymbol(status scenario.Status) string {
	switch status {
	case scenario.StatusPass:
		return "✓"
	case scenario.StatusFail:
		return "✗"
	case scenario.StatusError:
		return "!"
	default:
		return "?"
	}
}

// findScenarios expands directory arguments to the .yaml and .yml files
// directly inside them.
func findScenarios(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(arg, pattern))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no scenario files found")
	}
	return files, nil
}
