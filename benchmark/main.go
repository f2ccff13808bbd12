// Package main provides a performance benchmarking tool for the statdash CLI.
// It measures page render times for each built-in page, running every page
// without a cache, then several times against a fresh SQLite cache, treating
// the first successful cached run as cold and averaging the rest as warm.
// Results are written to CSV for performance analysis and documentation.
//
// Prerequisites:
// - statdash binary installed and available in PATH
// - A reachable statistics API
//
// Usage: go run benchmark/main.go [api-url]
//
//	api-url: Base URL of the statistics API
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Page        string
	Lookback    string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	APIURL      string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Pages       []string
	Lookbacks   []string
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [api-url]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		APIURL:      os.Args[1],
		Timeout:     2 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Pages:       []string{"fixed-assets", "leading-index", "employment", "trade", "ppi", "laus"},
		Lookbacks:   []string{"", "all"},
	}

	if _, err := exec.LookPath("statdash"); err != nil {
		fmt.Printf("Prerequisites check failed: statdash binary not found in PATH\n")
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks executes the benchmark suite for every page and lookback.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d pages, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Pages), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, page := range config.Pages {
		for _, lookback := range config.Lookbacks {
			results = append(results, runBenchmarkSuite(config, page, lookback))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a page.
func runBenchmarkSuite(config BenchmarkConfig, page, lookback string) BenchmarkResult {
	label := lookback
	if label == "" {
		label = "default"
	}
	fmt.Printf("Rendering %s (lookback: %s)\n", page, label)

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend, cacheDB string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, page, lookback, cacheBackend, cacheDB, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", "", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs against a fresh database, so the first run is cold
	cacheDir, err := os.MkdirTemp("", "statdash-bench-*")
	if err != nil {
		fmt.Printf("  Warning: failed to create cache dir: %v\n", err)
		return BenchmarkResult{Page: page, Lookback: label, NoCacheTime: noCacheAvg, ColdTime: "ERROR", WarmTime: "ERROR"}
	}
	defer func() { _ = os.RemoveAll(cacheDir) }()
	coldTime, warmAvg := runPhase("sqlite", cacheDir+"/cache.db", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Page:        page,
		Lookback:    label,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark renders a page multiple times with the given cache backend and returns cold time and warm times.
func runBenchmark(config BenchmarkConfig, page, lookback, cacheBackend, cacheDB string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"page", page,
		"--api-url", config.APIURL,
		"--workers", fmt.Sprint(config.Workers),
		"--cache-backend", cacheBackend,
		"--color", "no",
	}
	if cacheDB != "" {
		args = append(args, "--cache-db-connect", cacheDB)
	}
	if lookback != "" {
		args = append(args, "--lookback", lookback)
	}

	var times []float64
	for range numRuns {
		start := time.Now()

		cmd := exec.Command("statdash", args...)

		done := make(chan bool, 1)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if the render finished without any failed series.
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Page rendered in") && !strings.Contains(outputStr, "⚠")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/statdash_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"page", "lookback", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Page, result.Lookback, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-14s %-8s: No-cache: %s, Cold: %s, Warm: %s\n",
			result.Page, result.Lookback, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
}
