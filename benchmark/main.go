// Package main benchmarks the riskdash CLI across corpus directories.
// Each corpus is scored several times, then enriched with the annotation cache
// disabled and with the SQLite cache; the first cached run counts as cold and
// the rest are averaged as warm.
//
// Prerequisites:
// - riskdash binary installed and available in PATH
// - Corpus directories (each holding pr_enriched.json) under the base directory
// - An OpenAI-compatible endpoint for enrich; without it records fall back to rules
//
// Usage: go run benchmark/main.go [corpus-base-dir]
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"
)

// BenchmarkResult holds the timings of one command on one corpus.
type BenchmarkResult struct {
	Corpus      string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	CorpusBase  string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Corpora     []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [corpus-base-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		CorpusBase:  os.Args[1],
		Timeout:     10 * time.Minute,
		Workers:     4,
		NoCacheRuns: 3,
		CacheRuns:   4,
	}

	corpora, err := findCorpora(config.CorpusBase)
	if err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}
	config.Corpora = corpora

	fmt.Printf("Clearing annotation cache...\n")
	clearCmd := exec.Command("riskdash", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// findCorpora lists the subdirectories of base that hold a pull request file.
func findCorpora(base string) ([]string, error) {
	if _, err := exec.LookPath("riskdash"); err != nil {
		return nil, fmt.Errorf("riskdash binary not found in PATH")
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, err
	}
	var corpora []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(base, e.Name(), "pr_enriched.json")); err == nil {
			corpora = append(corpora, e.Name())
		}
	}
	if len(corpora) == 0 {
		return nil, fmt.Errorf("no corpus directories found under %s", base)
	}
	sort.Strings(corpora)
	return corpora, nil
}

// runBenchmarks executes every command on every corpus.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d corpora, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Corpora), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, corpus := range config.Corpora {
		corpusDir := filepath.Join(config.CorpusBase, corpus)
		for _, command := range []string{"score", "enrich"} {
			results = append(results, runBenchmarkSuite(config, corpus, corpusDir, command))
		}
	}
	return results
}

// runBenchmarkSuite runs the no-cache and cache phases of a command.
func runBenchmarkSuite(config BenchmarkConfig, corpus, corpusDir, command string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, corpus)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, corpusDir, command, cacheBackend, numRuns)
		if len(times) == 0 {
			return cold, "TIMEOUT"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Corpus:      corpus,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark times numRuns successful executions; the first one is the cold run.
func runBenchmark(config BenchmarkConfig, corpusDir, command, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		command,
		"--corpus", corpusDir,
		"--cache-backend", cacheBackend,
		"--workers", fmt.Sprint(config.Workers),
		"--output", "csv",
		"--output-file", os.DevNull,
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		err := exec.CommandContext(ctx, "riskdash", args...).Run()
		if err == nil {
			times = append(times, time.Since(start).Seconds())
		}
		cancel()
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("riskdash_benchmark_%s.csv", time.Now().Format("20060102_150405")))

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

	if err := writer.Write([]string{"corpus", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Corpus, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range []string{"score", "enrich"} {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-12s: No-cache: %s, Cold: %s, Warm: %s\n", result.Corpus, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
