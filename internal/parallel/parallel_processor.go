// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"taxform-scan/internal/observability"
)

// ProcessingStats tracks parallel processing statistics
type ProcessingStats struct {
	TotalFiles     int           `json:"total_files"`
	ProcessedFiles int           `json:"processed_files"`
	FailedFiles    int           `json:"failed_files"`
	TotalDuration  time.Duration `json:"-"`
	WorkerCount    int           `json:"worker_count"`
	AvgFileTime    time.Duration `json:"-"`

	// Millisecond renderings of the durations above
	TotalDurationMs int64 `json:"total_duration_ms"`
	AvgFileTimeMs   int64 `json:"avg_file_time_ms"`
}

// ProgressCallback is called when a file is completed
type ProgressCallback func(completed, total int, currentFile string)

// Options tunes a batch run
type Options struct {
	Workers    int           // 0 uses the CPU count capped at 8
	JobTimeout time.Duration // per file; 0 disables
	Progress   ProgressCallback
	Observer   *observability.Observer
}

// DefaultWorkers returns the CPU count capped at 8
func DefaultWorkers() int {
	return min(runtime.NumCPU(), 8)
}

// ProcessFiles runs handler over every path and returns one result per path
// sorted by file path. Failures stay in their own result.
func ProcessFiles[T any](ctx context.Context, paths []string, handler Handler[T], opts Options) ([]*Result[T], *ProcessingStats) {
	start := time.Now()
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	workers = min(workers, max(len(paths), 1))

	finish := opts.Observer.StartTiming("parallel_processor", "process_files", "batch")

	pool := NewWorkerPool(ctx, workers, opts.JobTimeout, handler, opts.Observer)
	pool.Start()

	go func() {
		for i, p := range paths {
			pool.Submit(&Job{ID: fmt.Sprintf("job_%d", i), FilePath: p})
		}
		pool.Close()
	}()

	results := make([]*Result[T], 0, len(paths))
	var busy time.Duration
	failed := 0
	for res := range pool.Results() {
		results = append(results, res)
		busy += res.Duration
		if res.Error != nil {
			failed++
		}
		if opts.Progress != nil {
			opts.Progress(len(results), len(paths), res.FilePath)
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].FilePath < results[j].FilePath })

	stats := &ProcessingStats{
		TotalFiles:     len(paths),
		ProcessedFiles: len(results) - failed,
		FailedFiles:    failed,
		TotalDuration:  time.Since(start),
		WorkerCount:    workers,
		AvgFileTime:    busy / time.Duration(max(len(results), 1)),
	}
	stats.TotalDurationMs = stats.TotalDuration.Milliseconds()
	stats.AvgFileTimeMs = stats.AvgFileTime.Milliseconds()
	finish(failed == 0, map[string]any{
		"total_files":  stats.TotalFiles,
		"failed_files": failed,
		"worker_count": workers,
		"duration_ms":  stats.TotalDuration.Milliseconds(),
	})
	return results, stats
}
