// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessFilesSortedAndIsolated(t *testing.T) {
	paths := []string{"c.txt", "a.txt", "bad.txt", "b.txt"}
	handler := func(_ context.Context, path string) (string, error) {
		if path == "bad.txt" {
			return "", errors.New("unreadable")
		}
		return strings.ToUpper(path), nil
	}

	var progress atomic.Int32
	results, stats := ProcessFiles(context.Background(), paths, handler, Options{
		Workers:  3,
		Progress: func(done, total int, _ string) { progress.Add(1); assert.Equal(t, 4, total) },
	})

	require.Len(t, results, 4)
	assert.Equal(t, []string{"a.txt", "b.txt", "bad.txt", "c.txt"},
		[]string{results[0].FilePath, results[1].FilePath, results[2].FilePath, results[3].FilePath})
	assert.Equal(t, "A.TXT", results[0].Value)
	assert.EqualError(t, results[2].Error, "unreadable")
	assert.Equal(t, 3, stats.ProcessedFiles)
	assert.Equal(t, 1, stats.FailedFiles)
	assert.Equal(t, 3, stats.WorkerCount)
	assert.Equal(t, int32(4), progress.Load())
}

func TestProcessFilesPerJobTimeout(t *testing.T) {
	handler := func(ctx context.Context, path string) (int, error) {
		if path == "slow" {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 1, nil
	}
	results, stats := ProcessFiles(context.Background(), []string{"fast", "slow"}, handler, Options{
		Workers:    2,
		JobTimeout: 20 * time.Millisecond,
	})
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Error)
	assert.ErrorIs(t, results[1].Error, context.DeadlineExceeded)
	assert.Equal(t, 1, stats.FailedFiles)
}

func TestProcessFilesCancelledKeepsEveryPath(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, _ := ProcessFiles(ctx, []string{"x", "y"}, func(context.Context, string) (int, error) {
		return 1, nil
	}, Options{Workers: 1})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Error, context.Canceled)
	}
}

func TestProcessFilesRecoversPanic(t *testing.T) {
	results, _ := ProcessFiles(context.Background(), []string{"p"}, func(context.Context, string) (int, error) {
		panic("boom")
	}, Options{})
	require.Len(t, results, 1)
	assert.ErrorContains(t, results[0].Error, "boom")
}

func TestProcessFilesEmpty(t *testing.T) {
	results, stats := ProcessFiles(context.Background(), nil, func(context.Context, string) (int, error) {
		return 0, nil
	}, Options{})
	assert.Empty(t, results)
	assert.Zero(t, stats.TotalFiles)
}

func TestProcessingStatsJSONInMilliseconds(t *testing.T) {
	handler := func(_ context.Context, path string) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return path, nil
	}
	_, stats := ProcessFiles(context.Background(), []string{"a.txt"}, handler, Options{Workers: 1})

	assert.Equal(t, stats.TotalDuration.Milliseconds(), stats.TotalDurationMs)
	assert.GreaterOrEqual(t, stats.AvgFileTimeMs, int64(20))

	raw, err := json.Marshal(stats)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, float64(stats.TotalDurationMs), decoded["total_duration_ms"])
	assert.Equal(t, float64(stats.AvgFileTimeMs), decoded["avg_file_time_ms"])
	assert.Less(t, decoded["avg_file_time_ms"].(float64), float64(time.Minute.Milliseconds()))
}
