// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"taxform-scan/internal/observability"
)

// Handler processes one file
type Handler[T any] func(ctx context.Context, path string) (T, error)

// Job represents a file processing task
type Job struct {
	ID       string
	FilePath string
}

// Result represents processing results
type Result[T any] struct {
	JobID    string
	FilePath string
	Value    T
	Error    error
	Duration time.Duration
}

// WorkerPool runs a handler over queued jobs. Each job gets its own timeout
// derived from the pool context.
type WorkerPool[T any] struct {
	workers    int
	jobTimeout time.Duration
	handler    Handler[T]
	jobs       chan *Job
	results    chan *Result[T]
	wg         sync.WaitGroup
	ctx        context.Context
	observer   *observability.Observer
}

// NewWorkerPool creates a pool bound to ctx; a zero jobTimeout disables the per-job limit
func NewWorkerPool[T any](ctx context.Context, workers int, jobTimeout time.Duration, handler Handler[T], observer *observability.Observer) *WorkerPool[T] {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool[T]{
		workers:    workers,
		jobTimeout: jobTimeout,
		handler:    handler,
		jobs:       make(chan *Job, workers*2),
		results:    make(chan *Result[T], workers*2),
		ctx:        ctx,
		observer:   observer,
	}
}

// Start initializes worker goroutines
func (wp *WorkerPool[T]) Start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Submit queues a job; it blocks while the queue is full
func (wp *WorkerPool[T]) Submit(job *Job) {
	wp.jobs <- job
}

// Close stops accepting jobs and closes Results once the workers drain
func (wp *WorkerPool[T]) Close() {
	close(wp.jobs)
	go func() {
		wp.wg.Wait()
		close(wp.results)
	}()
}

// Results returns the results channel
func (wp *WorkerPool[T]) Results() <-chan *Result[T] {
	return wp.results
}

// worker processes jobs from the queue. Jobs taken after cancellation are
// reported with the context error instead of being dropped.
func (wp *WorkerPool[T]) worker(id int) {
	defer wp.wg.Done()
	for job := range wp.jobs {
		wp.results <- wp.processJob(job, id)
	}
}

func (wp *WorkerPool[T]) processJob(job *Job, workerID int) (res *Result[T]) {
	start := time.Now()
	res = &Result[T]{JobID: job.ID, FilePath: job.FilePath}

	if err := wp.ctx.Err(); err != nil {
		res.Error = err
		return res
	}

	finish := wp.observer.StartTiming("worker_pool", "process_job", job.FilePath)
	defer func() {
		if r := recover(); r != nil {
			res.Error = fmt.Errorf("panic processing %s: %v", job.FilePath, r)
		}
		res.Duration = time.Since(start)
		finish(res.Error == nil, map[string]any{
			"worker_id":   workerID,
			"duration_ms": res.Duration.Milliseconds(),
		})
	}()

	ctx := wp.ctx
	if wp.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wp.jobTimeout)
		defer cancel()
	}

	res.Value, res.Error = wp.handler(ctx, job.FilePath)
	return res
}
