// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"context"
	"log/slog"
	"time"
)

// Observer times pipeline operations and reports them on a logger
type Observer struct {
	logger *slog.Logger
}

// NewObserver creates an observer; a nil logger disables reporting
func NewObserver(logger *slog.Logger) *Observer {
	return &Observer{logger: logger}
}

// Logger returns the observer's logger, never nil
func (o *Observer) Logger() *slog.Logger {
	if o == nil || o.logger == nil {
		return Discard()
	}
	return o.logger
}

// StartTiming returns a function to complete timing. Successful operations
// are logged at debug level, failures at warn.
func (o *Observer) StartTiming(component, operation, target string) func(success bool, metadata map[string]any) {
	start := time.Now()

	return func(success bool, metadata map[string]any) {
		if o == nil || o.logger == nil {
			return
		}

		attrs := []slog.Attr{
			slog.String("component", component),
			slog.String("operation", operation),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.Bool("success", success),
		}
		if target != "" {
			attrs = append(attrs, slog.String("target", target))
		}
		for k, v := range metadata {
			attrs = append(attrs, slog.Any(k, v))
		}

		level := slog.LevelDebug
		if !success {
			level = slog.LevelWarn
		}
		o.logger.LogAttrs(context.Background(), level, "operation finished", attrs...)
	}
}
