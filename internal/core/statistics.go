// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"fmt"
	"time"

	"taxform-scan/internal/storage"
	"taxform-scan/internal/version"
)

// EFilingStatistics summarises submission attempts
type EFilingStatistics struct {
	TotalSubmissions   int            `json:"total_submissions"`
	StatusDistribution map[string]int `json:"status_distribution"`
}

// SystemInfo describes the running processor
type SystemInfo struct {
	Version        string `json:"processor_version"`
	LastUpdated    string `json:"last_updated"`
	DatabaseType   string `json:"database_type"`
	EFilingEnabled bool   `json:"efiling_enabled"`
}

// Statistics is the combined processing report
type Statistics struct {
	Database *storage.Statistics `json:"database_statistics,omitempty"`
	EFiling  *EFilingStatistics  `json:"efiling_statistics,omitempty"`
	System   SystemInfo          `json:"system_info"`
}

// Statistics gathers storage and e-filing figures. dbType only labels the report.
func (dp *DocumentProcessor) Statistics(ctx context.Context, dbType string) (*Statistics, error) {
	st := &Statistics{
		System: SystemInfo{
			Version:        version.Short(),
			LastUpdated:    dp.now().UTC().Format(time.RFC3339),
			DatabaseType:   dbType,
			EFilingEnabled: dp.filer != nil,
		},
	}
	if dp.store != nil {
		db, err := dp.store.Statistics(ctx)
		if err != nil {
			return nil, fmt.Errorf("database statistics: %w", err)
		}
		st.Database = db
	}
	if dp.filer != nil {
		history := dp.filer.History()
		ef := &EFilingStatistics{TotalSubmissions: len(history), StatusDistribution: map[string]int{}}
		for _, h := range history {
			ef.StatusDistribution[h.Status]++
		}
		st.EFiling = ef
	}
	return st, nil
}
