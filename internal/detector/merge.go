// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import "sort"

// Merge resolves overlapping entities in a single greedy sweep.
//
// Entities are stably sorted by start offset. The sweep keeps one current
// candidate; an overlapping successor replaces it only with strictly higher
// confidence, otherwise the successor is dropped. A kept entity is never
// compared against entities that overlapped a candidate it displaced, so the
// result can differ from a globally optimal selection. The output is ordered by
// start offset and contains no two overlapping entities.
func Merge(entities []Entity) []Entity {
	if len(entities) == 0 {
		return []Entity{}
	}

	sorted := make([]Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	merged := make([]Entity, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if current.Overlaps(next) {
			if next.Confidence > current.Confidence {
				current = next
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}

	return append(merged, current)
}
