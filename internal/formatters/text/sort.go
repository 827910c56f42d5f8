// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"maps"
	"slices"
)

func sortedKeys(m map[string][]string) []string {
	return slices.Sorted(maps.Keys(m))
}

func sortedCounts(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}
