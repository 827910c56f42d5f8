// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// overrideFile is the on-disk layout of a rules file
type overrideFile struct {
	Forms []Definition `yaml:"forms"`
}

// LoadCatalog reads a YAML rules file and layers it over the built-in
// catalog. A definition replaces the built-in one of the same type; new
// types are appended to the classification order.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog layers YAML definitions over the built-in catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	defs := Default().Definitions()
	positions := make(map[FormType]int, len(defs))
	for i, d := range defs {
		positions[d.Type] = i
	}

	for _, d := range file.Forms {
		if i, ok := positions[d.Type]; ok {
			defs[i] = d
			continue
		}
		positions[d.Type] = len(defs)
		defs = append(defs, d)
	}

	catalog, err := NewCatalog(defs)
	if err != nil {
		return nil, fmt.Errorf("invalid rules file: %w", err)
	}
	return catalog, nil
}
