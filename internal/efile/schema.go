// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package efile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const submissionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["submissionId", "formType", "taxYear", "taxpayerInfo", "submissionTimestamp"],
  "properties": {
    "submissionId": {"type": "string", "minLength": 1},
    "formType": {"enum": ["1040", "W2", "1099", "Schedule C", "941", "1120"]},
    "taxYear": {"type": "integer", "minimum": 1900},
    "taxpayerInfo": {
      "type": "object",
      "required": ["name", "ssn"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "ssn": {"type": "string", "pattern": "^[0-9]{3}-?[0-9]{2}-?[0-9]{4}$"},
        "filingStatus": {"type": "string"},
        "address": {
          "type": "object",
          "properties": {
            "state": {"type": "string", "pattern": "^([A-Za-z]{2})?$"},
            "zipCode": {"type": "string", "pattern": "^([0-9]{5}(-[0-9]{4})?)?$"}
          }
        }
      }
    },
    "incomeInfo": {"type": "object"},
    "taxInfo": {"type": "object"},
    "submissionTimestamp": {"type": "string", "minLength": 1}
  }
}`

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("submission.json", strings.NewReader(submissionSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("submission.json")
}

// checkSchema returns one message per failing leaf of the schema
func checkSchema(schema *jsonschema.Schema, sub *Submission) ([]string, error) {
	b, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("unmarshal submission: %w", err)
	}

	err = schema.Validate(v)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, err
	}
	var out []string
	collectLeaves(ve, &out)
	return out, nil
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, fmt.Sprintf("schema: %s: %s", loc, ve.Message))
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, out)
	}
}
