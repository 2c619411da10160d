package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// compileJqFilter parses and compiles a jq filter expression.
// Supports $params variable to reference the request parameters.
func compileJqFilter(filter string) (*gojq.Code, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, err
	}
	return gojq.Compile(query, gojq.WithVariables([]string{"$params"}))
}

// runJqFilter evaluates a compiled jq filter against JSON data and returns
// every output. If code is nil, the data is returned unchanged.
func runJqFilter(code *gojq.Code, data json.RawMessage, params map[string]any) ([]any, error) {
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	if code == nil {
		return []any{input}, nil
	}

	// gojq only accepts JSON-shaped values.
	var vars any = map[string]any{}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &vars); err != nil {
			return nil, err
		}
	}

	var results []any
	iter := code.Run(input, vars)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, err
		}
		results = append(results, v)
	}
	return results, nil
}
