// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jobconfig

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
)

// ParseParams parses repeated --param values of the form NAME=VALUE.
// The value may be empty or contain further "=" characters.
func ParseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected NAME=VALUE", pair)
		}
		params[name] = value
	}
	return params, nil
}

// LoadParamsFile reads a JSONC object of build parameters. Values may be
// strings, numbers or booleans; Jenkins receives them all as strings.
//
//	{
//	    // who to greet
//	    "NAME": "alice",
//	    "RETRIES": 3,
//	}
func LoadParamsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("%s: parsing parameters: %w", path, err)
	}

	params := make(map[string]string, len(raw))
	for name, value := range raw {
		switch typed := value.(type) {
		case string:
			params[name] = typed
		case bool:
			params[name] = strconv.FormatBool(typed)
		case float64:
			params[name] = strconv.FormatFloat(typed, 'f', -1, 64)
		default:
			return nil, fmt.Errorf("%s: parameter %q must be a string, number or boolean", path, name)
		}
	}
	return params, nil
}

// MergeParams returns base overlaid with override. Neither input is
// modified.
func MergeParams(base, override map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(override))
	maps.Copy(merged, base)
	maps.Copy(merged, override)
	return merged
}

// ParameterDefinitions turns build parameters into job parameter
// definitions, sorted by name, using each value as the default.
func ParameterDefinitions(params map[string]string) []Parameter {
	definitions := make([]Parameter, 0, len(params))
	for _, name := range slices.Sorted(maps.Keys(params)) {
		definitions = append(definitions, Parameter{Name: name, Default: params[name]})
	}
	return definitions
}
