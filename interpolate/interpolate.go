// Copyright 2026 by the Isaac Physics authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package interpolate

import (
	"fmt"
	"strconv"
)

// Variables returns a copy of the passed (nested) YAML data with all string
// values interpolated from vars. Mapping keys are left untouched.
func Variables(data map[string]any, vars map[string]string) (map[string]any, error) {
	result, err := walk(data, "", vars)
	if err != nil {
		return nil, err
	}
	return result.(map[string]any), nil
}

func walk(data any, at path, vars map[string]string) (any, error) {
	switch value := data.(type) {
	case string:
		text, err := Expand(value, vars)
		if err != nil {
			return nil, fmt.Errorf("error in '%s': %w", at, err)
		}
		return text, nil
	case map[string]any:
		result := make(map[string]any, len(value))
		for key, element := range value {
			interpolated, err := walk(element, at.key(key), vars)
			if err != nil {
				return nil, err
			}
			result[key] = interpolated
		}
		return result, nil
	case []any:
		result := make([]any, 0, len(value))
		for idx, element := range value {
			interpolated, err := walk(element, at.index(idx), vars)
			if err != nil {
				return nil, err
			}
			result = append(result, interpolated)
		}
		return result, nil
	}
	return data, nil
}

// path locates a value inside nested data, such as “github.repos[1]”.
type path string

func (p path) key(name string) path {
	if p == "" {
		return path(name)
	}
	return p + "." + path(name)
}

func (p path) index(idx int) path {
	return p + "[" + path(strconv.Itoa(idx)) + "]"
}
