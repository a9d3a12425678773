package config

import (
	"encoding/json"
	"fmt"
)

// FlexibleStringSlice is a []string that also accepts a bare JSON string and
// JSON numbers, so "prefix" can be "/" or ["/", "!"] and id lists can contain
// both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	// Try a single string first
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = []string{s}
		return nil
	}

	// Try []string
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	// Try []interface{} to handle mixed types
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// Contains reports whether the slice holds the given value.
func (f FlexibleStringSlice) Contains(v string) bool {
	for _, item := range f {
		if item == v {
			return true
		}
	}
	return false
}
