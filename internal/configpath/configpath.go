// Package configpath resolves hierarchical configuration keys such as
// "XperienceCommunityEssentials:AesSecureKey" against decoded YAML or JSON documents.
package configpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when no value exists at the requested path.
	ErrNotFound = errors.New("configuration key not found")

	// ErrNotString is returned when the value is a number, boolean or timestamp. Unquoted
	// YAML such as 0x1F or 1e3 decodes to a different value than its text.
	ErrNotString = errors.New("configuration value is not a string")
)

// Split breaks a key into its segments. Both ':' and '.' act as separators and empty
// segments are dropped.
func Split(key string) []string {
	return strings.FieldsFunc(key, func(r rune) bool {
		return r == ':' || r == '.'
	})
}

// Lookup walks doc following key and returns the string value found there. Secrets must be
// strings; quote them in YAML.
//
// A flat entry whose name equals the whole key wins over a nested walk, so documents that
// store "Section:Name" as a single key are supported as well.
func Lookup(doc map[string]any, key string) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if v, ok := doc[key]; ok {
		return scalar(key, v)
	}

	segments := Split(key)
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: empty key", ErrNotFound)
	}

	var current any = doc
	for _, segment := range segments {
		next, ok := child(current, segment)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		current = next
	}
	return scalar(key, current)
}

func child(node any, segment string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		if v, ok := n[segment]; ok {
			return v, true
		}
		// configuration keys are case-insensitive
		for k, v := range n {
			if strings.EqualFold(k, segment) {
				return v, true
			}
		}
	case map[any]any:
		for k, v := range n {
			if strings.EqualFold(fmt.Sprint(k), segment) {
				return v, true
			}
		}
	case []any:
		i, err := strconv.Atoi(segment)
		if err == nil && i >= 0 && i < len(n) {
			return n[i], true
		}
	}
	return nil, false
}

func scalar(key string, v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", fmt.Errorf("%w: %s is null", ErrNotFound, key)
	case string:
		return val, nil
	case map[string]any, map[any]any, []any:
		return "", fmt.Errorf("configuration key %s is not a scalar value", key)
	default:
		return "", fmt.Errorf("%w: %s holds a %T, quote the value", ErrNotString, key, val)
	}
}
