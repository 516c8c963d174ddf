// Package errors derives metric-friendly labels from Go error values.
package errors

import (
	"errors"
	"reflect"
	"strings"
)

// Classify returns a stable, tag-safe label for an error, derived from the
// innermost wrapped error's concrete type. Returns "" for nil errors.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	// Walk to the root cause so wrapping depth doesn't change the label.
	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(err) {
		err = inner
	}

	return typeLabel(err)
}

func typeLabel(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	label := strings.ToLower(t.String())
	label = strings.ReplaceAll(label, "*", "")
	label = strings.ReplaceAll(label, ".", "_")
	if label == "" {
		return "unknown"
	}
	return label
}
