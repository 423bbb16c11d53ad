package client

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// StatusError is returned for a non-2xx response when the client is not expecting errors.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	var message string
	if len(e.Body) > 0 {
		message = ": " + string(e.Body)
	}
	return fmt.Sprintf("unexpected response status %d from %s %s%s", e.StatusCode, e.Method, e.URL, message)
}

// FieldMismatch describes one expected field that the response did not match.
type FieldMismatch struct {
	Field    string
	Expected ldvalue.Value
	Actual   ldvalue.Value
	Missing  bool
}

func (m FieldMismatch) String() string {
	if m.Missing {
		return fmt.Sprintf("field %q: expected %s, but it was missing", m.Field, m.Expected.JSONString())
	}
	return fmt.Sprintf("field %q: expected %s, got %s", m.Field, m.Expected.JSONString(), m.Actual.JSONString())
}

// FieldMismatchError is returned in expect-error mode when the response body does not
// contain the expected fields. Mismatches are sorted by field name.
type FieldMismatchError struct {
	Mismatches []FieldMismatch
}

func (e *FieldMismatchError) Error() string {
	lines := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		lines = append(lines, m.String())
	}
	return "response did not match expected fields: " + strings.Join(lines, "; ")
}

func checkFields(body ldvalue.Value, expected map[string]ldvalue.Value) error {
	names := make([]string, 0, len(expected))
	for name := range expected {
		names = append(names, name)
	}
	sort.Strings(names)

	var mismatches []FieldMismatch
	for _, name := range names {
		want := expected[name]
		got, ok := lookupField(body, name)
		switch {
		case !ok:
			mismatches = append(mismatches, FieldMismatch{Field: name, Expected: want, Actual: ldvalue.Null(), Missing: true})
		case !got.Equal(want):
			mismatches = append(mismatches, FieldMismatch{Field: name, Expected: want, Actual: got})
		}
	}
	if len(mismatches) > 0 {
		return &FieldMismatchError{Mismatches: mismatches}
	}
	return nil
}
