package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// JSON is the decoded body, or a null value if the body was empty or not valid JSON.
	JSON ldvalue.Value
}

func newResponse(resp *http.Response, body []byte) *Response {
	r := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		JSON:       ldvalue.Null(),
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && json.Valid(trimmed) {
		r.JSON = ldvalue.Parse(trimmed)
	}
	return r
}

// IsSuccess is true for 2xx statuses.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Field looks up a value in the JSON body. See lookupField for how name is resolved.
// The second result is false if there is no such field.
func (r *Response) Field(name string) (ldvalue.Value, bool) {
	return lookupField(r.JSON, name)
}

// DecodeJSON unmarshals the body into target.
func (r *Response) DecodeJSON(target interface{}) error {
	return json.Unmarshal(r.Body, target)
}

// lookupField finds name as a top-level key of an object value. If there is no such key
// and name contains dots, each dot-separated segment is treated as a key in a nested
// object.
func lookupField(value ldvalue.Value, name string) (ldvalue.Value, bool) {
	if v, ok := objectKey(value, name); ok {
		return v, true
	}
	if !strings.Contains(name, ".") {
		return ldvalue.Null(), false
	}
	current := value
	for _, segment := range strings.Split(name, ".") {
		next, ok := objectKey(current, segment)
		if !ok {
			return ldvalue.Null(), false
		}
		current = next
	}
	return current, true
}

func objectKey(value ldvalue.Value, key string) (ldvalue.Value, bool) {
	if value.Type() != ldvalue.ObjectType {
		return ldvalue.Null(), false
	}
	for _, k := range value.Keys() {
		if k == key {
			return value.GetByKey(key), true
		}
	}
	return ldvalue.Null(), false
}
