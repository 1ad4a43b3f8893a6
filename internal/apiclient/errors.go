package apiclient

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ResponseError is returned when the backend answered with status >= 400.
type ResponseError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// HasBody reports whether the backend sent any body at all.
func (e *ResponseError) HasBody() bool {
	return len(strings.TrimSpace(string(e.Body))) > 0
}

// Code returns the `code` field of a JSON object body.
func (e *ResponseError) Code() string {
	if !e.isObject() {
		return ""
	}
	return gjson.GetBytes(e.Body, "code").String()
}

// Message returns the `message` field, falling back to `error`.
func (e *ResponseError) Message() string {
	if !e.isObject() {
		return ""
	}
	if m := gjson.GetBytes(e.Body, "message"); m.Type == gjson.String && m.Str != "" {
		return m.Str
	}
	if m := gjson.GetBytes(e.Body, "error"); m.Type == gjson.String {
		return m.Str
	}
	return ""
}

// DetailMessages returns details[].message of a validation error body.
func (e *ResponseError) DetailMessages() []string {
	if !e.isObject() {
		return nil
	}
	res := gjson.GetBytes(e.Body, "details.#.message").Array()
	out := make([]string, 0, len(res))
	for _, r := range res {
		if s := r.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// BareString returns the body when it is a JSON string or plain text rather
// than a structured object, as rate limiters tend to send.
func (e *ResponseError) BareString() (string, bool) {
	if !e.HasBody() {
		return "", false
	}
	if !gjson.ValidBytes(e.Body) {
		return strings.TrimSpace(string(e.Body)), true
	}
	if r := gjson.ParseBytes(e.Body); r.Type == gjson.String {
		return r.Str, r.Str != ""
	}
	return "", false
}

// Structured reports whether the body is a JSON object.
func (e *ResponseError) Structured() bool { return e.isObject() }

func (e *ResponseError) isObject() bool {
	return gjson.ValidBytes(e.Body) && gjson.ParseBytes(e.Body).IsObject()
}

// NoResponseError is returned when the request was sent but no response
// arrived (connection refused, timeout, cancelled context).
type NoResponseError struct {
	Method string
	Path   string
	Err    error
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("%s %s: no response: %v", e.Method, e.Path, e.Err)
}

func (e *NoResponseError) Unwrap() error { return e.Err }

// RequestError is returned when the request could not be built.
type RequestError struct {
	Method string
	Path   string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: build request: %v", e.Method, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
