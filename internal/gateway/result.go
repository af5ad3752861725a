package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tells which of the three result shapes a Result holds.
type Kind int

const (
	// KindSuccess is a JSON object whose "result" is "success".
	KindSuccess Kind = iota + 1
	// KindLogicalFailure is any other well-formed JSON object.
	KindLogicalFailure
	// KindTransportError is opaque text: an HTTP error body, an undecodable
	// body or a network error message.
	KindTransportError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindLogicalFailure:
		return "logical_failure"
	case KindTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

const (
	// StatusQueued is the status_result of an accepted sendmessage call.
	StatusQueued = "message_queued"
	// StatusConsulted is the status_result of a successful consultmessage call.
	StatusConsulted = "consulted_successfully"
)

// Result is the outcome of one gateway call.
// The zero value has no kind and means no call was made.
type Result struct {
	kind       Kind
	fields     map[string]any
	text       string
	httpStatus int
}

func newStructured(fields map[string]any, status int) Result {
	kind := KindLogicalFailure
	if s, _ := fields["result"].(string); s == "success" {
		kind = KindSuccess
	}
	return Result{kind: kind, fields: fields, httpStatus: status}
}

func newTransportError(text string, status int) Result {
	return Result{kind: KindTransportError, text: text, httpStatus: status}
}

func (r Result) Kind() Kind { return r.kind }

// HTTPStatus is the response status, or 0 when no response was received.
func (r Result) HTTPStatus() int { return r.httpStatus }

// Fields returns the decoded object for structured results and nil otherwise.
func (r Result) Fields() map[string]any {
	if r.kind == KindTransportError {
		return nil
	}
	return r.fields
}

// Field returns a structured field rendered as text, or "" when absent.
func (r Result) Field(key string) string {
	value, ok := r.Fields()[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// StatusResult is the operation status discriminator of a structured result.
func (r Result) StatusResult() string { return r.Field("status_result") }

// MessageID is the gateway's id for a queued message.
func (r Result) MessageID() string { return r.Field("messageid") }

// Queued reports whether a sendmessage call was accepted.
func (r Result) Queued() bool {
	return r.kind == KindSuccess && r.StatusResult() == StatusQueued
}

// Raw renders the result for audit lines: compact JSON for structured
// results and the verbatim text otherwise.
func (r Result) Raw() string {
	if r.kind == KindTransportError {
		return r.text
	}
	if r.fields == nil {
		return ""
	}
	data, err := json.Marshal(r.fields)
	if err != nil {
		return fmt.Sprint(r.fields)
	}
	return string(data)
}

// decodeBody turns a 2xx body into a Result.
func decodeBody(body []byte, status int) Result {
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return newTransportError(string(body), status)
	}
	return newStructured(fields, status)
}
