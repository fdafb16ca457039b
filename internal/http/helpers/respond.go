// Package helpers carries the small pieces every handler needs:
// response envelopes, error translation and cookie construction.
package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/atrium-pm/atrium/internal/domain/repository"
)

// envelope is the uniform response body: {"success":true,"data":...}
// on the happy path, {"success":false,"error":...,"details":...} on
// failure.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// HTTPError is an error with a wire representation.
type HTTPError struct {
	Code    string `json:"-"`
	Message string `json:"-"`
	Detail  string `json:"-"`
	Status  int    `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// WithDetail returns a copy carrying extra context for the client.
func (e *HTTPError) WithDetail(detail string) *HTTPError {
	return &HTTPError{Code: e.Code, Message: e.Message, Detail: detail, Status: e.Status}
}

var (
	ErrInvalidJSON      = &HTTPError{Code: "invalid_json", Message: "Invalid JSON body", Status: http.StatusBadRequest}
	ErrBadRequest       = &HTTPError{Code: "bad_request", Message: "Bad request", Status: http.StatusBadRequest}
	ErrUnauthorized     = &HTTPError{Code: "unauthorized", Message: "Unauthorized", Status: http.StatusUnauthorized}
	ErrForbidden        = &HTTPError{Code: "forbidden", Message: "Forbidden", Status: http.StatusForbidden}
	ErrNotFound         = &HTTPError{Code: "not_found", Message: "Not found", Status: http.StatusNotFound}
	ErrConflict         = &HTTPError{Code: "conflict", Message: "Conflict", Status: http.StatusConflict}
	ErrPayloadTooLarge  = &HTTPError{Code: "payload_too_large", Message: "Payload too large", Status: http.StatusRequestEntityTooLarge}
	ErrTooManyRequests  = &HTTPError{Code: "rate_limited", Message: "Too many requests", Status: http.StatusTooManyRequests}
	ErrTokenExpired     = &HTTPError{Code: "token_expired", Message: "Token expired", Status: http.StatusUnauthorized}
	ErrInternal         = &HTTPError{Code: "internal_error", Message: "Internal server error", Status: http.StatusInternalServerError}
	ErrUnsupportedMedia = &HTTPError{Code: "unsupported_media_type", Message: "Unsupported media type", Status: http.StatusUnsupportedMediaType}
)

// WriteData writes a success envelope with the given status.
func WriteData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// WriteError translates err to its wire shape. Domain sentinels map to
// their HTTP status; anything unrecognized becomes a 500 without
// leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(he.Status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: he.Code, Details: errDetails(he)})
}

func errDetails(he *HTTPError) string {
	if he.Detail != "" {
		return he.Message + ": " + he.Detail
	}
	return he.Message
}

func toHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	case errors.Is(err, repository.ErrInvalidInput):
		return ErrBadRequest
	case errors.Is(err, repository.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, repository.ErrUnauthorized):
		return ErrUnauthorized
	case errors.Is(err, repository.ErrForbidden):
		return ErrForbidden
	}
	return ErrInternal
}

// DecodeJSON reads the request body into dst, rejecting unknown fields
// and trailing garbage.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.As(err, new(*http.MaxBytesError)) {
			return ErrPayloadTooLarge
		}
		return ErrInvalidJSON.WithDetail(err.Error())
	}
	if dec.More() {
		return ErrInvalidJSON.WithDetail("trailing data after JSON body")
	}
	return nil
}

// Drain discards any unread body so the connection can be reused.
func Drain(r *http.Request) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()
}
