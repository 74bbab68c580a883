// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for decoding and validating request data:
// JSON bodies, query parameters and input sanitization.

package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spendwise/internal/core"

	"github.com/goccy/go-json"
)

const (
	maxBodyBytes = 1 << 20

	DefaultDigestLimit = 5
	MaxDigestLimit     = 100
)

var (
	ErrEmptyBody   = errors.New("request body is empty")
	ErrInvalidJSON = errors.New("invalid JSON body")
)

// DecodeJSON reads one JSON document from r into v. Oversized bodies and
// trailing data are reported as ErrInvalidJSON.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after document", ErrInvalidJSON)
	}
	return nil
}

// ParseRange reads the "range" query value. Unknown or absent values give
// the zero period, which storage treats as unbounded.
func ParseRange(query url.Values, now time.Time) (core.Period, string) {
	name := strings.ToLower(strings.TrimSpace(query.Get("range")))
	if p, ok := core.RangeFor(name, now); ok {
		return p, name
	}
	return core.Period{}, "all"
}

// ParseLimit returns the "limit" query value clamped to [1, MaxDigestLimit],
// or DefaultDigestLimit when absent or not a number.
func ParseLimit(query url.Values) int {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return DefaultDigestLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return DefaultDigestLimit
	}
	if n < 1 {
		return 1
	}
	if n > MaxDigestLimit {
		return MaxDigestLimit
	}
	return n
}

// ParseOptionalDate parses s with core.ParseDateTime. Empty input returns
// the zero time and no error.
func ParseOptionalDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return core.ParseDateTime(s)
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
