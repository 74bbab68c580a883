package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"spendwise/internal/core"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "yes").
		Body(map[string]int{"n": 1}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", rr.Header().Get("Content-Type"))
	}
	if rr.Header().Get("X-Custom") != "yes" {
		t.Error("custom header not set")
	}
	if rr.Body.String() != "{\"n\":1}\n" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	for name, b := range map[string]*JSONResponseBuilder{
		"no content":       NoContent(),
		"204 ignores body": NewJSONResponse().Status(http.StatusNoContent).Body("x"),
		"status only":      NewJSONResponse().Status(http.StatusAccepted),
	} {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			b.Write(rr)
			if rr.Body.Len() != 0 {
				t.Errorf("expected empty body, got %q", rr.Body.String())
			}
		})
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	OK(map[string]any{"bad": make(chan int)}).Write(rr)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		builder    *JSONResponseBuilder
		wantStatus int
		wantError  string
	}{
		{"bad request", BadRequestError("Invalid request body"), http.StatusBadRequest, "Invalid request body"},
		{"unauthorized", UnauthorizedError(), http.StatusUnauthorized, "Unauthorized"},
		{"forbidden", ForbiddenError("Only available in development"), http.StatusForbidden, "Only available in development"},
		{"not found", NotFoundError("Expense not found"), http.StatusNotFound, "Expense not found"},
		{"internal", InternalServerError(), http.StatusInternalServerError, "Internal server error"},
		{"custom", ErrorResponse(http.StatusServiceUnavailable, "Scheduler not available"), http.StatusServiceUnavailable, "Scheduler not available"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.builder.Write(rr)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
		})
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	rr := httptest.NewRecorder()
	MethodNotAllowedError("GET, POST").Write(rr)
	if rr.Code != http.StatusMethodNotAllowed || rr.Header().Get("Allow") != "GET, POST" {
		t.Fatalf("status %d, Allow %q", rr.Code, rr.Header().Get("Allow"))
	}

	rr = httptest.NewRecorder()
	MethodNotAllowedError("").Write(rr)
	if rr.Header().Get("Allow") != "" {
		t.Error("Allow header should be omitted")
	}
}

func TestMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	Message("Expense deleted successfully").Write(rr)
	if rr.Body.String() != "{\"message\":\"Expense deleted successfully\"}\n" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestFromError(t *testing.T) {
	ve := &core.ValidationError{Fields: []core.FieldError{{Field: "amount", Message: "Amount must be at least 0.01"}}}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantFields int
	}{
		{"validation", ve, http.StatusBadRequest, "Validation error", 1},
		{"wrapped validation", fmt.Errorf("create: %w", ve), http.StatusBadRequest, "Validation error", 1},
		{"not found", fmt.Errorf("lookup: %w", core.ErrNotFound), http.StatusNotFound, "Expense not found", 0},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError, "Internal server error", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
			rr := httptest.NewRecorder()
			FromError(req, tt.err, "Expense not found").Write(rr)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.wantError || len(body.Details) != tt.wantFields {
				t.Errorf("body = %+v", body)
			}
			if tt.wantStatus == http.StatusInternalServerError && rr.Body.String() == "" {
				t.Error("500 should still carry a body")
			}
		})
	}
}
