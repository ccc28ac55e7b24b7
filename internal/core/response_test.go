package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"climagrid/internal/types"
)

func decodeErrorResponse(t *testing.T, body []byte) APIErrorResponse {
	t.Helper()
	var resp APIErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestJSON_WritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	JSON(rec, req, http.StatusOK, APIResponse{Data: map[string]string{"status": "ok"}})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestError_AppErrorMapsStatusAndCode(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(types.WithRequestID(req.Context(), "req-123"))

	Error(rec, req, types.NewAppError(types.ErrCodeNoDatapoints, "no usable datapoints found for the requested window", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	resp := decodeErrorResponse(t, rec.Body.Bytes())
	if resp.Error.Code != string(types.ErrCodeNoDatapoints) {
		t.Errorf("code = %q", resp.Error.Code)
	}
	if resp.Error.RequestID != "req-123" {
		t.Errorf("request_id = %q, want req-123", resp.Error.RequestID)
	}
}

func TestError_WrappedAppErrorIsUnwrapped(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	inner := types.NewAppError(types.ErrCodeUpstreamProvider, "forecast provider unavailable", nil)
	Error(rec, req, &wrappingError{inner})

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

type wrappingError struct{ err error }

func (w *wrappingError) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrappingError) Unwrap() error { return w.err }

func TestError_GenericErrorIs500WithoutLeaking(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(rec, req, errors.New("dial tcp 10.0.0.1:5432: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	resp := decodeErrorResponse(t, rec.Body.Bytes())
	if resp.Error.Code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("code = %q", resp.Error.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("internal error details leaked to client")
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"x"}`, false},
		{"unknown field", `{"name":"x","other":1}`, true},
		{"empty body", ``, true},
		{"malformed", `{"name":`, true},
		{"two values", `{"name":"x"}{"name":"y"}`, true},
		{"wrong type", `{"name":42}`, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))

			var dst payload
			err := DecodeJSON(rec, req, &dst)
			if tc.wantErr {
				var appErr *types.AppError
				if !errors.As(err, &appErr) {
					t.Fatalf("expected *types.AppError, got %T: %v", err, err)
				}
				if appErr.Code != types.ErrCodeValidationInvalidBody {
					t.Errorf("code = %s, want %s", appErr.Code, types.ErrCodeValidationInvalidBody)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dst.Name != "x" {
				t.Errorf("name = %q, want x", dst.Name)
			}
		})
	}
}

func TestValidateStruct_FieldDetails(t *testing.T) {
	type input struct {
		Metric string   `validate:"required"`
		Value  *float64 `validate:"required"`
	}

	v := NewValidator(nil)
	err := v.ValidateStruct(&input{})

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeValidationInvalidBody {
		t.Errorf("code = %s", appErr.Code)
	}
	if _, ok := appErr.Details["Metric"]; !ok {
		t.Errorf("expected Metric in details, got %v", appErr.Details)
	}
	if _, ok := appErr.Details["Value"]; !ok {
		t.Errorf("expected Value in details, got %v", appErr.Details)
	}
}
