package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/meshauth/internal/model"
)

func TestWriteErrorResponse_DomainErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		apiErr    *model.APIError
		wantCode  string
		wantCateg string
	}{
		{"invalid input", http.StatusBadRequest, model.NewInvalidInputError("email is required"), model.ErrCodeInvalidInput, "validation"},
		{"invalid credentials", http.StatusUnauthorized, model.NewInvalidCredentialsError(), model.ErrCodeInvalidCredentials, "auth"},
		{"account exists", http.StatusConflict, model.NewAccountExistsError(), model.ErrCodeAccountExists, "auth"},
		{"unsupported media", http.StatusUnsupportedMediaType, model.NewUnsupportedMediaTypeError(), model.ErrCodeUnsupportedMedia, "validation"},
		{"storage unavailable", http.StatusServiceUnavailable, model.NewStorageUnavailableError(), model.ErrCodeStorageUnavailable, "system"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteErrorResponse(w, tt.status, tt.apiErr)

			resp := w.Result()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var raw map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			for _, field := range []string{"code", "message", "category", "action"} {
				if raw[field] == "" {
					t.Errorf("field %q is missing or empty", field)
				}
			}
			if raw["code"] != tt.wantCode {
				t.Errorf("code = %q, want %q", raw["code"], tt.wantCode)
			}
			if raw["category"] != tt.wantCateg {
				t.Errorf("category = %q, want %q", raw["category"], tt.wantCateg)
			}
			if raw["message"] != tt.apiErr.Message {
				t.Errorf("message = %q, want %q", raw["message"], tt.apiErr.Message)
			}
		})
	}
}

// TestWriteInternalServerError_IsGeneric は内部エラーの応答に詳細が含まれないことを検証する。
func TestWriteInternalServerError_IsGeneric(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalServerError(w)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	want := ErrorResponseBody{
		Code:     model.ErrCodeInternal,
		Message:  "An internal error occurred",
		Category: "system",
		Action:   "Please try again later.",
	}
	if body != want {
		t.Errorf("body = %+v, want %+v", body, want)
	}
}
