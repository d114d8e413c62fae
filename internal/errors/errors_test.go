package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad", cause), ErrorTypeValidation, http.StatusBadRequest},
		{"network", NewNetworkError("fetch", cause), ErrorTypeNetwork, http.StatusBadGateway},
		{"processing", NewProcessingError("decode", cause), ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{"timeout", NewTimeoutError("slow", cause), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"too large", NewTooLargeError("big", cause), ErrorTypeTooLarge, http.StatusRequestEntityTooLarge},
		{"internal", NewInternalError("oops", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", tt.err.Type, tt.wantType)
			}
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestWrapping(t *testing.T) {
	cause := stderrors.New("boom")
	err := fmt.Errorf("handler: %w", NewTimeoutError("analysis timed out", cause))

	if !IsType(err, ErrorTypeTimeout) {
		t.Error("IsType() = false for wrapped timeout error")
	}
	if IsType(err, ErrorTypeValidation) {
		t.Error("IsType() = true for wrong type")
	}
	if got := GetStatusCode(err); got != http.StatusGatewayTimeout {
		t.Errorf("GetStatusCode() = %d, want %d", got, http.StatusGatewayTimeout)
	}
	if !stderrors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if got := GetStatusCode(cause); got != http.StatusInternalServerError {
		t.Errorf("GetStatusCode(plain) = %d, want 500", got)
	}
}

func TestErrorString(t *testing.T) {
	if got := NewValidationError("bad input", nil).Error(); got != "validation: bad input" {
		t.Errorf("Error() = %q", got)
	}
	got := NewNetworkError("fetch failed", stderrors.New("refused")).Error()
	if got != "network: fetch failed (caused by: refused)" {
		t.Errorf("Error() = %q", got)
	}
}
