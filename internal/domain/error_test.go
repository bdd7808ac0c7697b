package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      &Error{Code: EINVALID, Message: "unknown axis"},
			expected: "unknown axis",
		},
		{
			name:     "with operation",
			err:      &Error{Code: EINVALID, Op: "variant.set_axis", Message: "unknown axis"},
			expected: "variant.set_axis: unknown axis",
		},
		{
			name: "with wrapped error",
			err: &Error{
				Code:    EUNAVAILABLE,
				Op:      "priceclient.bundle_price",
				Message: "price service unavailable",
				Err:     errors.New("connection refused"),
			},
			expected: "priceclient.bundle_price: price service unavailable: connection refused",
		},
		{
			name: "wrapped error without op",
			err: &Error{
				Code:    EINTERNAL,
				Message: "failed to load catalog",
				Err:     errors.New("disk full"),
			},
			expected: "failed to load catalog: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Unavailable(underlying, "priceclient.parametric_price", "price service unavailable")

	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find underlying error")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "domain error", err: &Error{Code: EINVALID, Message: "test"}, expected: EINVALID},
		{
			name:     "wrapped domain error",
			err:      fmt.Errorf("wrapped: %w", &Error{Code: ENOTFOUND, Message: "test"}),
			expected: ENOTFOUND,
		},
		{name: "validation error", err: NewValidationError("bundle.validate", "slot-1", "too many"), expected: EINVALID},
		{name: "non-domain error", err: errors.New("some error"), expected: EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.expected {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "user facing message", err: Invalid("cart.build", "quantity must be at least 1"), expected: "quantity must be at least 1"},
		{
			name:     "internal error hides details",
			err:      Internal(errors.New("pq: relation missing"), "catalog.get", "failed to load product"),
			expected: "An internal error occurred. Please try again later.",
		},
		{
			name:     "unknown error hides details",
			err:      errors.New("boom"),
			expected: "An internal error occurred. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.expected {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorOp(t *testing.T) {
	if got := ErrorOp(Errorf(ENOTFOUND, "catalog.get", "missing")); got != "catalog.get" {
		t.Errorf("ErrorOp() = %q, want %q", got, "catalog.get")
	}
	if got := ErrorOp(NewValidationError("bundle.validate", "slot", "bad")); got != "bundle.validate" {
		t.Errorf("ErrorOp() = %q, want %q", got, "bundle.validate")
	}
	if got := ErrorOp(errors.New("plain")); got != "" {
		t.Errorf("ErrorOp() = %q, want empty", got)
	}
}

func TestWrapError_Nil(t *testing.T) {
	if err := WrapError(nil, EINTERNAL, "op", "msg"); err != nil {
		t.Errorf("WrapError(nil) = %v, want nil", err)
	}
}

func TestValidationErrors(t *testing.T) {
	if err := ValidationErrors("bundle.validate", nil); err != nil {
		t.Errorf("ValidationErrors(nil) = %v, want nil", err)
	}

	fields := map[string]string{"slot-a": "too few", "slot-b": "too many"}
	err := ValidationErrors("bundle.validate", fields)
	fields["slot-c"] = "mutated after the fact"

	got := GetValidationFields(err)
	if len(got) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(got))
	}
	if !IsValidationError(err) {
		t.Error("expected IsValidationError to be true")
	}
	if err.Error() != "bundle.validate: validation failed for 2 fields" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestAddFieldError(t *testing.T) {
	err := AddFieldError(nil, "width", "must be at least 10")
	err = AddFieldError(err, "height", "must be at most 200")

	fields := GetValidationFields(err)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields["width"] != "must be at least 10" {
		t.Errorf("width = %q", fields["width"])
	}
}
