package domain

import (
	"errors"
	"testing"
)

func TestValidationError_UnwrapsToSentinel(t *testing.T) {
	t.Parallel()

	err := NewValidationError("machine", "unknown initials")
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected ValidationError to unwrap to ErrValidation")
	}
	if err.Error() == "" {
		t.Fatal("expected non-empty message")
	}
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := NewValidationErrors([]FieldError{
		{Field: "title", Message: "required"},
		{Field: "status", Message: "invalid"},
	})
	if len(err.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Errors))
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected ErrValidation")
	}
}
