package formconfig

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{err: nil, want: KindNone},
		{err: &ValidationError{Fields: []FieldError{{Field: "title", Message: "title is required"}}}, want: KindValidation},
		{err: &UnknownEventTypeError{Type: "form_archived"}, want: KindUnknownEventType},
		{err: fmt.Errorf("apply: %w", FormNotFound(3)), want: KindNotFound},
		{err: errors.New("disk full"), want: KindStore},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	if got := FormNotFound(7).Error(); got != "Form not found with id 7" {
		t.Fatalf("FormNotFound() = %q", got)
	}
	if got := QuestionNotFound(2).Error(); got != "Question not found with id 2" {
		t.Fatalf("QuestionNotFound() = %q", got)
	}
	if got := EventConfigNotFound(9).Error(); got != "Event configuration not found with id 9" {
		t.Fatalf("EventConfigNotFound() = %q", got)
	}
	if got := (&UnknownEventTypeError{Type: "x"}).Error(); got != "Unknown event type: x" {
		t.Fatalf("UnknownEventTypeError = %q", got)
	}
}

func TestAsStoreError(t *testing.T) {
	raw := errors.New("database is locked")
	wrapped := AsStoreError(raw)
	if !errors.Is(wrapped, ErrStoreFailure) || !errors.Is(wrapped, raw) {
		t.Fatalf("AsStoreError() = %v", wrapped)
	}
	if AsStoreError(wrapped) != wrapped {
		t.Fatalf("AsStoreError() should not double wrap")
	}

	nf := FormNotFound(1)
	if AsStoreError(nf) != nf {
		t.Fatalf("AsStoreError() should keep taxonomy errors")
	}
	if AsStoreError(nil) != nil {
		t.Fatalf("AsStoreError(nil) should be nil")
	}
}
