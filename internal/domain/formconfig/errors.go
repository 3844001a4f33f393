package formconfig

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation               = errors.New("validation failure")
	ErrUnknownEventType         = errors.New("unknown event type")
	ErrReferencedEntityNotFound = errors.New("referenced entity not found")
	ErrStoreFailure             = errors.New("store failure")
)

// Kind is the outcome class reported to callers next to the message.
type Kind string

const (
	KindNone             Kind = ""
	KindValidation       Kind = "validation_failure"
	KindUnknownEventType Kind = "unknown_event_type"
	KindNotFound         Kind = "referenced_entity_not_found"
	KindStore            Kind = "store_failure"
)

// KindOf classifies err. Errors outside the taxonomy count as store failures.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnknownEventType):
		return KindUnknownEventType
	case errors.Is(err, ErrReferencedEntityNotFound):
		return KindNotFound
	default:
		return KindStore
	}
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// FieldMap groups messages by field for JSON responses.
func (e *ValidationError) FieldMap() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, exists := out[f.Field]; !exists {
			out[f.Field] = f.Message
		}
	}
	return out
}

func newValidationError(fields ...FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// NotFoundError is raised when an update names a missing form, question or
// event configuration.
type NotFoundError struct {
	Entity string
	ID     uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id %d", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrReferencedEntityNotFound }

func FormNotFound(id uint64) error {
	return &NotFoundError{Entity: "Form", ID: id}
}

func QuestionNotFound(id uint64) error {
	return &NotFoundError{Entity: "Question", ID: id}
}

func EventConfigNotFound(id uint64) error {
	return &NotFoundError{Entity: "Event configuration", ID: id}
}

type UnknownEventTypeError struct {
	Type string
}

func (e *UnknownEventTypeError) Error() string {
	return "Unknown event type: " + e.Type
}

func (e *UnknownEventTypeError) Is(target error) bool { return target == ErrUnknownEventType }

// StoreError wraps a persistence failure so callers never see the raw driver
// error as the outcome class.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return "store failure: " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreFailure }

// AsStoreError wraps err unless it already belongs to the taxonomy.
func AsStoreError(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindStore || errors.Is(err, ErrStoreFailure) {
		return err
	}
	return &StoreError{Err: err}
}
