package ports

import (
	"context"
	"errors"
	"time"
)

var (
	ErrFormNotFound     = errors.New("form not found")
	ErrQuestionNotFound = errors.New("question not found")
)

type Form struct {
	FormID              uint64
	Title               string
	Category            string
	Subcategory         *string
	CategoryMetadata    map[string]string
	SubcategoryMetadata map[string]string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Questions           []Question
}

type Question struct {
	QuestionID       uint64
	FormID           uint64
	Reference        string
	Content          string
	AnswerType       string
	Options          []string
	QuestionMetadata map[string]string
	Required         bool
	Order            int
	AIInstructions   *string
}

type FormReadRepository interface {
	GetForm(ctx context.Context, formID uint64) (Form, error)
	ListForms(ctx context.Context) ([]Form, error)
	GetQuestion(ctx context.Context, questionID uint64) (Question, error)
	ListQuestions(ctx context.Context, formID uint64) ([]Question, error)
}

type FormRepository interface {
	FormReadRepository
	// CreateForm inserts the form row only and returns it with its id.
	CreateForm(ctx context.Context, form Form) (Form, error)
	UpdateForm(ctx context.Context, form Form) error
	TouchForm(ctx context.Context, formID uint64, updatedAt time.Time) error
	// DeleteForm removes the form and its questions. It reports whether the
	// form existed.
	DeleteForm(ctx context.Context, formID uint64) (bool, error)
	AddQuestion(ctx context.Context, question Question) (Question, error)
	UpdateQuestion(ctx context.Context, question Question) error
	DeleteQuestion(ctx context.Context, questionID uint64) (bool, error)
}
