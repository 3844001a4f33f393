package formconfig

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLen        = 200
	MaxCategoryLen     = 100
	MaxSubcategoryLen  = 100
	MaxReferenceLen    = 50
	MaxAnswerTypeLen   = 20
	MaxMetadataEntries = 20
	MaxEventDates      = 20
	MinListOptions     = 2

	AnswerTypeList = "list"
)

// NormalizeForm trims text fields and drops an empty subcategory.
func NormalizeForm(p FormPayload) FormPayload {
	p.Title = strings.TrimSpace(p.Title)
	p.Category = strings.TrimSpace(p.Category)
	p.Subcategory = trimOptional(p.Subcategory)
	for i := range p.Questions {
		p.Questions[i] = NormalizeQuestion(p.Questions[i])
	}
	return p
}

func NormalizeQuestion(p QuestionPayload) QuestionPayload {
	p.Reference = strings.TrimSpace(p.Reference)
	p.Content = strings.TrimSpace(p.Content)
	p.AnswerType = strings.TrimSpace(p.AnswerType)
	p.AIInstructions = trimOptional(p.AIInstructions)
	return p
}

func NormalizeEventConfig(p EventConfigPayload) EventConfigPayload {
	p.EventReference = strings.TrimSpace(p.EventReference)
	p.EventType = strings.TrimSpace(p.EventType)
	p.EventDescription = trimOptional(p.EventDescription)
	p.ValidityStartDate = trimOptional(p.ValidityStartDate)
	p.ValidityEndDate = trimOptional(p.ValidityEndDate)
	return p
}

// ValidateForm checks a create or update payload, embedded questions included.
func ValidateForm(p FormPayload) error {
	var fields []FieldError
	fields = append(fields, requiredText("title", p.Title, MaxTitleLen)...)
	fields = append(fields, requiredText("category", p.Category, MaxCategoryLen)...)
	if p.Subcategory != nil && utf8.RuneCountInString(*p.Subcategory) > MaxSubcategoryLen {
		fields = append(fields, tooLong("subcategory", MaxSubcategoryLen))
	}
	fields = append(fields, metadataLimit("category_metadata", p.CategoryMetadata)...)
	fields = append(fields, metadataLimit("subcategory_metadata", p.SubcategoryMetadata)...)

	for i, q := range p.Questions {
		fields = append(fields, questionFields(fmt.Sprintf("questions[%d].", i), fmt.Sprintf("Question %d: ", i+1), q)...)
	}
	return newValidationError(fields...)
}

// ValidateQuestion checks a question_added or question_updated payload.
// requireID is set for updates, which address the question by id.
func ValidateQuestion(p QuestionPayload, requireID bool) error {
	var fields []FieldError
	if requireID {
		fields = append(fields, questionIDField(p)...)
	}
	fields = append(fields, questionFields("", "", p)...)
	return newValidationError(fields...)
}

// ValidateQuestionDelete only needs the question id.
func ValidateQuestionDelete(p QuestionPayload) error {
	return newValidationError(questionIDField(p)...)
}

func ValidateEventConfig(p EventConfigPayload) error {
	var fields []FieldError
	if p.EventReference == "" {
		fields = append(fields, FieldError{Field: "event_reference", Message: "event_reference is required"})
	}
	if p.EventType == "" {
		fields = append(fields, FieldError{Field: "event_type", Message: "event_type is required"})
	}
	fields = append(fields, metadataLimit("event_metadata", p.EventMetadata)...)
	fields = append(fields, metadataLimit("event_type_metadata", p.EventTypeMetadata)...)

	dates := p.Dates()
	if len(dates) > MaxEventDates {
		fields = append(fields, FieldError{
			Field:   "event_dates",
			Message: fmt.Sprintf("event_dates cannot have more than %d items", MaxEventDates),
		})
	}
	for i, d := range dates {
		if _, err := ParseTimestamp(d); err != nil {
			fields = append(fields, FieldError{
				Field:   fmt.Sprintf("event_dates[%d]", i),
				Message: fmt.Sprintf("event_dates[%d] is not an ISO date: %q", i, d),
			})
		}
	}

	start, startErr := parseOptionalTimestamp(p.ValidityStartDate)
	if startErr != nil {
		fields = append(fields, FieldError{Field: "validity_start_date", Message: "validity_start_date is not an ISO datetime"})
	}
	end, endErr := parseOptionalTimestamp(p.ValidityEndDate)
	if endErr != nil {
		fields = append(fields, FieldError{Field: "validity_end_date", Message: "validity_end_date is not an ISO datetime"})
	}
	if start != nil && end != nil && start.After(*end) {
		fields = append(fields, FieldError{Field: "validity_end_date", Message: "validity_start_date must not be after validity_end_date"})
	}
	return newValidationError(fields...)
}

func questionFields(fieldPrefix, msgPrefix string, q QuestionPayload) []FieldError {
	var fields []FieldError
	add := func(field, msg string) {
		fields = append(fields, FieldError{Field: fieldPrefix + field, Message: msgPrefix + msg})
	}

	switch {
	case q.Reference == "":
		add("reference", "reference is required")
	case utf8.RuneCountInString(q.Reference) > MaxReferenceLen:
		add("reference", fmt.Sprintf("reference must be at most %d characters", MaxReferenceLen))
	}
	if q.Content == "" {
		add("content", "content is required")
	}
	switch {
	case q.AnswerType == "":
		add("answer_type", "answer_type is required")
	case utf8.RuneCountInString(q.AnswerType) > MaxAnswerTypeLen:
		add("answer_type", fmt.Sprintf("answer_type must be at most %d characters", MaxAnswerTypeLen))
	case strings.EqualFold(q.AnswerType, AnswerTypeList) && countNonBlank(q.Options) < MinListOptions:
		add("options", fmt.Sprintf("list questions need at least %d options", MinListOptions))
	}
	if len(q.QuestionMetadata) > MaxMetadataEntries {
		add("question_metadata", fmt.Sprintf("question_metadata cannot have more than %d items", MaxMetadataEntries))
	}
	return fields
}

func questionIDField(p QuestionPayload) []FieldError {
	if p.ID == nil || *p.ID == 0 {
		return []FieldError{{Field: "id", Message: "id is required"}}
	}
	return nil
}

func requiredText(field, value string, max int) []FieldError {
	if value == "" {
		return []FieldError{{Field: field, Message: field + " is required"}}
	}
	if utf8.RuneCountInString(value) > max {
		return []FieldError{tooLong(field, max)}
	}
	return nil
}

func tooLong(field string, max int) FieldError {
	return FieldError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, max)}
}

func metadataLimit(field string, m map[string]string) []FieldError {
	if len(m) <= MaxMetadataEntries {
		return nil
	}
	return []FieldError{{
		Field:   field,
		Message: fmt.Sprintf("%s cannot have more than %d items", field, MaxMetadataEntries),
	}}
}

func countNonBlank(values []string) int {
	n := 0
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
