package formconfig

import (
	"context"
	"errors"
	"log/slog"

	"formcfg/internal/bootstrap/logging"
	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/ports"
)

func (d *Dispatcher) applyFormCreated(ctx context.Context, event ports.Event) (applyResult, error) {
	payload, err := domain.DecodeForm(event.Data)
	if err != nil {
		return applyResult{}, err
	}
	payload = domain.NormalizeForm(payload)
	if err := domain.ValidateForm(payload); err != nil {
		return applyResult{}, err
	}

	now := d.now()
	form, err := d.forms.CreateForm(ctx, ports.Form{
		Title:               payload.Title,
		Category:            payload.Category,
		Subcategory:         payload.Subcategory,
		CategoryMetadata:    payload.CategoryMetadata,
		SubcategoryMetadata: payload.SubcategoryMetadata,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	if err != nil {
		return applyResult{}, err
	}

	for _, q := range payload.Questions {
		if _, err := d.forms.AddQuestion(ctx, questionFromPayload(form.FormID, q)); err != nil {
			return applyResult{}, err
		}
	}
	return applyResult{createdTarget: form.FormID, entityID: form.FormID}, nil
}

func (d *Dispatcher) applyFormUpdated(ctx context.Context, event ports.Event) (applyResult, error) {
	formID, err := requireTarget(event, "form_id")
	if err != nil {
		return applyResult{}, err
	}

	current, err := d.forms.GetForm(ctx, formID)
	if err != nil {
		if errors.Is(err, ports.ErrFormNotFound) {
			return applyResult{}, domain.FormNotFound(formID)
		}
		return applyResult{}, err
	}

	payload, err := domain.DecodeForm(event.Data)
	if err != nil {
		return applyResult{}, err
	}
	payload = domain.NormalizeForm(payload)
	// Questions change through their own events.
	payload.Questions = nil
	if err := domain.ValidateForm(payload); err != nil {
		return applyResult{}, err
	}

	current.Title = payload.Title
	current.Category = payload.Category
	current.Subcategory = payload.Subcategory
	current.CategoryMetadata = payload.CategoryMetadata
	current.SubcategoryMetadata = payload.SubcategoryMetadata
	current.UpdatedAt = d.now()
	if err := d.forms.UpdateForm(ctx, current); err != nil {
		if errors.Is(err, ports.ErrFormNotFound) {
			return applyResult{}, domain.FormNotFound(formID)
		}
		return applyResult{}, err
	}
	return applyResult{entityID: formID}, nil
}

func (d *Dispatcher) applyFormDeleted(ctx context.Context, event ports.Event) (applyResult, error) {
	formID, err := requireTarget(event, "form_id")
	if err != nil {
		return applyResult{}, err
	}

	existed, err := d.forms.DeleteForm(ctx, formID)
	if err != nil {
		return applyResult{}, err
	}
	if !existed {
		logging.Debug(ctx, "form already absent, delete is a no-op", slog.Uint64("form_id", formID))
	}
	return applyResult{entityID: formID}, nil
}

func questionFromPayload(formID uint64, q domain.QuestionPayload) ports.Question {
	return ports.Question{
		FormID:           formID,
		Reference:        q.Reference,
		Content:          q.Content,
		AnswerType:       q.AnswerType,
		Options:          q.Options,
		QuestionMetadata: q.QuestionMetadata,
		Required:         q.Required,
		Order:            q.Order,
		AIInstructions:   q.AIInstructions,
	}
}
