package formconfig

import (
	"context"
	"errors"
	"log/slog"

	"formcfg/internal/bootstrap/logging"
	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/ports"
)

func (d *Dispatcher) applyQuestionAdded(ctx context.Context, event ports.Event) (applyResult, error) {
	formID, err := requireTarget(event, "form_id")
	if err != nil {
		return applyResult{}, err
	}

	payload, err := domain.DecodeQuestion(event.Data)
	if err != nil {
		return applyResult{}, err
	}
	payload = domain.NormalizeQuestion(payload)
	if err := domain.ValidateQuestion(payload, false); err != nil {
		return applyResult{}, err
	}

	if err := d.forms.TouchForm(ctx, formID, d.now()); err != nil {
		if errors.Is(err, ports.ErrFormNotFound) {
			return applyResult{}, domain.FormNotFound(formID)
		}
		return applyResult{}, err
	}

	created, err := d.forms.AddQuestion(ctx, questionFromPayload(formID, payload))
	if err != nil {
		return applyResult{}, err
	}
	return applyResult{entityID: created.QuestionID}, nil
}

func (d *Dispatcher) applyQuestionUpdated(ctx context.Context, event ports.Event) (applyResult, error) {
	payload, err := domain.DecodeQuestion(event.Data)
	if err != nil {
		return applyResult{}, err
	}
	payload = domain.NormalizeQuestion(payload)
	if err := domain.ValidateQuestion(payload, true); err != nil {
		return applyResult{}, err
	}

	questionID := *payload.ID
	current, found, err := d.ownedQuestion(ctx, event, questionID)
	if err != nil {
		return applyResult{}, err
	}
	if !found {
		return applyResult{}, domain.QuestionNotFound(questionID)
	}

	updated := questionFromPayload(current.FormID, payload)
	updated.QuestionID = current.QuestionID
	if err := d.forms.UpdateQuestion(ctx, updated); err != nil {
		if errors.Is(err, ports.ErrQuestionNotFound) {
			return applyResult{}, domain.QuestionNotFound(questionID)
		}
		return applyResult{}, err
	}
	if err := d.forms.TouchForm(ctx, current.FormID, d.now()); err != nil {
		return applyResult{}, err
	}
	return applyResult{entityID: questionID}, nil
}

func (d *Dispatcher) applyQuestionDeleted(ctx context.Context, event ports.Event) (applyResult, error) {
	payload, err := domain.DecodeQuestion(event.Data)
	if err != nil {
		return applyResult{}, err
	}
	if err := domain.ValidateQuestionDelete(payload); err != nil {
		return applyResult{}, err
	}

	questionID := *payload.ID
	current, found, err := d.ownedQuestion(ctx, event, questionID)
	if err != nil {
		return applyResult{}, err
	}
	if !found {
		logging.Debug(ctx, "question already absent, delete is a no-op", slog.Uint64("question_id", questionID))
		return applyResult{entityID: questionID}, nil
	}

	if _, err := d.forms.DeleteQuestion(ctx, questionID); err != nil {
		return applyResult{}, err
	}
	if err := d.forms.TouchForm(ctx, current.FormID, d.now()); err != nil && !errors.Is(err, ports.ErrFormNotFound) {
		return applyResult{}, err
	}
	return applyResult{entityID: questionID}, nil
}

// ownedQuestion loads a question by id. A question that belongs to a form
// other than the event's target is reported as not found.
func (d *Dispatcher) ownedQuestion(ctx context.Context, event ports.Event, questionID uint64) (ports.Question, bool, error) {
	q, err := d.forms.GetQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, ports.ErrQuestionNotFound) {
			return ports.Question{}, false, nil
		}
		return ports.Question{}, false, err
	}
	if formID, ok := event.TargetID(); ok && formID != q.FormID {
		return ports.Question{}, false, nil
	}
	return q, true, nil
}
