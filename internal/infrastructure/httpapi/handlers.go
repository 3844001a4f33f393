package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"formcfg/internal/bootstrap/logging"
	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/errs"
	"formcfg/internal/ports"
	"formcfg/internal/usecase/formconfig"
)

type errorBody struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Kind    domain.Kind       `json:"kind,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (h *handler) createForm(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	payload, err := domain.DecodeForm(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeMutation(w, r, "create form")(h.svc.CreateForm(r.Context(), payload))
}

func (h *handler) updateForm(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "formID")
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	payload, err := domain.DecodeForm(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeMutation(w, r, "update form")(h.svc.UpdateForm(r.Context(), formID, payload))
}

func (h *handler) deleteForm(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "formID")
	if !ok {
		return
	}
	writeMutation(w, r, "delete form")(h.svc.DeleteForm(r.Context(), formID))
}

func (h *handler) submitForm(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "formID")
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var input struct {
		Answers map[string]string `json:"answers"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		writeError(w, &domain.ValidationError{Fields: []domain.FieldError{{
			Field:   "answers",
			Message: "answers must be an object of strings",
		}}})
		return
	}
	writeMutation(w, r, "submit form")(h.svc.SubmitForm(r.Context(), formID, input.Answers))
}

func (h *handler) getForm(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "formID")
	if !ok {
		return
	}

	detail, err := h.svc.GetForm(r.Context(), formID)
	load := formconfig.FormLoadInput{
		FormID:    formID,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		Success:   err == nil,
	}
	if err != nil {
		load.ErrorMessage = err.Error()
	}
	if recordErr := h.svc.RecordFormLoad(r.Context(), load); recordErr != nil {
		logging.Warn(r.Context(), "record form load failed", slog.Uint64("form_id", formID), slog.Any("err", errs.Loggable(recordErr)))
	}

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formconfig.NewFormDetailView(detail))
}

func (h *handler) listForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.svc.ListForms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formconfig.NewFormViews(forms))
}

func (h *handler) listFormEvents(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "formID")
	if !ok {
		return
	}
	events, err := h.svc.ListEventsForForm(r.Context(), formID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formconfig.NewEventViews(events))
}

func (h *handler) addQuestion(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "formID")
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	payload, err := domain.DecodeQuestion(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeMutation(w, r, "add question")(h.svc.AddQuestion(r.Context(), formID, payload))
}

func (h *handler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "formID")
	if !ok {
		return
	}
	questionID, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	payload, err := domain.DecodeQuestion(body)
	if err != nil {
		writeError(w, err)
		return
	}
	payload.ID = &questionID
	writeMutation(w, r, "update question")(h.svc.UpdateQuestion(r.Context(), formID, payload))
}

func (h *handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "formID")
	if !ok {
		return
	}
	questionID, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}
	writeMutation(w, r, "delete question")(h.svc.DeleteQuestion(r.Context(), formID, questionID))
}

func (h *handler) createEventConfig(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	payload, err := domain.DecodeEventConfig(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeMutation(w, r, "create event configuration")(h.svc.CreateEventConfig(r.Context(), payload))
}

func (h *handler) updateEventConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "eventConfigID")
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	payload, err := domain.DecodeEventConfig(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeMutation(w, r, "update event configuration")(h.svc.UpdateEventConfig(r.Context(), id, payload))
}

func (h *handler) deleteEventConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "eventConfigID")
	if !ok {
		return
	}
	writeMutation(w, r, "delete event configuration")(h.svc.DeleteEventConfig(r.Context(), id))
}

func (h *handler) getEventConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "eventConfigID")
	if !ok {
		return
	}
	cfg, err := h.svc.GetEventConfig(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formconfig.NewEventConfigView(cfg))
}

func (h *handler) listEventConfigs(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListEventConfigs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formconfig.NewEventConfigViews(items))
}

func (h *handler) listEventConfigEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "eventConfigID")
	if !ok {
		return
	}
	events, err := h.svc.ListEventsForEventConfig(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formconfig.NewEventViews(events))
}

// listEvents serves the recent event log, or only unprocessed events when
// status=pending.
func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	list := h.svc.ListRecentEvents
	if r.URL.Query().Get("status") == "pending" {
		list = h.svc.ListPendingEvents
	}
	events, err := list(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formconfig.NewEventViews(events))
}

func (h *handler) getEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formconfig.NewEventView(event))
}

func (h *handler) redeliver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	writeMutation(w, r, "redeliver event")(h.svc.Redeliver(r.Context(), id))
}

func (h *handler) replayPending(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	report, err := h.svc.ReplayPending(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeMutation(w http.ResponseWriter, r *http.Request, action string) func(formconfig.MutationResult, error) {
	return func(result formconfig.MutationResult, err error) {
		if err != nil {
			if domain.KindOf(err) == domain.KindStore && !isEventNotFound(err) {
				logging.Error(r.Context(), action+" failed", slog.Any("err", errs.Loggable(err)))
			}
			writeJSON(w, statusFor(err), result)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Success: false, Error: err.Error(), Kind: domain.KindOf(err)}
	if vErr, ok := asValidation(err); ok {
		body.Errors = vErr.FieldMap()
	}
	writeJSON(w, statusFor(err), body)
}

func asValidation(err error) (*domain.ValidationError, bool) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

func statusFor(err error) int {
	if isEventNotFound(err) {
		return http.StatusNotFound
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnknownEventType:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func isEventNotFound(err error) bool {
	return errors.Is(err, ports.ErrEventNotFound)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, &domain.ValidationError{Fields: []domain.FieldError{{
			Field:   "body",
			Message: fmt.Sprintf("request body unreadable: %v", err),
		}}})
		return nil, false
	}
	return body, true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uint64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(w, &domain.ValidationError{Fields: []domain.FieldError{{
			Field:   param,
			Message: fmt.Sprintf("%s must be a positive integer, got %q", param, raw),
		}}})
		return 0, false
	}
	return id, true
}

func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeError(w, &domain.ValidationError{Fields: []domain.FieldError{{
			Field:   "limit",
			Message: fmt.Sprintf("limit must be a non-negative integer, got %q", raw),
		}}})
		return 0, false
	}
	return limit, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
