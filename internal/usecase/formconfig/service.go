package formconfig

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/errs"
	"formcfg/internal/ports"
)

type Service struct {
	forms        ports.FormRepository
	eventConfigs ports.EventConfigRepository
	events       ports.EventLog
	loads        ports.FormLoadRecorder
	uow          ports.UnitOfWork
	mirror       ports.SheetMirror
	cache        ports.Cache
	dispatcher   *Dispatcher
	now          func() time.Time
	newRequestID func() string
}

// Dependencies groups the ports the service is wired with. Mirror, Cache
// and Loads are optional.
type Dependencies struct {
	Forms        ports.FormRepository
	EventConfigs ports.EventConfigRepository
	Events       ports.EventLog
	Loads        ports.FormLoadRecorder
	UnitOfWork   ports.UnitOfWork
	Mirror       ports.SheetMirror
	Cache        ports.Cache
	// Domains restricts the dispatcher to these target kinds. Empty enables both.
	Domains []domain.TargetKind
}

func NewService(deps Dependencies) *Service {
	now := func() time.Time { return time.Now().UTC() }
	return &Service{
		forms:        deps.Forms,
		eventConfigs: deps.EventConfigs,
		events:       deps.Events,
		loads:        deps.Loads,
		uow:          deps.UnitOfWork,
		mirror:       deps.Mirror,
		cache:        deps.Cache,
		dispatcher:   NewDispatcher(deps.Forms, deps.EventConfigs, deps.Events, deps.UnitOfWork, deps.Domains),
		now:          now,
		newRequestID: func() string { return uuid.NewString() },
	}
}

// Dispatcher exposes the event dispatcher used by the pipeline.
func (s *Service) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// MutationResult is what callers see for every mutation: success plus ids,
// or failure plus a message and its taxonomy kind.
type MutationResult struct {
	Success    bool              `json:"success"`
	EntityID   uint64            `json:"id,omitempty"`
	EventID    uint64            `json:"event_id,omitempty"`
	SheetsSync *bool             `json:"sheets_sync,omitempty"`
	Error      string            `json:"error,omitempty"`
	Kind       domain.Kind       `json:"kind,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

func failedResult(eventID uint64, err error) MutationResult {
	result := MutationResult{
		Success: false,
		EventID: eventID,
		Error:   err.Error(),
		Kind:    domain.KindOf(err),
	}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		result.Errors = vErr.FieldMap()
	}
	return result
}

type FormDetail struct {
	Form       ports.Form
	SheetsSync string
}

type FormLoadInput struct {
	FormID       uint64
	IPAddress    string
	UserAgent    string
	Success      bool
	ErrorMessage string
}

type ReplayReport struct {
	Attempted int              `json:"attempted"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []MutationResult `json:"results"`
}

func (s *Service) checkReady(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.forms == nil || s.eventConfigs == nil {
		return errors.New("formconfig repositories are required")
	}
	if s.events == nil {
		return errors.New("formconfig event log is required")
	}
	if s.uow == nil {
		return errors.New("formconfig unit of work is required")
	}
	return nil
}

func (s *Service) setCacheBestEffort(ctx context.Context, key string, value string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, value, 0)
}
