package formconfig

import (
	"context"
	"fmt"
	"log/slog"

	"formcfg/internal/bootstrap/logging"
	"formcfg/internal/errs"
)

const (
	mirrorStatusOK     = "ok"
	mirrorStatusFailed = "failed"
)

func mirrorStatusKey(formID uint64) string {
	return fmt.Sprintf("sheets_sync:form#%d", formID)
}

// syncMirror replicates a committed form. It never fails the caller: any
// error or panic is logged and reported as false.
func (s *Service) syncMirror(ctx context.Context, formID uint64) (synced bool) {
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.formconfig.mirror"),
		slog.Uint64("form_id", formID),
	)

	defer func() {
		if r := recover(); r != nil {
			logging.Error(logCtx, "sheets mirror panicked", slog.Any("panic", r))
			synced = false
		}
		status := mirrorStatusFailed
		if synced {
			status = mirrorStatusOK
		}
		s.setCacheBestEffort(ctx, mirrorStatusKey(formID), status)
	}()

	if s.mirror == nil {
		return false
	}

	form, err := s.forms.GetForm(ctx, formID)
	if err != nil {
		logging.Warn(logCtx, "load form for sheets mirror failed", slog.Any("err", errs.Loggable(err)))
		return false
	}
	return s.mirror.Sync(ctx, form)
}
