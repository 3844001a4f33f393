package sheets

import (
	"context"
	"log/slog"

	"formcfg/internal/bootstrap/logging"
	"formcfg/internal/ports"
)

// NoopMirror is used when sheets.enabled is false. Nothing is replicated,
// so every sync reports false.
type NoopMirror struct{}

var _ ports.SheetMirror = NoopMirror{}

func (NoopMirror) Sync(ctx context.Context, form ports.Form) bool {
	logging.Debug(ctx, "sheets mirror disabled", slog.Uint64("form_id", form.FormID))
	return false
}
