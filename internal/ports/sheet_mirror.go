package ports

import "context"

// SheetMirror replicates a committed form's summary fields to an external
// spreadsheet. Sync never returns an error; failures are logged by the
// adapter and reported as false.
type SheetMirror interface {
	Sync(ctx context.Context, form Form) bool
}
