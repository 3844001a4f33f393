package ports

import (
	"context"
	"time"
)

type FormLoad struct {
	LoadID       uint64
	FormID       uint64
	LoadedAt     time.Time
	IPAddress    *string
	UserAgent    *string
	Success      bool
	ErrorMessage *string
}

type FormLoadRecorder interface {
	RecordFormLoad(ctx context.Context, load FormLoad) (FormLoad, error)
}
