package formconfig

import (
	"context"
	"strings"
)

// RequestMeta is stored on every appended event as event_metadata.
type RequestMeta struct {
	RequestID string
	Source    string
}

type requestMetaKey struct{}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func RequestMetaFrom(ctx context.Context) RequestMeta {
	if ctx == nil {
		return RequestMeta{}
	}
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

func (s *Service) eventMetadata(ctx context.Context) map[string]string {
	meta := RequestMetaFrom(ctx)
	requestID := strings.TrimSpace(meta.RequestID)
	if requestID == "" {
		requestID = s.newRequestID()
	}
	source := strings.TrimSpace(meta.Source)
	if source == "" {
		source = "api"
	}
	return map[string]string{
		"request_id": requestID,
		"source":     source,
	}
}
