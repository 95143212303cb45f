package logctx

import (
	"context"
	"log/slog"
)

// Handler wraps a slog.Handler and enriches every record with flow and
// request attributes carried on the context.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if fd, ok := ctx.Value(flowDataKey{}).(*FlowData); ok {
		r.AddAttrs(slog.Group("flow",
			slog.String("id", fd.FlowID),
			slog.String("action", fd.Action),
			slog.String("stage", fd.Stage),
		))
	}

	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("id", rd.RequestID),
			slog.String("method", rd.Method),
			slog.String("url", rd.URL),
		))
	}

	return h.Handler.Handle(ctx, r)
}

type flowDataKey struct{}

// FlowData identifies one in-flight authentication flow.
type FlowData struct {
	FlowID string
	Action string
	Stage  string
}

func WithFlowData(ctx context.Context, data *FlowData) context.Context {
	return context.WithValue(ctx, flowDataKey{}, data)
}

type requestDataKey struct{}

// RequestData describes one outbound network call.
type RequestData struct {
	RequestID string
	Method    string
	URL       string
}

func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}
