package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

type ctxKey struct{}

type jobInfo struct {
	id   int64
	name string
}

// WithJob returns a context carrying the job identity; records logged with
// that context are enriched by ContextHandler.
func WithJob(ctx context.Context, id int64, name string) context.Context {
	return context.WithValue(ctx, ctxKey{}, jobInfo{id: id, name: name})
}

// ContextHandler wraps an slog.Handler and automatically extracts the job
// identity from the context of each log record.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler returns a handler that enriches every record with
// context values (currently job_id and job_name) before delegating to inner.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if info, ok := ctx.Value(ctxKey{}).(jobInfo); ok {
		r.AddAttrs(slog.Int64("job_id", info.id), slog.String("job_name", info.name))
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}

// SafeHandler shields the pipeline loops from user-supplied handlers: a
// panic inside Handle is swallowed and spilled to stderr.
type SafeHandler struct {
	inner slog.Handler
}

func NewSafeHandler(inner slog.Handler) *SafeHandler {
	return &SafeHandler{inner: inner}
}

func (h *SafeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *SafeHandler) Handle(ctx context.Context, r slog.Record) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			fmt.Fprintf(os.Stderr, "mysqlq: log sink panic: %v\n", rec)
		}
	}()
	return h.inner.Handle(ctx, r)
}

func (h *SafeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SafeHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *SafeHandler) WithGroup(name string) slog.Handler {
	return &SafeHandler{inner: h.inner.WithGroup(name)}
}
