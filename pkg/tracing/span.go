// Package tracing records nested timing spans for a single request. Spans
// travel in the context, form a tree under the request's root span and are
// written to slog when the root ends.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

type Span struct {
	Name    string
	TraceID string
	Start   time.Time

	mu       sync.Mutex
	duration time.Duration
	ended    bool
	children []*Span
	attrs    []any
}

// StartSpan starts a root span. traceID is usually the request id.
func StartSpan(ctx context.Context, name, traceID string) (context.Context, *Span) {
	s := &Span{Name: name, TraceID: traceID, Start: time.Now()}
	return context.WithValue(ctx, contextKey{}, s), s
}

// StartChildSpan starts a span under the one in ctx. Without a parent the
// span is detached but still usable.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	child := &Span{Name: name, Start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		child.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, child), child
}

// FromContext returns the innermost span in ctx, or nil.
func FromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(contextKey{}).(*Span)
	return s
}

// End fixes the span's duration. Only the first call counts.
func (s *Span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		s.duration = time.Since(s.Start)
		s.ended = true
	}
}

func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, key, value)
	s.mu.Unlock()
}

// Children returns a copy of the direct child spans.
func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

// Log writes the span tree to log at debug level, parents first.
func (s *Span) Log(ctx context.Context, log *slog.Logger) {
	s.log(ctx, log, 0)
}

func (s *Span) log(ctx context.Context, log *slog.Logger, depth int) {
	s.mu.Lock()
	attrs := append([]any{
		"trace_id", s.TraceID,
		"span", s.Name,
		"duration_ms", float64(s.duration.Microseconds()) / 1000,
		"depth", depth,
	}, s.attrs...)
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()

	log.DebugContext(ctx, "span", attrs...)
	for _, c := range children {
		c.log(ctx, log, depth+1)
	}
}
