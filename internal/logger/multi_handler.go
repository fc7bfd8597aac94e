package logger

import (
	"context"
	"log/slog"
)

// teeHandler forwards every record to a set of sinks. It exists so logs can
// ship to Better Stack while still landing on stdout.
type teeHandler struct {
	sinks []slog.Handler
}

// NewMultiHandler combines handlers into a single slog.Handler. Nil handlers
// are skipped; a single surviving handler is returned as-is.
func NewMultiHandler(sinks ...slog.Handler) slog.Handler {
	kept := make([]slog.Handler, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return &teeHandler{sinks: kept}
}

// Enabled reports whether at least one sink wants records at this level.
func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range t.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle clones the record per sink, since handlers may mutate shared state.
// The first sink error is returned; remaining sinks still receive the record.
func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, s := range t.sinks {
		if !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sinks := make([]slog.Handler, len(t.sinks))
	for i, s := range t.sinks {
		sinks[i] = s.WithAttrs(attrs)
	}
	return &teeHandler{sinks: sinks}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	sinks := make([]slog.Handler, len(t.sinks))
	for i, s := range t.sinks {
		sinks[i] = s.WithGroup(name)
	}
	return &teeHandler{sinks: sinks}
}
