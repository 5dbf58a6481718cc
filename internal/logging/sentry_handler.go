package logging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
)

// SentryHandler reports ERROR and above to Sentry. An "error" attribute
// holding an error value is captured as an exception, anything else as a
// message. user_id becomes the Sentry user.
type SentryHandler struct {
	hub   *sentry.Hub
	attrs []slog.Attr
}

func NewSentryHandler(hub *sentry.Hub) *SentryHandler {
	return &SentryHandler{hub: hub}
}

func (h *SentryHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *SentryHandler) Handle(_ context.Context, record slog.Record) error {
	extra := sentry.Context{}
	var (
		captured error
		userID   string
	)
	collect := func(a slog.Attr) bool {
		switch a.Key {
		case "error":
			if err, ok := a.Value.Any().(error); ok {
				captured = err
				return true
			}
		case "user_id":
			userID = a.Value.String()
		}
		extra[a.Key] = a.Value.String()
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	record.Attrs(collect)

	h.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentryLevel(record.Level))
		scope.SetContext("log", extra)
		if userID != "" {
			scope.SetUser(sentry.User{ID: userID})
		}
		if captured != nil {
			h.hub.CaptureException(fmt.Errorf("%s: %w", record.Message, captured))
			return
		}
		h.hub.CaptureMessage(record.Message)
	})
	return nil
}

func (h *SentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &SentryHandler{hub: h.hub, attrs: merged}
}

// WithGroup is flattened; Sentry contexts carry no nesting here.
func (h *SentryHandler) WithGroup(string) slog.Handler {
	return h
}

func sentryLevel(level slog.Level) sentry.Level {
	if level > slog.LevelError {
		return sentry.LevelFatal
	}
	return sentry.LevelError
}
