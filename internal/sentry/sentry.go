// Package sentry wires error tracking through the Sentry SDK, pointed at
// Better Stack's errors ingest. When no token is configured every capture
// becomes a no-op, so callers never need to guard their calls.
package sentry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config describes the error tracking destination.
type Config struct {
	// Token is the Better Stack Errors source token. Empty disables tracking.
	Token string

	// Host is the ingesting host, e.g. "errors.betterstack.com".
	Host string

	// Environment tags events with the deployment environment.
	Environment string

	// Release tags events with the running version.
	Release string

	// SampleRate keeps a fraction of events in [0,1]; zero means keep all.
	SampleRate float64
}

// Initialize configures the global Sentry client. With an empty token the
// client stays unconfigured and capture calls do nothing.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return errors.New("sentry: host is required when a token is set")
	}

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		// Better Stack ignores the project ID, but the DSN format needs one.
		Dsn:              fmt.Sprintf("https://%s@%s/1", cfg.Token, cfg.Host),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       rate,
		AttachStacktrace: true,
	})
}

// Flush blocks until buffered events are delivered or the timeout expires.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled reports whether a client was configured.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException reports an error on the global hub.
func CaptureException(err error) {
	sentry.CaptureException(err)
}

// CaptureExceptionWithContext reports an error on the hub bound to the
// request context, so events carry the request scope set by the gin
// middleware. Falls back to the global hub outside a request.
func CaptureExceptionWithContext(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// CaptureMessage reports a plain message on the global hub.
func CaptureMessage(message string) {
	sentry.CaptureMessage(message)
}
