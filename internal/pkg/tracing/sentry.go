// Package tracing wires Sentry error reporting.
package tracing

import (
	"errors"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// Options configures Sentry.
type Options struct {
	DSN         string
	Environment string
	Release     string
}

// Init configures the global Sentry hub. With an empty DSN it does nothing
// and reports false. The returned flush must run before the process exits.
func Init(opts Options, logger *zap.Logger) (flush func(time.Duration), enabled bool, err error) {
	noop := func(time.Duration) {}
	if opts.DSN == "" {
		logger.Debug("sentry not configured (SENTRY_DSN not set)")
		return noop, false, nil
	}

	sampleRate := 1.0
	if opts.Environment == "production" {
		sampleRate = 0.1
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		EnableTracing:    true,
		TracesSampleRate: sampleRate,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if opts.Environment == "development" && hint != nil && isConnRefused(hint.OriginalException) {
				return nil
			}
			return event
		},
	})
	if err != nil {
		return noop, false, err
	}

	logger.Info("sentry initialized", zap.String("environment", opts.Environment))
	return func(timeout time.Duration) { sentry.Flush(timeout) }, true, nil
}

// isConnRefused matches dial failures against a local dependency.
func isConnRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED) || strings.Contains(err.Error(), "connection refused")
}
