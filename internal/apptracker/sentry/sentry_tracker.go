package sentry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/stellar/anchor-demo/internal/apptracker"
)

// We need these variables to be able to mock sentry.CaptureMessage and sentry.CaptureException in tests since
// package level functions cannot be mocked
var (
	captureMessageFunc   = sentry.CaptureMessage
	captureExceptionFunc = sentry.CaptureException
	withScopeFunc        = sentry.WithScope
	InitFunc             = sentry.Init
	FlushFunc            = sentry.Flush
)

type sentryTracker struct {
	FlushFreq time.Duration
}

var _ apptracker.AppTracker = (*sentryTracker)(nil)

func (s *sentryTracker) CaptureMessage(message string) {
	captureMessageFunc(message)
}

func (s *sentryTracker) CaptureException(exception error) {
	captureExceptionFunc(exception)
}

func (s *sentryTracker) CaptureStepError(flow, step string, err error) {
	withScopeFunc(func(scope *sentry.Scope) {
		scope.SetTag("flow", flow)
		scope.SetTag("step", step)
		captureExceptionFunc(err)
	})
}

func (s *sentryTracker) Flush() {
	FlushFunc(s.FlushFreq)
}

func NewSentryTracker(dsn string, env string, flushFreq int) (*sentryTracker, error) {
	if err := InitFunc(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
	}); err != nil {
		return nil, fmt.Errorf("initializing sentry: %w", err)
	}
	return &sentryTracker{FlushFreq: time.Second * time.Duration(flushFreq)}, nil
}
