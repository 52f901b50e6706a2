package sentry

import (
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSentryTracker_CaptureMessage(t *testing.T) {
	mockSentry := setupMockSentry(t)
	mockSentry.
		On("Init", mock.Anything).Return(nil).Once().
		On("CaptureMessage", "Test message").Return((*sentry.EventID)(nil)).Once()

	tracker, err := NewSentryTracker("dsn", "test-env", 5)
	require.NoError(t, err)
	require.NotNil(t, tracker)

	tracker.CaptureMessage("Test message")
}

func TestSentryTracker_CaptureException(t *testing.T) {
	mockSentry := setupMockSentry(t)
	testError := errors.New("Test exception")
	mockSentry.
		On("Init", mock.Anything).Return(nil).Once().
		On("CaptureException", testError).Return((*sentry.EventID)(nil)).Once()

	tracker, err := NewSentryTracker("dsn", "test-env", 5)
	require.NoError(t, err)

	tracker.CaptureException(testError)
}

func TestSentryTracker_CaptureStepError(t *testing.T) {
	mockSentry := setupMockSentry(t)
	testError := errors.New("challenge signature invalid")
	mockSentry.
		On("Init", mock.Anything).Return(nil).Once().
		On("CaptureException", testError).Return((*sentry.EventID)(nil)).Once()

	tracker, err := NewSentryTracker("dsn", "test-env", 5)
	require.NoError(t, err)

	tracker.CaptureStepError("withdraw", "sep10_sign", testError)
}

func TestSentryTracker_Flush(t *testing.T) {
	mockSentry := setupMockSentry(t)
	mockSentry.
		On("Init", mock.Anything).Return(nil).Once().
		On("Flush", 3*time.Second).Return(true).Once()

	tracker, err := NewSentryTracker("dsn", "test-env", 3)
	require.NoError(t, err)

	tracker.Flush()
}

func TestNewSentryTracker_InitFailure(t *testing.T) {
	mockSentry := setupMockSentry(t)
	mockSentry.
		On("Init", sentry.ClientOptions{Dsn: "dsn", Environment: "test-env"}).Return(errors.New("init error")).Once()

	tracker, err := NewSentryTracker("dsn", "test-env", 5)
	assert.EqualError(t, err, "initializing sentry: init error")
	assert.Nil(t, tracker)
}
