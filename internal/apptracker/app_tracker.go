package apptracker

// AppTracker reports step failures and notable run events to an external error tracker.
type AppTracker interface {
	CaptureMessage(message string)
	CaptureException(exception error)
	CaptureStepError(flow, step string, err error)
	Flush()
}
