package dryrun

import (
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/anchor-demo/internal/apptracker"
)

// DryRunTracker logs tracked events instead of shipping them anywhere. It is used when no tracker DSN is configured.
type DryRunTracker struct{}

var _ apptracker.AppTracker = (*DryRunTracker)(nil)

func (d *DryRunTracker) CaptureMessage(message string) {
	log.Debugf("[tracker] %s", message)
}

func (d *DryRunTracker) CaptureException(exception error) {
	log.Debugf("[tracker] exception: %v", exception)
}

func (d *DryRunTracker) CaptureStepError(flow, step string, err error) {
	log.WithFields(log.F{"flow": flow, "step": step}).Debugf("[tracker] step failed: %v", err)
}

func (d *DryRunTracker) Flush() {}
