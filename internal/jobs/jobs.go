// Package jobs contains the two periodic passes of the scheduling engine:
// the post publish pass over the spreadsheet feed and the reminder pass over
// course registrations. Both are invoked by the tick driver and guard
// themselves against overlapping runs.
package jobs

import (
	"context"
	"errors"
)

// AdminAlerter forwards operational failures to administrators. Delivery is
// asynchronous and best effort.
type AdminAlerter interface {
	Alert(ctx context.Context, severity, message string)
}

const (
	SeverityWarning = "WARNING"
	// SeverityCritical marks consistency risks: a successful publish whose
	// write-back failed, or a sent reminder whose marker was not persisted.
	SeverityCritical = "CRITICAL"
)

// ErrPassInProgress is returned when a pass is triggered while its previous
// run has not finished. The trigger is simply skipped; the next tick retries.
var ErrPassInProgress = errors.New("previous pass still running")
