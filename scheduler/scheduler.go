// Package scheduler defines the minimum contract a scheduler must
// satisfy. The core never implements this interface itself; pool/inline,
// pool/busy and pool/parking are three concrete implementations that
// consume exactly this boundary.
package scheduler

import "github.com/go-foundations/forkjoin/handle"

// Scheduler admits root jobs. Schedule is called by external threads; an
// implementation must deliver h to some worker's submission list and
// cause that worker's notify function to run if it is parked. Schedule
// must never lose h — a dropped handle is an unrecoverable scheduler
// misbehaviour the core cannot detect or recover from.
type Scheduler interface {
	Schedule(h *handle.SubmitHandle)
}
