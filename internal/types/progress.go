/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

package types

import (
	"time"
)

// ProgressPhase captures a high-level phase of a pipeline step so that the
// CLI can report what is happening while a run is in flight.
type ProgressPhase string

const (
	ProgressPhaseStart ProgressPhase = "start"
	ProgressPhaseSaved ProgressPhase = "saved"
	ProgressPhaseEnd   ProgressPhase = "end"
)

// ProgressEvent is emitted by the pipeline as it moves through its states.
// Path is only set for ProgressPhaseSaved events.
type ProgressEvent struct {
	Project     string
	Step        string
	Phase       ProgressPhase
	Time        time.Time
	Path        string
	DisplayText string
}
