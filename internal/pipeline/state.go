/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package pipeline

import (
	"fmt"
)

// State is a point in a pipeline run. A run only ever moves forward.
type State int

const (
	StateInit State = iota
	StateSpecPersisted
	StatePolicyGenerated
	StateValidatorGenerated
	StateManifestWritten
	StateDone
)

var stateNames = []string{
	"init",
	"spec_persisted",
	"policy_generated",
	"validator_generated",
	"manifest_written",
	"done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// StageError reports a run that aborted while moving from Reached to Failed.
// Artifacts persisted on the way to Reached stay on disk.
type StageError struct {
	Reached State
	Failed  State
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stopped at %v (failed to reach %v): %v",
		e.Reached, e.Failed, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
