package wizard

import "errors"

// ErrStageViolation is returned when an action is attempted from a stage
// it isn't reachable from, or a goto_stage jump isn't an allowed
// adjacency. The idempotent-bootstrap rule lands here too:
// extract_and_store_cv on a session that already exists.
var ErrStageViolation = errors.New("wizard: stage violation")

// ErrNoPendingProposal stands for an accept_* action with no matching
// stage in session.RuntimePreview; the API maps it to a stage-violation
// response. Dispatch does not return it: accept_* actions run whatever
// their stage's runtime state is.
var ErrNoPendingProposal = errors.New("wizard: no pending proposal for stage")

// ErrUnknownAction is returned for an action id the dispatcher doesn't
// recognize.
var ErrUnknownAction = errors.New("wizard: unknown action")
