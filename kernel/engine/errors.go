package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAlreadyInProgress is returned when an action is requested for an instance that already
	// has one outstanding.
	ErrAlreadyInProgress = errors.New("action already in progress")

	// ErrUnknownInstance is returned for ids the instance store does not hold.
	ErrUnknownInstance = errors.New("instance not found")
)

// Headings shown by the presentation layer for each failure.
const (
	HeadingPauseFailed        = "Pausing your instance failed!"
	HeadingResumeFailed       = "Oh, resuming your instance failed!"
	HeadingLowStorage         = "Low Storage Alert!"
	HeadingStatusFailed       = "Resuming your instance failed"
	HeadingResumeStatusFailed = "Resuming Instance failed"
	HeadingDeleteFailed       = "Destroying your instance failed"
	HeadingRenameFailed       = "Renaming your instance failed"
	HeadingInvalidName        = "Invalid instance name"

	DetailTryAgain   = "Please try again later."
	LoadErrorMessage = "Failed to load instances. Please try again later."
)

// ValidationError is bad local input. It never reaches the backend. Revert is the value the
// presentation layer should put back into its editor.
type ValidationError struct {
	InstanceId string
	Message    string
	Revert     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input for instance [%s]: %s", e.InstanceId, e.Message)
}

// PollFailureError reports that the backend moved an instance into the Failed state.
type PollFailureError struct {
	InstanceId string
	Detail     string
}

func (e *PollFailureError) Error() string {
	return fmt.Sprintf("instance [%s] failed: %s", e.InstanceId, e.Detail)
}
