package model

import "time"

// Action is a lifecycle verb a caller can request from the backend.
type Action string

const (
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionDelete Action = "delete"
	ActionRename Action = "rename"
)

// TrackedKind is the optimistic status shown while the action is in flight.
func (a Action) TrackedKind() Status {
	switch a {
	case ActionPause:
		return Pausing
	case ActionResume:
		return Resuming
	case ActionDelete:
		return Deleting
	}
	return ""
}

func (a Action) String() string {
	return string(a)
}

// ActionDescriptor records the single outstanding action for an instance. Kind starts as the
// optimistic tracked kind and follows whatever the backend reports while polling.
type ActionDescriptor struct {
	InstanceId     string
	Kind           Status
	OriginalStatus Status
	StartedAt      time.Time
}

// ActionRequest carries what the status client needs to route an action to the right backend.
type ActionRequest struct {
	InstanceId string
	Action     Action
	Framework  string
	Premium    bool
}

// ErrorPayload is the user-facing error held by the error surface.
type ErrorPayload struct {
	Heading    string    `json:"heading"`
	Detail     string    `json:"detail"`
	InstanceId string    `json:"instance_id"`
	At         time.Time `json:"at"`
}
