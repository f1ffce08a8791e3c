package model

import "strings"

// Status is the backend's authoritative state for an instance. Values the backend reports that
// are not one of the known states are kept verbatim.
type Status string

const (
	Provisioning Status = "Provisioning"
	Running      Status = "Running"
	Pausing      Status = "Pausing"
	Paused       Status = "Paused"
	Resuming     Status = "Resuming"
	Deleting     Status = "Deleting"
	Stopped      Status = "Stopped"
	Failed       Status = "Failed"
)

var knownStatuses = []Status{Provisioning, Running, Pausing, Paused, Resuming, Deleting, Stopped, Failed}

// backend spellings that settle onto a known state
var statusAliases = map[string]Status{
	"resumed": Running,
}

// ParseStatus normalizes a backend status string. Matching is case-insensitive.
func ParseStatus(s string) Status {
	trimmed := strings.TrimSpace(s)
	for _, known := range knownStatuses {
		if strings.EqualFold(trimmed, string(known)) {
			return known
		}
	}
	if alias, found := statusAliases[strings.ToLower(trimmed)]; found {
		return alias
	}
	return Status(trimmed)
}

// IsTerminal reports whether reaching this status ends polling.
func (s Status) IsTerminal() bool {
	switch s {
	case Running, Paused, Stopped, Failed:
		return true
	}
	return false
}

// IsTransitional reports whether the backend is still working on the instance.
func (s Status) IsTransitional() bool {
	switch s {
	case Provisioning, Pausing, Resuming, Deleting:
		return true
	}
	return false
}

// IsKnown is false for statuses the backend invented after this client was written.
func (s Status) IsKnown() bool {
	return s.IsTerminal() || s.IsTransitional()
}

func (s Status) String() string {
	return string(s)
}

// StatusSnapshot is the result of a single status poll.
type StatusSnapshot struct {
	InstanceId string
	Status     Status
	Error      *string
}

// ErrorDetail returns the backend-provided error detail, or "" when none was sent.
func (s *StatusSnapshot) ErrorDetail() string {
	if s == nil || s.Error == nil {
		return ""
	}
	return *s.Error
}
