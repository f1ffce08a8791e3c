package engine

import (
	"sync"
	"time"

	"github.com/chunga-ict/instancectl/kernel/model"
	"github.com/michaelquigley/pfxlog"
)

// ErrorSurface is the single user-facing error slot. The latest error wins.
type ErrorSurface struct {
	mu      sync.RWMutex
	current *model.ErrorPayload
}

func NewErrorSurface() *ErrorSurface {
	return &ErrorSurface{}
}

func (s *ErrorSurface) Set(heading, detail, instanceId string) {
	pfxlog.Logger().WithField("instanceId", instanceId).Warnf("%s: %s", heading, detail)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &model.ErrorPayload{
		Heading:    heading,
		Detail:     detail,
		InstanceId: instanceId,
		At:         time.Now(),
	}
}

func (s *ErrorSurface) Get() (model.ErrorPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return model.ErrorPayload{}, false
	}
	return *s.current, true
}

func (s *ErrorSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}
