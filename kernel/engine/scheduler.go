package engine

import (
	"context"
	"sync"
	"time"

	"github.com/chunga-ict/instancectl/kernel/model"
	"github.com/michaelquigley/pfxlog"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// PollFunc checks an instance once and reports whether polling is done. The context is
// cancelled when the handle is stopped or superseded; state writes go through handle.guard so
// results observed after that are dropped.
type PollFunc func(ctx context.Context, handle *PollHandle) (done bool)

// PollHandle is the live timer for one instance.
type PollHandle struct {
	InstanceId string
	Cadence    time.Duration
	StartedAt  time.Time
	cancel     context.CancelFunc

	mu      sync.Mutex
	stopped bool

	// consecutive failed polls; only touched from the handle's own goroutine
	failures int
}

// halt marks the handle stopped and cancels it. No guarded write runs once halt returns.
func (h *PollHandle) halt() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	h.cancel()
}

// guard runs fn while the handle is still live and reports whether it ran. fn must not call
// back into the Scheduler.
func (h *PollHandle) guard(fn func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	fn()
	return true
}

// Scheduler runs at most one recurring poll per instance id.
type Scheduler struct {
	ctx     context.Context
	cancel  context.CancelFunc
	poll    PollFunc
	handles cmap.ConcurrentMap[string, *PollHandle]

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewScheduler(parent context.Context, poll PollFunc) *Scheduler {
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{
		ctx:     ctx,
		cancel:  cancel,
		poll:    poll,
		handles: cmap.New[*PollHandle](),
	}
}

// Start replaces any existing poll for the instance, polls once right away and then every
// cadence until the poll reports done. Returns false once the scheduler is closed.
func (s *Scheduler) Start(instanceId string, cadence time.Duration) bool {
	if cadence <= 0 {
		cadence = model.DefaultFastCadence
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(s.ctx)
	handle := &PollHandle{
		InstanceId: instanceId,
		Cadence:    cadence,
		StartedAt:  time.Now(),
		cancel:     cancel,
	}
	s.handles.Upsert(instanceId, handle, func(exist bool, prior, next *PollHandle) *PollHandle {
		if exist {
			prior.halt()
		}
		return next
	})

	pfxlog.Logger().WithField("instanceId", instanceId).Debugf("polling every %v", cadence)
	go s.run(ctx, handle)
	return true
}

// Stop cancels the poll for an instance. Stopping an instance with no poll is a no-op.
func (s *Scheduler) Stop(instanceId string) bool {
	handle, found := s.handles.Pop(instanceId)
	if found {
		handle.halt()
		pfxlog.Logger().WithField("instanceId", instanceId).Debug("polling stopped")
	}
	return found
}

func (s *Scheduler) Active(instanceId string) bool {
	return s.handles.Has(instanceId)
}

func (s *Scheduler) Cadence(instanceId string) (time.Duration, bool) {
	handle, found := s.handles.Get(instanceId)
	if !found {
		return 0, false
	}
	return handle.Cadence, true
}

func (s *Scheduler) InstanceIds() []string {
	return s.handles.Keys()
}

func (s *Scheduler) Count() int {
	return s.handles.Count()
}

// Close cancels every poll and waits for all of them to return.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	for _, handle := range s.handles.Items() {
		handle.halt()
	}
	s.cancel()
	s.wg.Wait()
	s.handles.Clear()
}

func (s *Scheduler) run(ctx context.Context, handle *PollHandle) {
	defer s.wg.Done()
	defer s.release(handle)

	if s.poll(ctx, handle) {
		return
	}

	ticker := time.NewTicker(handle.Cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if s.poll(ctx, handle) {
				return
			}
		}
	}
}

// release drops the handle only if it has not been superseded.
func (s *Scheduler) release(handle *PollHandle) {
	handle.halt()
	s.handles.RemoveCb(handle.InstanceId, func(key string, current *PollHandle, exists bool) bool {
		return exists && current == handle
	})
}
