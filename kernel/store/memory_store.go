package store

import (
	"sync"
	"time"

	"github.com/chunga-ict/instancectl/kernel/model"
)

// MemoryStore is the in-memory InstanceStore. Records are never modified in place: patches swap
// in a changed copy so earlier readers keep a consistent view.
type MemoryStore struct {
	mu          sync.RWMutex
	order       []string
	instances   map[string]*model.Instance
	loaded      bool
	lastRefresh time.Time
	loadError   string
}

var _ InstanceStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		instances: make(map[string]*model.Instance),
	}
}

// List returns copies of all instances in backend order.
func (s *MemoryStore) List() []*model.Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Instance, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.instances[id].Copy())
	}
	return result
}

func (s *MemoryStore) Get(instanceId string) (*model.Instance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instances[instanceId]
	if !ok {
		return nil, false
	}
	return inst.Copy(), true
}

// Replace swaps in a new snapshot wholesale. Duplicate ids keep their first position and the
// last record seen.
func (s *MemoryStore) Replace(instances []*model.Instance) {
	order := make([]string, 0, len(instances))
	byId := make(map[string]*model.Instance, len(instances))
	for _, inst := range instances {
		if inst == nil {
			continue
		}
		if _, dup := byId[inst.Id]; !dup {
			order = append(order, inst.Id)
		}
		byId[inst.Id] = inst.Copy()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = order
	s.instances = byId
	s.loaded = true
	s.lastRefresh = time.Now()
	s.loadError = ""
}

func (s *MemoryStore) PatchStatus(instanceId string, status model.Status) bool {
	return s.patch(instanceId, func(inst *model.Instance) {
		inst.Status = status
	})
}

func (s *MemoryStore) PatchName(instanceId, name string) bool {
	return s.patch(instanceId, func(inst *model.Instance) {
		inst.Name = name
	})
}

func (s *MemoryStore) patch(instanceId string, f func(inst *model.Instance)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.instances[instanceId]
	if !ok {
		return false
	}
	next := current.Copy()
	f(next)
	s.instances[instanceId] = next
	return true
}

func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Loaded is false until the first successful refresh.
func (s *MemoryStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *MemoryStore) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

func (s *MemoryStore) LoadError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadError
}

// SetLoadError records a failed refresh. The previous snapshot stays in place.
func (s *MemoryStore) SetLoadError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadError = msg
}
