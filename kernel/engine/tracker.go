package engine

import (
	"time"

	"github.com/chunga-ict/instancectl/kernel/model"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pkg/errors"
)

// Tracker holds at most one in-flight action per instance id. It is the only source of truth
// for whether an instance is busy.
type Tracker struct {
	actions cmap.ConcurrentMap[string, model.ActionDescriptor]
}

func NewTracker() *Tracker {
	return &Tracker{actions: cmap.New[model.ActionDescriptor]()}
}

// Begin records a new action, or returns ErrAlreadyInProgress when one exists.
func (t *Tracker) Begin(instanceId string, kind, original model.Status) error {
	descriptor := model.ActionDescriptor{
		InstanceId:     instanceId,
		Kind:           kind,
		OriginalStatus: original,
		StartedAt:      time.Now(),
	}
	if !t.actions.SetIfAbsent(instanceId, descriptor) {
		existing, _ := t.actions.Get(instanceId)
		return errors.Wrapf(ErrAlreadyInProgress, "instance [%s] is %s", instanceId, existing.Kind)
	}
	return nil
}

func (t *Tracker) Get(instanceId string) (model.ActionDescriptor, bool) {
	return t.actions.Get(instanceId)
}

// Update sets the tracked kind. Instances found mid-transition get a descriptor on their first
// poll.
func (t *Tracker) Update(instanceId string, kind model.Status) {
	t.actions.Upsert(instanceId, model.ActionDescriptor{
		InstanceId:     instanceId,
		Kind:           kind,
		OriginalStatus: kind,
		StartedAt:      time.Now(),
	}, func(exist bool, current, next model.ActionDescriptor) model.ActionDescriptor {
		if exist {
			current.Kind = kind
			return current
		}
		return next
	})
}

func (t *Tracker) Clear(instanceId string) {
	t.actions.Remove(instanceId)
}

func (t *Tracker) IsBusy(instanceId string) bool {
	return t.actions.Has(instanceId)
}

func (t *Tracker) Snapshot() map[string]model.ActionDescriptor {
	return t.actions.Items()
}

func (t *Tracker) Count() int {
	return t.actions.Count()
}

// DisplayStatus is the tracked kind while an action is outstanding, else the durable status.
func (t *Tracker) DisplayStatus(inst *model.Instance) model.Status {
	if descriptor, found := t.actions.Get(inst.Id); found {
		return descriptor.Kind
	}
	return inst.Status
}
