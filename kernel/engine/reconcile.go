package engine

import (
	"context"
	"time"

	"github.com/chunga-ict/instancectl/kernel/client"
	"github.com/chunga-ict/instancectl/kernel/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const refreshKey = "list"

type ReconcileResult struct {
	Started   []string
	Dropped   []string
	Unchanged int
}

// Refresh replaces the instance store with a fresh list and reconciles polling against it.
// Concurrent callers share one list request. The request itself runs on the controller's session,
// so a caller that gives up early only stops waiting.
func (c *Controller) Refresh(ctx context.Context) error {
	if ctx == nil {
		ctx = c.ctx
	}
	ch := c.refresh.DoChan(refreshKey, func() (interface{}, error) {
		return c.doRefresh()
	})
	select {
	case result := <-ch:
		return result.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) doRefresh() (*ReconcileResult, error) {
	start := time.Now()
	instances, err := c.client.List(c.ctx)
	if err != nil {
		if client.IsCancelled(err) || c.ctx.Err() != nil {
			return nil, err
		}
		c.store.SetLoadError(LoadErrorMessage)
		c.reporter.RefreshFinished(0, time.Since(start), err)
		return nil, errors.Wrap(err, "unable to list instances")
	}

	c.store.Replace(instances)
	result := c.reconcile()
	c.reporter.RefreshFinished(c.store.Count(), time.Since(start), nil)

	logrus.Debugf("refreshed %d instances: started %d polls, dropped %d, %d unchanged",
		c.store.Count(), len(result.Started), len(result.Dropped), result.Unchanged)
	return result, nil
}

// reconcile aligns the poll scheduler with the store: transitional instances without a poll get
// one, and polls for instances the backend no longer reports are dropped.
func (c *Controller) reconcile() *ReconcileResult {
	result := &ReconcileResult{}

	present := make(map[string]struct{})
	for _, inst := range c.store.List() {
		present[inst.Id] = struct{}{}

		if !inst.Status.IsTransitional() || c.scheduler.Active(inst.Id) {
			result.Unchanged++
			continue
		}
		if c.scheduler.Start(inst.Id, c.cfg.CadenceFor(inst)) {
			logrus.Infof("instance [%s] found %s, polling", inst.Id, inst.Status)
			result.Started = append(result.Started, inst.Id)
		}
	}

	for _, instanceId := range c.scheduler.InstanceIds() {
		if _, found := present[instanceId]; found {
			continue
		}
		if c.scheduler.Stop(instanceId) {
			c.tracker.Clear(instanceId)
			logrus.Infof("instance [%s] is gone, polling dropped", instanceId)
			result.Dropped = append(result.Dropped, instanceId)
		}
	}

	return result
}

func (c *Controller) Instances() []*model.Instance {
	return c.store.List()
}

func (c *Controller) Instance(instanceId string) (*model.Instance, bool) {
	return c.store.Get(instanceId)
}

func (c *Controller) Action(instanceId string) (model.ActionDescriptor, bool) {
	return c.tracker.Get(instanceId)
}

func (c *Controller) Actions() map[string]model.ActionDescriptor {
	return c.tracker.Snapshot()
}

// DisplayStatus is the status the presentation layer should show for an instance.
func (c *Controller) DisplayStatus(instanceId string) (model.Status, bool) {
	inst, found := c.store.Get(instanceId)
	if !found {
		return "", false
	}
	return c.tracker.DisplayStatus(inst), true
}

func (c *Controller) LastError() (model.ErrorPayload, bool) {
	return c.errors.Get()
}

func (c *Controller) ClearError() {
	c.errors.Clear()
}

func (c *Controller) IsPolling(instanceId string) bool {
	return c.scheduler.Active(instanceId)
}

func (c *Controller) PollCadence(instanceId string) (time.Duration, bool) {
	return c.scheduler.Cadence(instanceId)
}

func (c *Controller) Loaded() bool {
	return c.store.Loaded()
}

func (c *Controller) LoadError() string {
	return c.store.LoadError()
}

func (c *Controller) LastRefresh() time.Time {
	return c.store.LastRefresh()
}

func (c *Controller) CanPause(instanceId string) bool {
	return c.available(instanceId, model.Running)
}

func (c *Controller) CanResume(instanceId string) bool {
	return c.available(instanceId, model.Paused)
}

func (c *Controller) CanDelete(instanceId string) bool {
	inst, found := c.store.Get(instanceId)
	if !found || c.tracker.IsBusy(instanceId) {
		return false
	}
	return inst.Status != model.Deleting
}

func (c *Controller) available(instanceId string, required model.Status) bool {
	inst, found := c.store.Get(instanceId)
	if !found || c.tracker.IsBusy(instanceId) {
		return false
	}
	return inst.Status == required
}
