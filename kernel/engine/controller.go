package engine

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/chunga-ict/instancectl/kernel/client"
	"github.com/chunga-ict/instancectl/kernel/metrics"
	"github.com/chunga-ict/instancectl/kernel/model"
	"github.com/chunga-ict/instancectl/kernel/store"
	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const MaxNameLength = 30

// Controller drives pause, resume, delete and rename for the instances in its store and keeps
// the store fresh. Every network call it makes is derived from one session context, cancelled
// by Close.
type Controller struct {
	cfg       *model.Config
	client    client.StatusClient
	store     store.InstanceStore
	tracker   *Tracker
	scheduler *Scheduler
	errors    *ErrorSurface
	reporter  metrics.Reporter

	ctx       context.Context
	cancel    context.CancelFunc
	refresh   singleflight.Group
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

type Option func(c *Controller)

func WithStore(s store.InstanceStore) Option {
	return func(c *Controller) {
		c.store = s
	}
}

func WithReporter(r metrics.Reporter) Option {
	return func(c *Controller) {
		c.reporter = r
	}
}

func NewController(cfg *model.Config, statusClient client.StatusClient, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:     cfg,
		client:  statusClient,
		store:   store.NewMemoryStore(),
		tracker: NewTracker(),
		errors:  NewErrorSurface(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reporter == nil {
		c.reporter = metrics.NewReporter(cfg.Metrics)
	}
	c.scheduler = NewScheduler(ctx, c.pollStatus)
	return c
}

// Start launches the background refresh loop: one refresh now, then one every RefreshInterval.
func (c *Controller) Start() {
	c.startOnce.Do(func() {
		if c.ctx.Err() != nil {
			return
		}
		c.wg.Add(1)
		go c.refreshLoop()
	})
}

// Close tears the controller down: outstanding requests and polls are cancelled and every
// poll has returned when Close does.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.scheduler.Close()
		c.wg.Wait()
		c.reporter.Close()
		pfxlog.Logger().Debug("controller closed")
	})
}

func (c *Controller) refreshLoop() {
	defer c.wg.Done()

	if err := c.Refresh(c.ctx); err != nil && !client.IsCancelled(err) {
		pfxlog.Logger().WithError(err).Error("initial refresh failed")
	}

	ticker := time.NewTicker(c.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(c.ctx); err != nil && !client.IsCancelled(err) {
				pfxlog.Logger().WithError(err).Error("periodic refresh failed")
			}
		}
	}
}

// RequestPause pauses an instance. Pause takes effect synchronously on the backend, so success
// patches the stored status directly and no poll is scheduled.
func (c *Controller) RequestPause(ctx context.Context, instanceId string) error {
	inst, err := c.begin(instanceId, model.ActionPause)
	if err != nil {
		return err
	}
	log := pfxlog.Logger().WithField("instanceId", instanceId)

	opCtx, done := c.opContext(ctx)
	defer done()

	start := time.Now()
	err = c.client.Action(opCtx, c.actionRequest(inst, model.ActionPause))
	if err != nil {
		c.tracker.Clear(instanceId)
		if client.IsCancelled(err) {
			log.Debug("pause cancelled")
			c.reporter.ActionFinished(model.ActionPause, instanceId, metrics.OutcomeCancelled, time.Since(start))
			return err
		}
		c.reporter.ActionFinished(model.ActionPause, instanceId, outcomeOf(err), time.Since(start))
		c.errors.Set(HeadingPauseFailed, detailOr(err, DetailTryAgain), instanceId)
		c.refreshQuietly()
		return errors.Wrapf(err, "pause of instance [%s] failed", instanceId)
	}

	c.store.PatchStatus(instanceId, model.Paused)
	c.tracker.Clear(instanceId)
	c.reporter.ActionFinished(model.ActionPause, instanceId, metrics.OutcomeSuccess, time.Since(start))
	log.Info("paused")
	return nil
}

// RequestResume asks the backend to resume an instance and polls until it settles. The poll
// cadence is chosen from the instance record at the moment the request is accepted.
func (c *Controller) RequestResume(ctx context.Context, instanceId string) error {
	inst, err := c.begin(instanceId, model.ActionResume)
	if err != nil {
		return err
	}
	log := pfxlog.Logger().WithField("instanceId", instanceId)

	opCtx, done := c.opContext(ctx)
	defer done()

	start := time.Now()
	err = c.client.Action(opCtx, c.actionRequest(inst, model.ActionResume))
	if err != nil {
		c.tracker.Clear(instanceId)
		if client.IsCancelled(err) {
			log.Debug("resume cancelled")
			c.reporter.ActionFinished(model.ActionResume, instanceId, metrics.OutcomeCancelled, time.Since(start))
			return err
		}
		c.reporter.ActionFinished(model.ActionResume, instanceId, outcomeOf(err), time.Since(start))
		detail := client.Detail(err)
		heading := HeadingResumeFailed
		if strings.Contains(strings.ToLower(detail), "storage") {
			heading = HeadingLowStorage
		}
		c.errors.Set(heading, detail, instanceId)
		return errors.Wrapf(err, "resume of instance [%s] failed", instanceId)
	}

	c.reporter.ActionFinished(model.ActionResume, instanceId, metrics.OutcomeSuccess, time.Since(start))
	cadence := c.cfg.CadenceFor(inst)
	if !c.scheduler.Start(instanceId, cadence) {
		c.tracker.Clear(instanceId)
		return errors.Wrapf(context.Canceled, "resume of instance [%s] accepted after shutdown", instanceId)
	}
	log.Infof("resume accepted, polling every %v", cadence)
	return nil
}

// RequestDelete destroys an instance. Whatever happens, the instance is never left showing
// Deleting: the descriptor is cleared and the store refreshed on the way out.
func (c *Controller) RequestDelete(ctx context.Context, instanceId string) (err error) {
	inst, err := c.begin(instanceId, model.ActionDelete)
	if err != nil {
		return err
	}
	log := pfxlog.Logger().WithField("instanceId", instanceId)

	defer func() {
		c.scheduler.Stop(instanceId)
		c.tracker.Clear(instanceId)
		c.refreshQuietly()
	}()

	opCtx, done := c.opContext(ctx)
	defer done()

	start := time.Now()
	if err = c.client.Action(opCtx, c.actionRequest(inst, model.ActionDelete)); err != nil {
		if client.IsCancelled(err) {
			log.Debug("delete cancelled")
			c.reporter.ActionFinished(model.ActionDelete, instanceId, metrics.OutcomeCancelled, time.Since(start))
			return err
		}
		c.reporter.ActionFinished(model.ActionDelete, instanceId, outcomeOf(err), time.Since(start))
		c.errors.Set(HeadingDeleteFailed, client.Detail(err), instanceId)
		return errors.Wrapf(err, "delete of instance [%s] failed", instanceId)
	}

	c.reporter.ActionFinished(model.ActionDelete, instanceId, metrics.OutcomeSuccess, time.Since(start))
	log.Info("deleted")
	return nil
}

// RequestRename validates and sends a new display name. The stored name only changes once the
// backend has acknowledged it.
func (c *Controller) RequestRename(ctx context.Context, instanceId, name string) error {
	inst, found := c.store.Get(instanceId)
	if !found {
		return errors.Wrapf(ErrUnknownInstance, "instance [%s]", instanceId)
	}

	trimmed := strings.TrimSpace(name)
	switch length := utf8.RuneCountInString(trimmed); {
	case length == 0:
		return c.invalidName(instanceId, "Instance name cannot be empty. Reverting to default.", inst.DefaultName())
	case length > MaxNameLength:
		return c.invalidName(instanceId, "Instance name should be 1-30 characters long.", inst.Name)
	}

	opCtx, done := c.opContext(ctx)
	defer done()

	start := time.Now()
	if err := c.client.Rename(opCtx, instanceId, trimmed); err != nil {
		if client.IsCancelled(err) {
			c.reporter.ActionFinished(model.ActionRename, instanceId, metrics.OutcomeCancelled, time.Since(start))
			return err
		}
		c.reporter.ActionFinished(model.ActionRename, instanceId, outcomeOf(err), time.Since(start))
		c.errors.Set(HeadingRenameFailed, client.Detail(err), instanceId)
		return errors.Wrapf(err, "rename of instance [%s] failed", instanceId)
	}

	c.store.PatchName(instanceId, trimmed)
	c.reporter.ActionFinished(model.ActionRename, instanceId, metrics.OutcomeSuccess, time.Since(start))
	pfxlog.Logger().WithField("instanceId", instanceId).Infof("renamed to '%s'", trimmed)
	return nil
}

func (c *Controller) invalidName(instanceId, message, revert string) error {
	c.errors.Set(HeadingInvalidName, message, instanceId)
	c.reporter.ActionFinished(model.ActionRename, instanceId, metrics.OutcomeInvalid, 0)
	return &ValidationError{InstanceId: instanceId, Message: message, Revert: revert}
}

// pollStatus is the Scheduler callback: one status check for one instance. Tracker and error
// writes only land while the handle is live, so a stopped poll cannot resurrect a descriptor.
func (c *Controller) pollStatus(ctx context.Context, handle *PollHandle) bool {
	instanceId := handle.InstanceId
	log := pfxlog.Logger().WithField("instanceId", instanceId)

	snapshot, err := c.client.GetStatus(ctx, instanceId)
	if ctx.Err() != nil {
		return true
	}
	if err != nil {
		if client.IsCancelled(err) {
			return true
		}
		handle.failures++
		if handle.failures > 1 {
			log.WithError(err).Debugf("status poll failed (%d in a row)", handle.failures)
			return false
		}
		log.WithError(err).Warn("status poll failed")
		return !handle.guard(func() {
			c.errors.Set(HeadingStatusFailed, client.Detail(err), instanceId)
		})
	}
	handle.failures = 0

	c.reporter.StatusObserved(instanceId, snapshot.Status)
	if !snapshot.Status.IsTerminal() {
		return !handle.guard(func() {
			c.tracker.Update(instanceId, snapshot.Status)
		})
	}

	settled := handle.guard(func() {
		if snapshot.Status == model.Failed {
			failure := &PollFailureError{InstanceId: instanceId, Detail: snapshot.ErrorDetail()}
			log.WithError(failure).Warn("instance reported failure")
			c.errors.Set(HeadingResumeStatusFailed, failure.Detail, instanceId)
		} else {
			log.Infof("settled at %s", snapshot.Status)
		}
		c.tracker.Clear(instanceId)
	})
	if settled {
		c.refreshQuietly()
	}
	return true
}

func (c *Controller) begin(instanceId string, action model.Action) (*model.Instance, error) {
	inst, found := c.store.Get(instanceId)
	if !found {
		return nil, errors.Wrapf(ErrUnknownInstance, "instance [%s]", instanceId)
	}
	if err := c.tracker.Begin(instanceId, action.TrackedKind(), inst.Status); err != nil {
		pfxlog.Logger().WithField("instanceId", instanceId).Debugf("%s rejected: %v", action, err)
		return nil, err
	}
	return inst, nil
}

func (c *Controller) actionRequest(inst *model.Instance, action model.Action) model.ActionRequest {
	return model.ActionRequest{
		InstanceId: inst.Id,
		Action:     action,
		Framework:  inst.Framework,
		Premium:    c.cfg.IsPremium(inst),
	}
}

// opContext derives a context cancelled by either the caller or the controller's teardown.
func (c *Controller) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (c *Controller) refreshQuietly() {
	if err := c.Refresh(c.ctx); err != nil && !client.IsCancelled(err) {
		pfxlog.Logger().WithError(err).Warn("refresh after action failed")
	}
}

func outcomeOf(err error) metrics.Outcome {
	var rejected *client.ActionRejectedError
	if errors.As(err, &rejected) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeFailed
}

func detailOr(err error, fallback string) string {
	var rejected *client.ActionRejectedError
	if errors.As(err, &rejected) && rejected.Detail != "" {
		return rejected.Detail
	}
	return fallback
}
