package metrics

import (
	"time"

	"github.com/chunga-ict/instancectl/kernel/model"
)

type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeInvalid   Outcome = "invalid"
)

// Reporter receives lifecycle observations. Implementations must not block the caller.
type Reporter interface {
	ActionFinished(action model.Action, instanceId string, outcome Outcome, elapsed time.Duration)
	StatusObserved(instanceId string, status model.Status)
	RefreshFinished(count int, elapsed time.Duration, err error)
	Close()
}

type NopReporter struct{}

func (NopReporter) ActionFinished(model.Action, string, Outcome, time.Duration) {}
func (NopReporter) StatusObserved(string, model.Status) {}
func (NopReporter) RefreshFinished(int, time.Duration, error) {}
func (NopReporter) Close() {}

// NewReporter returns an InfluxDB reporter when one is configured, otherwise a no-op.
func NewReporter(cfg model.MetricsConfig) Reporter {
	if cfg.Influx == nil || cfg.Influx.Url == "" {
		return NopReporter{}
	}
	return NewInfluxReporter(cfg.Influx)
}
