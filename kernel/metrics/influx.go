package metrics

import (
	"time"

	"github.com/chunga-ict/instancectl/kernel/model"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/michaelquigley/pfxlog"
)

const (
	measurementAction  = "instance_action"
	measurementStatus  = "instance_status"
	measurementRefresh = "instance_refresh"
)

// InfluxReporter writes observations through the asynchronous InfluxDB write API.
type InfluxReporter struct {
	client influxdb2.Client
	writer api.WriteAPI
	done   chan struct{}
}

func NewInfluxReporter(cfg *model.InfluxConfig) *InfluxReporter {
	client := influxdb2.NewClient(cfg.Url, cfg.Token)
	r := &InfluxReporter{
		client: client,
		writer: client.WriteAPI(cfg.Org, cfg.Bucket),
		done:   make(chan struct{}),
	}
	go r.drainErrors()
	return r
}

func (r *InfluxReporter) drainErrors() {
	defer close(r.done)
	for err := range r.writer.Errors() {
		pfxlog.Logger().WithError(err).Warn("metrics write failed")
	}
}

func (r *InfluxReporter) ActionFinished(action model.Action, instanceId string, outcome Outcome, elapsed time.Duration) {
	r.writer.WritePoint(influxdb2.NewPoint(measurementAction,
		map[string]string{"action": string(action), "instance_id": instanceId, "outcome": string(outcome)},
		map[string]interface{}{"elapsed_ms": elapsed.Milliseconds()},
		time.Now()))
}

func (r *InfluxReporter) StatusObserved(instanceId string, status model.Status) {
	r.writer.WritePoint(influxdb2.NewPoint(measurementStatus,
		map[string]string{"instance_id": instanceId},
		map[string]interface{}{"status": string(status), "terminal": status.IsTerminal()},
		time.Now()))
}

func (r *InfluxReporter) RefreshFinished(count int, elapsed time.Duration, err error) {
	fields := map[string]interface{}{"count": count, "elapsed_ms": elapsed.Milliseconds(), "ok": err == nil}
	r.writer.WritePoint(influxdb2.NewPoint(measurementRefresh, nil, fields, time.Now()))
}

// Flush blocks until buffered points have been sent.
func (r *InfluxReporter) Flush() {
	r.writer.Flush()
}

func (r *InfluxReporter) Close() {
	r.writer.Flush()
	r.client.Close()
	<-r.done
}
