package store

import (
	"time"

	"github.com/chunga-ict/instancectl/kernel/model"
)

// InstanceStore holds the canonical instance list with each instance's last durable status.
// Readers get copies; only the lifecycle controller writes.
type InstanceStore interface {
	List() []*model.Instance
	Get(instanceId string) (*model.Instance, bool)
	Replace(instances []*model.Instance)
	PatchStatus(instanceId string, status model.Status) bool
	PatchName(instanceId, name string) bool
	Count() int

	Loaded() bool
	LastRefresh() time.Time
	LoadError() string
	SetLoadError(msg string)
}
