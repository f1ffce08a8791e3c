package client

import (
	"context"

	"github.com/chunga-ict/instancectl/kernel/model"
)

// StatusClient issues cancellable requests against the remote instance API. A call whose context
// is cancelled returns an error for which IsCancelled reports true.
type StatusClient interface {
	List(ctx context.Context) ([]*model.Instance, error)
	GetStatus(ctx context.Context, instanceId string) (*model.StatusSnapshot, error)
	Action(ctx context.Context, req model.ActionRequest) error
	Rename(ctx context.Context, instanceId, name string) error
}
