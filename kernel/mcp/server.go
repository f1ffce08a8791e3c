package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chunga-ict/instancectl/kernel/model"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
)

const statusUri = "instances://status"

// InstanceController is the slice of the lifecycle controller exposed to MCP clients.
type InstanceController interface {
	Instances() []*model.Instance
	Instance(instanceId string) (*model.Instance, bool)
	Action(instanceId string) (model.ActionDescriptor, bool)
	DisplayStatus(instanceId string) (model.Status, bool)
	IsPolling(instanceId string) bool
	LastError() (model.ErrorPayload, bool)
	Loaded() bool
	LoadError() string

	Refresh(ctx context.Context) error
	RequestPause(ctx context.Context, instanceId string) error
	RequestResume(ctx context.Context, instanceId string) error
	RequestDelete(ctx context.Context, instanceId string) error
	RequestRename(ctx context.Context, instanceId, name string) error
}

type InstanceMCPServer struct {
	server     *server.MCPServer
	controller InstanceController
}

func NewInstanceMCPServer(c InstanceController) *InstanceMCPServer {
	srv := server.NewMCPServer(
		"Instance Lifecycle Controller",
		"v1.0.0",
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(true),
	)

	is := &InstanceMCPServer{
		server:     srv,
		controller: c,
	}

	is.registerTools()
	is.registerResources()

	return is
}

func (is *InstanceMCPServer) ServeStdio() error {
	return server.ServeStdio(is.server)
}

func (is *InstanceMCPServer) registerTools() {
	is.server.AddTool(mcp.NewTool("list_instances",
		mcp.WithDescription("List instances with their durable and displayed status"),
		mcp.WithBoolean("refresh",
			mcp.Description("Fetch a fresh list from the backend first"),
		),
	), is.listInstancesHandler)

	is.server.AddTool(mcp.NewTool("get_instance",
		mcp.WithDescription("Get details of one instance"),
		instanceIdArg(),
	), is.getInstanceHandler)

	is.server.AddTool(mcp.NewTool("pause_instance",
		mcp.WithDescription("Pause a running instance"),
		instanceIdArg(),
	), is.actionHandler(model.ActionPause))

	is.server.AddTool(mcp.NewTool("resume_instance",
		mcp.WithDescription("Resume a paused instance; status is polled until it settles"),
		instanceIdArg(),
	), is.actionHandler(model.ActionResume))

	is.server.AddTool(mcp.NewTool("delete_instance",
		mcp.WithDescription("Destroy an instance"),
		instanceIdArg(),
	), is.actionHandler(model.ActionDelete))

	is.server.AddTool(mcp.NewTool("rename_instance",
		mcp.WithDescription("Rename an instance (1-30 characters)"),
		instanceIdArg(),
		mcp.WithString("name",
			mcp.Description("New display name"),
			mcp.Required(),
		),
	), is.renameInstanceHandler)
}

func instanceIdArg() mcp.ToolOption {
	return mcp.WithString("instance_id",
		mcp.Description("Id of the instance"),
		mcp.Required(),
	)
}

func (is *InstanceMCPServer) registerResources() {
	resource := mcp.NewResource(statusUri, "Instance Status",
		mcp.WithResourceDescription("Load state, last error and status of every instance"),
		mcp.WithMIMEType("application/json"),
	)
	is.server.AddResource(resource, is.statusHandler)
}

type instanceView struct {
	InstanceId    string       `json:"instance_id"`
	Name          string       `json:"name"`
	Framework     string       `json:"framework"`
	Status        model.Status `json:"status"`
	DisplayStatus model.Status `json:"display_status"`
	Gpu           string       `json:"gpu"`
	NumGpus       int          `json:"num_gpus"`
	Cost          float64      `json:"cost"`
	Busy          bool         `json:"busy"`
	Polling       bool         `json:"polling"`
	ActionSince   *time.Time   `json:"action_since,omitempty"`
}

func (is *InstanceMCPServer) view(inst *model.Instance) instanceView {
	v := instanceView{
		InstanceId:    inst.Id,
		Name:          inst.Name,
		Framework:     inst.Framework,
		Status:        inst.Status,
		DisplayStatus: inst.Status,
		Gpu:           inst.GpuLabel(),
		NumGpus:       inst.NumGpus,
		Cost:          inst.Cost,
		Polling:       is.controller.IsPolling(inst.Id),
	}
	if status, found := is.controller.DisplayStatus(inst.Id); found {
		v.DisplayStatus = status
	}
	if descriptor, busy := is.controller.Action(inst.Id); busy {
		v.Busy = true
		startedAt := descriptor.StartedAt
		v.ActionSince = &startedAt
	}
	return v
}

func (is *InstanceMCPServer) listInstancesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetBool("refresh", false) {
		if err := is.controller.Refresh(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	instances := is.controller.Instances()
	views := make([]instanceView, 0, len(instances))
	for _, inst := range instances {
		views = append(views, is.view(inst))
	}
	return jsonResult(map[string]interface{}{
		"count":     len(views),
		"instances": views,
	})
}

func (is *InstanceMCPServer) getInstanceHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instanceId, err := request.RequireString("instance_id")
	if err != nil {
		return mcp.NewToolResultError("instance_id argument is required"), nil
	}
	inst, found := is.controller.Instance(instanceId)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("instance '%s' not found", instanceId)), nil
	}
	return jsonResult(is.view(inst))
}

func (is *InstanceMCPServer) actionHandler(action model.Action) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		instanceId, err := request.RequireString("instance_id")
		if err != nil {
			return mcp.NewToolResultError("instance_id argument is required"), nil
		}

		switch action {
		case model.ActionPause:
			err = is.controller.RequestPause(ctx, instanceId)
		case model.ActionResume:
			err = is.controller.RequestResume(ctx, instanceId)
		case model.ActionDelete:
			err = is.controller.RequestDelete(ctx, instanceId)
		default:
			err = errors.Errorf("unsupported action '%s'", action)
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s of instance '%s' accepted.", action, instanceId)), nil
	}
}

func (is *InstanceMCPServer) renameInstanceHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instanceId, err := request.RequireString("instance_id")
	if err != nil {
		return mcp.NewToolResultError("instance_id argument is required"), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	if err := is.controller.RequestRename(ctx, instanceId, name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Instance '%s' renamed.", instanceId)), nil
}

func (is *InstanceMCPServer) statusHandler(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	instances := is.controller.Instances()
	views := make([]instanceView, 0, len(instances))
	for _, inst := range instances {
		views = append(views, is.view(inst))
	}

	status := map[string]interface{}{
		"loaded":    is.controller.Loaded(),
		"count":     len(views),
		"instances": views,
	}
	if loadError := is.controller.LoadError(); loadError != "" {
		status["load_error"] = loadError
	}
	if payload, found := is.controller.LastError(); found {
		status["last_error"] = payload
	}

	data, err := json.Marshal(status)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode status")
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      statusUri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode result")
	}
	return mcp.NewToolResultText(string(data)), nil
}
