package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/chunga-ict/instancectl/kernel/model"
	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

// HttpClient talks to the default and premium instance API deployments.
type HttpClient struct {
	cfg  *model.Config
	http *http.Client
}

// NewHttpClient creates a client without a request timeout; callers bound requests through
// their context.
func NewHttpClient(cfg *model.Config) *HttpClient {
	return &HttpClient{cfg: cfg, http: &http.Client{}}
}

// WithHttpClient replaces the underlying *http.Client.
func (c *HttpClient) WithHttpClient(h *http.Client) *HttpClient {
	c.http = h
	return c
}

func (c *HttpClient) List(ctx context.Context) ([]*model.Instance, error) {
	body, err := c.do(ctx, "list instances", http.MethodGet, c.endpoint(false, "users/fetch", nil), nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode instance list")
	}

	instances := make([]*model.Instance, 0, len(resp.Instances))
	for i := range resp.Instances {
		instances = append(instances, resp.Instances[i].toModel())
	}
	return instances, nil
}

// GetStatus always asks the default deployment; it tracks instances of both classes.
func (c *HttpClient) GetStatus(ctx context.Context, instanceId string) (*model.StatusSnapshot, error) {
	query := url.Values{"machine_id": {instanceId}}
	body, err := c.do(ctx, "get status", http.MethodGet, c.endpoint(false, "misc/status", query), nil)
	if err != nil {
		return nil, err
	}

	var resp statusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to decode status for instance [%s]", instanceId)
	}
	return &model.StatusSnapshot{
		InstanceId: instanceId,
		Status:     model.ParseStatus(resp.Status),
		Error:      resp.Error,
	}, nil
}

func (c *HttpClient) Action(ctx context.Context, req model.ActionRequest) error {
	framework := model.LookupFramework(req.Framework)
	query := url.Values{"machine_id": {req.InstanceId}}
	op := fmt.Sprintf("%s instance", req.Action)

	switch req.Action {
	case model.ActionPause:
		_, err := c.do(ctx, op, http.MethodPost, c.endpoint(req.Premium, framework.ActionPrefix+"/pause", query), nil)
		return err
	case model.ActionDelete:
		_, err := c.do(ctx, op, http.MethodPost, c.endpoint(req.Premium, framework.ActionPrefix+"/destroy", query), nil)
		return err
	case model.ActionResume:
		payload, err := json.Marshal(resumeRequest{MachineId: req.InstanceId})
		if err != nil {
			return errors.Wrap(err, "failed to encode resume request")
		}
		path := fmt.Sprintf("templates/%s/resume", strings.ToLower(strings.TrimSpace(req.Framework)))
		_, err = c.do(ctx, op, http.MethodPost, c.endpoint(req.Premium, path, nil), payload)
		return err
	}
	return errors.Errorf("unsupported action '%s'", req.Action)
}

func (c *HttpClient) Rename(ctx context.Context, instanceId, name string) error {
	query := url.Values{"machine_id": {instanceId}, "machine_name": {name}}
	_, err := c.do(ctx, "rename instance", http.MethodPut, c.endpoint(false, "machines/machine_name", query), nil)
	return err
}

func (c *HttpClient) endpoint(premium bool, path string, query url.Values) string {
	u := strings.TrimRight(c.cfg.BaseUrlFor(premium), "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *HttpClient) do(ctx context.Context, op, method, u string, payload []byte) ([]byte, error) {
	log := pfxlog.Logger().WithField("op", op).WithField("url", u)

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build %s request", op)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Api.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Api.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Url: u, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Url: u, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debugf("status %d", resp.StatusCode)
		return nil, &ActionRejectedError{Op: op, StatusCode: resp.StatusCode, Detail: errorDetail(body)}
	}
	log.Debugf("status %d, %d bytes", resp.StatusCode, len(body))
	return body, nil
}
