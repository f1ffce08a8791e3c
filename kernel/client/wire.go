package client

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/chunga-ict/instancectl/kernel/model"
)

// flexString accepts both JSON strings and numbers; machine ids arrive as either.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(data))
	return nil
}

// flexBool accepts true/false, 0/1 and their string forms.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(s) {
	case "", "null", "0", "false":
		*f = false
	default:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			*f = n != 0
			return nil
		}
		*f = true
	}
	return nil
}

type listResponse struct {
	Instances []instanceJson `json:"instances"`
}

type instanceJson struct {
	MachineId   flexString  `json:"machine_id"`
	Name        string      `json:"instance_name"`
	Status      string      `json:"status"`
	Hdd         *float64    `json:"hdd"`
	Cost        *float64    `json:"cost"`
	Duration    *string     `json:"duration"`
	GpuType     string      `json:"gpu_type"`
	Ram         *float64    `json:"ram"`
	Cores       *float64    `json:"cores"`
	NumGpus     *float64    `json:"num_gpus"`
	Url         *string     `json:"url"`
	Version     *flexString `json:"version"`
	Framework   string      `json:"framework"`
	SshStr      *string     `json:"ssh_str"`
	VSize       *float64    `json:"v_size"`
	Endpoints   []string    `json:"endpoints"`
	FrameworkId *flexString `json:"framework_id"`
	Frequency   *string     `json:"frequency"`
	IsReserved  flexBool    `json:"is_reserved"`
	VsUrl       *string     `json:"vs_url"`
	UserId      string      `json:"user_id"`
	DiskType    *string     `json:"disk_type"`
}

func (j *instanceJson) toModel() *model.Instance {
	return &model.Instance{
		Id:          string(j.MachineId),
		Name:        j.Name,
		Framework:   j.Framework,
		FrameworkId: optString(j.FrameworkId),
		Status:      model.ParseStatus(j.Status),
		Cost:        floatOr(j.Cost),
		Duration:    j.Duration,
		Frequency:   j.Frequency,
		Version:     optString(j.Version),
		UserId:      j.UserId,
		Hdd:         int(floatOr(j.Hdd)),
		DiskType:    j.DiskType,
		VSize:       j.VSize,
		GpuType:     j.GpuType,
		NumGpus:     int(floatOr(j.NumGpus)),
		Ram:         optInt(j.Ram),
		Cores:       optInt(j.Cores),
		IsReserved:  bool(j.IsReserved),
		Url:         j.Url,
		VsUrl:       j.VsUrl,
		SshStr:      j.SshStr,
		Endpoints:   j.Endpoints,
	}
}

type statusResponse struct {
	Status string  `json:"status"`
	Error  *string `json:"error"`
}

type resumeRequest struct {
	MachineId string `json:"machine_id"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}

// errorDetail pulls the backend's explanation out of a failure body.
func errorDetail(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		for _, candidate := range []string{resp.Message, resp.Error, resp.Detail} {
			if candidate != "" {
				return candidate
			}
		}
	}
	return strings.TrimSpace(string(body))
}

func optString(f *flexString) *string {
	if f == nil || *f == "" {
		return nil
	}
	s := string(*f)
	return &s
}

func optInt(f *float64) *int {
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

func floatOr(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
