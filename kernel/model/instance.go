package model

import (
	"strings"
)

// Instance is the last-known record of a remote compute instance. Fields the backend may omit are
// pointers. Records are replaced on every refresh; callers copy before changing a field.
type Instance struct {
	Id          string  `json:"id"`
	Name        string  `json:"name"`
	Framework   string  `json:"framework"`
	FrameworkId *string `json:"framework_id,omitempty"`
	Status      Status  `json:"status"`
	Cost        float64 `json:"cost"`
	Duration    *string `json:"duration,omitempty"`
	Frequency   *string `json:"frequency,omitempty"`
	Version     *string `json:"version,omitempty"`
	UserId      string  `json:"user_id"`

	Hdd        int      `json:"hdd"`
	DiskType   *string  `json:"disk_type,omitempty"`
	VSize      *float64 `json:"v_size,omitempty"`
	GpuType    string   `json:"gpu_type"`
	NumGpus    int      `json:"num_gpus"`
	Ram        *int     `json:"ram,omitempty"`
	Cores      *int     `json:"cores,omitempty"`
	IsReserved bool     `json:"is_reserved"`

	Url       *string  `json:"url,omitempty"`
	VsUrl     *string  `json:"vs_url,omitempty"`
	SshStr    *string  `json:"ssh_str,omitempty"`
	Endpoints []string `json:"endpoints,omitempty"`
}

// Copy returns a copy that shares no slices with the receiver.
func (i *Instance) Copy() *Instance {
	c := *i
	if i.Endpoints != nil {
		c.Endpoints = append([]string(nil), i.Endpoints...)
	}
	return &c
}

// FrameworkTraits returns the registry entry for the instance's framework.
func (i *Instance) FrameworkTraits() Framework {
	return LookupFramework(i.Framework)
}

// IsVM reports whether the instance is a bare virtual machine rather than a template.
func (i *Instance) IsVM() bool {
	return NormalizeFramework(i.Framework) == FrameworkVM
}

// DefaultName is the name an instance reverts to when a user clears it.
func (i *Instance) DefaultName() string {
	return i.Framework
}

// GpuLabel is the GPU type as users know it.
func (i *Instance) GpuLabel() string {
	if i.FrameworkTraits().CoarseGpuLabel {
		if strings.EqualFold(i.GpuType, "CPU") {
			return "CPU"
		}
		return "GPU"
	}
	if i.GpuType == "A5000Pro" {
		return "A5000"
	}
	return i.GpuType
}

// IsTeamInstance reports whether the instance belongs to someone other than userId.
func (i *Instance) IsTeamInstance(userId string) bool {
	return userId != "" && i.UserId != userId
}
