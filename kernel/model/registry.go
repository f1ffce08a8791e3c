package model

import (
	"fmt"
	"strings"
	"sync"
)

// Framework describes how a template family is addressed on the backend and labelled locally.
type Framework struct {
	Name string
	// ActionPrefix is the route segment pause and destroy requests are posted under.
	ActionPrefix string
	// CoarseGpuLabel collapses GPU types into "CPU" or "GPU".
	CoarseGpuLabel bool
}

const (
	FrameworkVM      = "vm"
	FrameworkUpgrad  = "upgrad"
	FrameworkPytorch = "pytorch"

	upgradPrefix       = "u_"
	defaultRoutePrefix = "misc"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Framework)
)

// RegisterFramework registers routing and labelling traits for a framework name.
// e.g. RegisterFramework(Framework{Name: "vm", ActionPrefix: "templates/vm"})
func RegisterFramework(framework Framework) {
	registryMu.Lock()
	defer registryMu.Unlock()
	key := strings.ToLower(framework.Name)
	if _, dup := registry[key]; dup {
		panic("RegisterFramework called twice for " + framework.Name)
	}
	registry[key] = framework
}

// GetFramework returns the registered traits for a framework name.
func GetFramework(name string) (Framework, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	framework, ok := registry[NormalizeFramework(name)]
	if !ok {
		return Framework{}, fmt.Errorf("framework '%s' not found in registry", name)
	}
	return framework, nil
}

// LookupFramework is GetFramework with a generic fallback for frameworks nobody registered.
func LookupFramework(name string) Framework {
	if framework, err := GetFramework(name); err == nil {
		return framework
	}
	return Framework{Name: NormalizeFramework(name), ActionPrefix: defaultRoutePrefix}
}

// NormalizeFramework lowercases the name and folds the "u_" family onto upgrad.
func NormalizeFramework(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(lower, upgradPrefix) {
		return FrameworkUpgrad
	}
	return lower
}

func init() {
	RegisterFramework(Framework{Name: FrameworkVM, ActionPrefix: "templates/vm"})
	RegisterFramework(Framework{Name: FrameworkUpgrad, ActionPrefix: defaultRoutePrefix, CoarseGpuLabel: true})
	RegisterFramework(Framework{Name: FrameworkPytorch, ActionPrefix: defaultRoutePrefix})
}
