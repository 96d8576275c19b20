package mapview

import (
	"sort"
	"sync"
)

// DefaultContainer is the element id the served map page renders into.
const DefaultContainer = "map"

// Surface is the display environment a view is bound to.
type Surface interface {
	HasContainer(name string) bool
}

// Containers is a Surface backed by a fixed set of container names.
type Containers struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// NewContainers returns a surface exposing the given containers.
func NewContainers(names ...string) *Containers {
	c := &Containers{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		c.names[n] = struct{}{}
	}
	return c
}

// Add registers another container.
func (c *Containers) Add(name string) {
	c.mu.Lock()
	c.names[name] = struct{}{}
	c.mu.Unlock()
}

func (c *Containers) HasContainer(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.names[name]
	return ok
}

// Names lists the registered containers in sorted order.
func (c *Containers) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.names))
	for n := range c.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
