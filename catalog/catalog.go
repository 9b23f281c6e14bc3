package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/signalsfoundry/colortrace/core"
)

// ErrGraphNotFound reports a lookup for a map name the catalog does not hold.
var ErrGraphNotFound = errors.New("graph not found")

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventGraphAdded EventType = iota
	EventGraphReplaced
	EventGraphRemoved
)

func (t EventType) String() string {
	switch t {
	case EventGraphAdded:
		return "added"
	case EventGraphReplaced:
		return "replaced"
	case EventGraphRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers when a named graph changes. Graph is nil
// for removals.
type Event struct {
	Type  EventType
	Name  string
	Graph *core.RegionGraph
}

// Catalog is an in-memory, thread-safe registry of named region graphs.
// Graphs are immutable, so editing a map means replacing its entry with a
// new instance.
type Catalog struct {
	mu sync.RWMutex

	graphs map[string]*core.RegionGraph

	subs    map[int]func(Event)
	nextSub int
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		graphs: make(map[string]*core.RegionGraph),
		subs:   make(map[int]func(Event)),
	}
}

// Add registers a graph under its name. It returns an error if the name is
// empty or already taken.
func (c *Catalog) Add(g *core.RegionGraph) error {
	name, err := graphName(g)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if _, exists := c.graphs[name]; exists {
		c.mu.Unlock()
		return fmt.Errorf("graph %q already exists", name)
	}
	c.graphs[name] = g
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Type: EventGraphAdded, Name: name, Graph: g})
	return nil
}

// Put registers g under its name, replacing any previous instance.
func (c *Catalog) Put(g *core.RegionGraph) error {
	name, err := graphName(g)
	if err != nil {
		return err
	}

	c.mu.Lock()
	typ := EventGraphAdded
	if _, exists := c.graphs[name]; exists {
		typ = EventGraphReplaced
	}
	c.graphs[name] = g
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Type: typ, Name: name, Graph: g})
	return nil
}

// Get returns the graph registered under name.
func (c *Catalog) Get(name string) (*core.RegionGraph, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g, ok := c.graphs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrGraphNotFound, name)
	}
	return g, nil
}

// Names returns the registered map names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]string, 0, len(c.graphs))
	for name := range c.graphs {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// Remove deletes the graph registered under name.
func (c *Catalog) Remove(name string) error {
	c.mu.Lock()
	if _, ok := c.graphs[name]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrGraphNotFound, name)
	}
	delete(c.graphs, name)
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Type: EventGraphRemoved, Name: name})
	return nil
}

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function that is safe to call more than once.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Catalog) subscribersLocked() []func(Event) {
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, c.subs[id])
	}
	return subs
}

// notify runs outside the lock so subscribers may call back into the catalog.
func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}

func graphName(g *core.RegionGraph) (string, error) {
	if g == nil {
		return "", errors.New("graph is nil")
	}
	name := strings.TrimSpace(g.Name())
	if name == "" {
		return "", errors.New("graph name is required")
	}
	return name, nil
}
