// Package registry provides the component type registry: a pure name to
// renderable-capability table. The registry performs no validation of a
// capability's shape, and absence is not an error; the assembly engine treats
// an unregistered type as "render nothing, proceed".
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/a-h/templ"
)

// Capability produces a renderable component for a property bag. The core
// never inspects the visual internals, only the type name it is bound to.
type Capability func(props map[string]interface{}) templ.Component

// Metadata holds optional descriptive information about a registered type.
type Metadata struct {
	Description string
	Areas       []string
	Tags        []string
}

// binding pairs a capability with its metadata so rebinding replaces both
// atomically under one lock.
type binding struct {
	capability Capability
	metadata   Metadata
}

// EventType represents the type of registry event.
type EventType string

const (
	EventTypeRegistered EventType = "registered"
	EventTypeRebound    EventType = "rebound"
	EventTypeRemoved    EventType = "removed"
)

// Event represents a change in the component registry.
type Event struct {
	Type      EventType
	Name      string
	Timestamp time.Time
}

// ComponentRegistry maps component type names to renderable capabilities.
// Instances are explicitly constructed and injected; there is no package
// level registry.
type ComponentRegistry struct {
	bindings map[string]binding
	mutex    sync.RWMutex
	watchers []chan Event
}

// NewComponentRegistry creates an empty component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		bindings: make(map[string]binding),
		watchers: make([]chan Event, 0),
	}
}

// Register binds or rebinds a type name. Registering an existing name
// replaces the prior capability and metadata together.
func (r *ComponentRegistry) Register(name string, capability Capability, metadata Metadata) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeRegistered
	if _, exists := r.bindings[name]; exists {
		eventType = EventTypeRebound
	}

	r.bindings[name] = binding{capability: capability, metadata: metadata}

	r.notify(Event{Type: eventType, Name: name, Timestamp: time.Now()})
}

// Get retrieves the capability bound to a name.
func (r *ComponentRegistry) Get(name string) (Capability, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	b, exists := r.bindings[name]
	if !exists {
		return nil, false
	}
	return b.capability, true
}

// GetMetadata retrieves the metadata bound to a name.
func (r *ComponentRegistry) GetMetadata(name string) (Metadata, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	b, exists := r.bindings[name]
	if !exists {
		return Metadata{}, false
	}
	return b.metadata, true
}

// Has reports whether a type name is registered.
func (r *ComponentRegistry) Has(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.bindings[name]
	return exists
}

// ListNames returns all registered type names in sorted order.
func (r *ComponentRegistry) ListNames() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.bindings))
	for name := range r.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Remove removes a type name from the registry. Removing an absent name is a
// no-op.
func (r *ComponentRegistry) Remove(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.bindings[name]; !exists {
		return
	}

	delete(r.bindings, name)
	r.notify(Event{Type: EventTypeRemoved, Name: name, Timestamp: time.Now()})
}

// Count returns the number of registered type names.
func (r *ComponentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.bindings)
}

// Watch returns a channel that receives registry events.
func (r *ComponentRegistry) Watch() <-chan Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan Event, 64)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it.
func (r *ComponentRegistry) UnWatch(ch <-chan Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// notify delivers an event to all watchers. Callers must hold the mutex.
func (r *ComponentRegistry) notify(event Event) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
