// Package errors provides the diagnostic side-channel for the assembly
// engine. Non-fatal conditions (unregistered types, unknown ids, dropped
// instructions, rule predicate panics) are recorded here instead of being
// raised as hard failures.
package errors

import (
	"fmt"
	"sync"
	"time"
)

// DiagnosticKind classifies a recoverable assembly condition.
type DiagnosticKind string

const (
	KindUnregisteredType   DiagnosticKind = "unregistered_type"
	KindUnknownID          DiagnosticKind = "unknown_id"
	KindUnknownAction      DiagnosticKind = "unknown_action"
	KindRulePanic          DiagnosticKind = "rule_panic"
	KindDegradedCompletion DiagnosticKind = "degraded_completion"
	KindInvalidTransition  DiagnosticKind = "invalid_transition"
)

// Severity represents the severity of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// AssemblyDiagnostic records one recoverable condition observed while
// applying an instruction or evaluating a rule.
type AssemblyDiagnostic struct {
	Kind        DiagnosticKind
	ComponentID string
	Component   string // component type name, when known
	Op          string // instruction action or rule id
	Message     string
	Severity    Severity
	Timestamp   time.Time
}

// Error implements the error interface.
func (d *AssemblyDiagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s: %s", d.Severity, d.Kind, d.Op, d.Message)
}

// Collector collects diagnostics and general errors from the engine and
// mapper. All methods are safe for concurrent use.
type Collector struct {
	diagnostics []AssemblyDiagnostic
	errors      []error
	mutex       sync.RWMutex
}

// NewCollector creates a new diagnostic collector.
func NewCollector() *Collector {
	return &Collector{
		diagnostics: make([]AssemblyDiagnostic, 0),
		errors:      make([]error, 0),
	}
}

// Add records a diagnostic, stamping it with the current time.
func (c *Collector) Add(d AssemblyDiagnostic) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	d.Timestamp = time.Now()
	c.diagnostics = append(c.diagnostics, d)
}

// AddError records a general error. Nil errors are ignored.
func (c *Collector) AddError(err error) {
	if err == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errors = append(c.errors, err)
}

// Diagnostics returns a copy of all collected diagnostics.
func (c *Collector) Diagnostics() []AssemblyDiagnostic {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]AssemblyDiagnostic, len(c.diagnostics))
	copy(result, c.diagnostics)
	return result
}

// AllErrors returns all collected diagnostics and general errors together.
func (c *Collector) AllErrors() []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	all := make([]error, 0, len(c.diagnostics)+len(c.errors))
	for i := range c.diagnostics {
		d := c.diagnostics[i]
		all = append(all, &d)
	}
	all = append(all, c.errors...)
	return all
}

// HasDiagnostics returns true if anything has been recorded.
func (c *Collector) HasDiagnostics() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.diagnostics) > 0 || len(c.errors) > 0
}

// Clear drops all recorded diagnostics and errors.
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.diagnostics = c.diagnostics[:0]
	c.errors = c.errors[:0]
}

// ByKind returns diagnostics of a specific kind.
func (c *Collector) ByKind(kind DiagnosticKind) []AssemblyDiagnostic {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var matched []AssemblyDiagnostic
	for _, d := range c.diagnostics {
		if d.Kind == kind {
			matched = append(matched, d)
		}
	}
	return matched
}

// ByComponent returns diagnostics for a specific component type.
func (c *Collector) ByComponent(component string) []AssemblyDiagnostic {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var matched []AssemblyDiagnostic
	for _, d := range c.diagnostics {
		if d.Component == component {
			matched = append(matched, d)
		}
	}
	return matched
}

// Count returns the number of recorded diagnostics.
func (c *Collector) Count() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.diagnostics)
}
