// Package assembly owns the active component state machine. The engine
// applies instructions, coordinates animation waits, and notifies
// subscribers with a fresh state snapshot after every applied instruction.
//
// Concurrency model: exactly one instruction is processed at a time, but
// within one instruction all per-component enter/exit animation waits run
// concurrently and the operation suspends at a fan-in barrier until all have
// settled. The active-component map is exclusively owned and mutated here;
// the layout engine and intent mapper only ever receive read-only snapshots.
package assembly

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/conneroisu/weave/internal/errors"
	"github.com/conneroisu/weave/internal/layout"
	"github.com/conneroisu/weave/internal/logging"
	"github.com/conneroisu/weave/internal/registry"
	"github.com/conneroisu/weave/internal/types"
)

// DefaultAnimationDeadline bounds how long the engine waits for one
// scheduled animation before force-transitioning the component to its target
// state and logging a degraded completion.
const DefaultAnimationDeadline = 10 * time.Second

// AnimationExecutor performs the actual visual interpolation. The engine
// only schedules these calls and awaits their completion.
type AnimationExecutor interface {
	Enter(ctx context.Context, id string, delay float64, animation types.AnimationConfig) error
	Exit(ctx context.Context, id string, animation types.AnimationConfig) error
	Relayout(ctx context.Context, layoutKey string, animation types.AnimationConfig) error
}

// Subscriber receives a state snapshot after every applied instruction.
type Subscriber func(state types.AssemblyState)

// Config carries the engine's injected collaborators.
type Config struct {
	Registry          *registry.ComponentRegistry
	Layout            *layout.Engine
	Executor          AnimationExecutor
	Logger            logging.Logger
	Collector         *errors.Collector
	AnimationDeadline time.Duration
	DefaultLayout     string
}

// Engine applies assembly instructions to the active component set.
//
// Callers must serialize Apply calls: apply, await completion, then apply
// the next instruction. The applyMutex guards against accidental
// interleaving, but the ordering of concurrent un-awaited calls is undefined
// by contract.
type Engine struct {
	registry *registry.ComponentRegistry
	layout   *layout.Engine
	executor AnimationExecutor

	logger    logging.Logger
	collector *errors.Collector
	deadline  time.Duration

	applyMutex sync.Mutex

	stateMutex sync.RWMutex
	active     map[string]*types.ComponentState
	order      []string
	layoutKey  string

	subMutex    sync.RWMutex
	subscribers []Subscriber
}

// New creates an assembly engine with an empty active set.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger(nil)
	}
	collector := cfg.Collector
	if collector == nil {
		collector = errors.NewCollector()
	}
	deadline := cfg.AnimationDeadline
	if deadline <= 0 {
		deadline = DefaultAnimationDeadline
	}
	layoutKey := cfg.DefaultLayout
	if layoutKey == "" {
		layoutKey = layout.KeyDefault
	}
	return &Engine{
		registry:  cfg.Registry,
		layout:    cfg.Layout,
		executor:  cfg.Executor,
		logger:    logger.WithComponent("assembly"),
		collector: collector,
		deadline:  deadline,
		active:    make(map[string]*types.ComponentState),
		order:     make([]string, 0),
		layoutKey: layoutKey,
	}
}

// Subscribe registers an observer for state snapshots. All registered
// subscribers receive every notification.
func (e *Engine) Subscribe(fn Subscriber) {
	e.subMutex.Lock()
	defer e.subMutex.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

// Apply processes one instruction against the active set, blocking until
// every animation scheduled for the batch has settled.
//
// Unregistered types, unknown ids, and unknown actions are non-fatal: they
// are skipped or ignored and reported through the diagnostic collector. An
// animation executor failure is fatal for this one instruction only and is
// returned to the caller; components that had already settled keep whatever
// state they reached.
func (e *Engine) Apply(ctx context.Context, instruction types.Instruction) error {
	e.applyMutex.Lock()
	defer e.applyMutex.Unlock()

	var err error
	switch instruction.Action {
	case types.ActionAdd:
		err = e.applyAdd(ctx, instruction)
	case types.ActionRemove:
		err = e.applyRemove(ctx, instruction)
	case types.ActionUpdate:
		e.applyUpdate(ctx, instruction)
	case types.ActionReorganize:
		err = e.applyReorganize(ctx, instruction)
	default:
		e.collector.Add(errors.AssemblyDiagnostic{
			Kind:     errors.KindUnknownAction,
			Op:       string(instruction.Action),
			Message:  "instruction dropped",
			Severity: errors.SeverityWarning,
		})
		e.logger.Warn(ctx, nil, "dropping instruction with unknown action",
			"action", string(instruction.Action))
		return nil
	}

	e.notify()
	return err
}

// applyAdd inserts accepted instances as Pending, transitions them to
// Mounting, and schedules all enter animations concurrently. The operation
// completes only once every scheduled animation for the batch has resolved.
func (e *Engine) applyAdd(ctx context.Context, instruction types.Instruction) error {
	animation := animationOf(instruction)

	type pending struct {
		id    string
		delay float64
	}
	accepted := make([]pending, 0, len(instruction.Components))

	e.stateMutex.Lock()
	for _, instance := range instruction.Components {
		if e.registry != nil && !e.registry.Has(instance.Type) {
			e.collector.Add(errors.AssemblyDiagnostic{
				Kind:        errors.KindUnregisteredType,
				ComponentID: instance.ID,
				Component:   instance.Type,
				Op:          string(types.ActionAdd),
				Message:     "component type not registered, skipping",
				Severity:    errors.SeverityWarning,
			})
			e.logger.Warn(ctx, nil, "skipping unregistered component type",
				"type", instance.Type, "id", instance.ID)
			continue
		}
		if _, exists := e.active[instance.ID]; exists {
			// Inserting would violate id uniqueness in the active set
			e.collector.Add(errors.AssemblyDiagnostic{
				Kind:        errors.KindUnknownID,
				ComponentID: instance.ID,
				Component:   instance.Type,
				Op:          string(types.ActionAdd),
				Message:     "duplicate component id, skipping",
				Severity:    errors.SeverityWarning,
			})
			continue
		}
		e.active[instance.ID] = &types.ComponentState{
			ComponentInstance: instance,
			Status:            types.StatePending,
		}
		e.order = append(e.order, instance.ID)
		accepted = append(accepted, pending{id: instance.ID, delay: instance.AnimationDelay})
	}
	// An add instruction carrying a layout key overrides the current one, so
	// snapshots reflect the layout the decision process chose for this set
	if instruction.Layout != "" {
		e.layoutKey = instruction.Layout
	}
	e.stateMutex.Unlock()

	results := make(chan error, len(accepted))
	for _, p := range accepted {
		e.transition(ctx, p.id, types.StateMounting)
		go func(p pending) {
			err := e.awaitBounded(ctx, "enter", p.id, func(waitCtx context.Context) error {
				return e.executor.Enter(waitCtx, p.id, p.delay, animation)
			})
			if err == nil {
				e.transition(ctx, p.id, types.StateMounted)
			}
			results <- err
		}(p)
	}

	return e.collectResults(results, len(accepted))
}

// applyRemove transitions present ids to Unmounting and schedules all exit
// animations concurrently. Ids absent from the active set are silently
// ignored. Ids the state machine refuses to unmount (for example a component
// still stuck in Mounting after a failed enter) stay in the active set; the
// refusal is already on the diagnostic record.
func (e *Engine) applyRemove(ctx context.Context, instruction types.Instruction) error {
	animation := animationOf(instruction)

	present := make([]string, 0, len(instruction.ComponentIDs))
	for _, id := range instruction.ComponentIDs {
		e.stateMutex.RLock()
		_, exists := e.active[id]
		e.stateMutex.RUnlock()
		if !exists {
			continue
		}
		if !e.transition(ctx, id, types.StateUnmounting) {
			continue
		}
		present = append(present, id)
	}

	results := make(chan error, len(present))
	for _, id := range present {
		go func(id string) {
			err := e.awaitBounded(ctx, "exit", id, func(waitCtx context.Context) error {
				return e.executor.Exit(waitCtx, id, animation)
			})
			if err == nil {
				e.delete(id)
			}
			results <- err
		}(id)
	}

	return e.collectResults(results, len(present))
}

// applyUpdate shallow-merges props and partially merges position fields.
// The Mounted to Updating to Mounted round trip is instantaneous; there is
// no animation wait. Absent ids are ignored.
func (e *Engine) applyUpdate(_ context.Context, instruction types.Instruction) {
	e.stateMutex.Lock()
	defer e.stateMutex.Unlock()

	for _, update := range instruction.Updates {
		state, exists := e.active[update.ID]
		if !exists {
			continue
		}

		wasMounted := state.Status == types.StateMounted
		if wasMounted {
			state.Status = types.StateUpdating
		}

		if len(update.Props) > 0 {
			if state.Props == nil {
				state.Props = make(map[string]interface{}, len(update.Props))
			}
			for k, v := range update.Props {
				state.Props[k] = v
			}
		}
		if patch := update.Position; patch != nil {
			if patch.Area != nil {
				state.Position.Area = *patch.Area
			}
			if patch.Order != nil {
				state.Position.Order = *patch.Order
			}
			if patch.Width != nil {
				state.Position.Width = *patch.Width
			}
			if patch.GridColumn != nil {
				state.Position.GridColumn = *patch.GridColumn
			}
			if patch.GridRow != nil {
				state.Position.GridRow = *patch.GridRow
			}
		}

		if wasMounted {
			state.Status = types.StateMounted
		}
	}
}

// applyReorganize recomputes every component's position wholesale through
// the layout engine, then awaits a single layout-change animation for the
// whole set.
func (e *Engine) applyReorganize(ctx context.Context, instruction types.Instruction) error {
	key := instruction.Layout
	if key == "" {
		key = e.LayoutKey()
	}

	e.stateMutex.RLock()
	components := make([]types.ComponentState, 0, len(e.order))
	for _, id := range e.order {
		if state, exists := e.active[id]; exists {
			components = append(components, *state)
		}
	}
	e.stateMutex.RUnlock()

	positions := e.layout.ComputePositions(components, key)

	e.stateMutex.Lock()
	for id, position := range positions {
		if state, exists := e.active[id]; exists {
			state.Position = position
		}
	}
	e.layoutKey = key
	e.stateMutex.Unlock()

	animation := animationOf(instruction)
	return e.awaitBounded(ctx, "relayout", key, func(waitCtx context.Context) error {
		return e.executor.Relayout(waitCtx, key, animation)
	})
}

// awaitBounded runs one scheduled animation and waits for it to settle, up
// to the configured deadline. On timeout the wait is abandoned, a degraded
// completion is recorded, and the caller proceeds as if the animation had
// resolved, so the component is force-transitioned to its target state.
func (e *Engine) awaitBounded(ctx context.Context, op, subject string, fn func(context.Context) error) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(waitCtx)
	}()

	timer := time.NewTimer(e.deadline)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		e.collector.Add(errors.AssemblyDiagnostic{
			Kind:        errors.KindDegradedCompletion,
			ComponentID: subject,
			Op:          op,
			Message:     "animation wait exceeded deadline, forcing target state",
			Severity:    errors.SeverityWarning,
		})
		e.logger.Warn(ctx, nil, "animation wait exceeded deadline",
			"op", op, "subject", subject, "deadline", e.deadline.String())
		return nil
	}
}

// collectResults is the fan-in barrier: it drains one result per scheduled
// animation and joins any failures for the caller.
func (e *Engine) collectResults(results chan error, count int) error {
	var errs []error
	for i := 0; i < count; i++ {
		if err := <-results; err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// transition moves a component along the lifecycle state machine. A refused
// edge records a diagnostic, leaves the status untouched, and returns false
// so callers can back out of the operation that wanted the edge.
func (e *Engine) transition(ctx context.Context, id string, to types.LifecycleState) bool {
	e.stateMutex.Lock()
	defer e.stateMutex.Unlock()

	state, exists := e.active[id]
	if !exists {
		return false
	}
	if !canTransition(state.Status, to) {
		e.collector.Add(errors.AssemblyDiagnostic{
			Kind:        errors.KindInvalidTransition,
			ComponentID: id,
			Component:   state.Type,
			Op:          string(state.Status) + "->" + string(to),
			Message:     "lifecycle transition not allowed",
			Severity:    errors.SeverityError,
		})
		e.logger.Error(ctx, nil, "lifecycle transition not allowed",
			"id", id, "from", string(state.Status), "to", string(to))
		return false
	}
	state.Status = to
	if to == types.StateMounted && state.MountedAt == 0 {
		state.MountedAt = time.Now().UnixMilli()
	}
	return true
}

// delete removes an id from the active set after its exit animation has
// settled. Removed is terminal; nothing is retained.
func (e *Engine) delete(id string) {
	e.stateMutex.Lock()
	defer e.stateMutex.Unlock()

	if _, exists := e.active[id]; !exists {
		return
	}
	delete(e.active, id)
	for i, existing := range e.order {
		if existing == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Snapshot returns the current assembly state. Components appear in the
// order they were added; props are copied so subscribers can never mutate
// engine-owned state.
func (e *Engine) Snapshot() types.AssemblyState {
	e.stateMutex.RLock()
	defer e.stateMutex.RUnlock()

	components := make([]types.ComponentState, 0, len(e.order))
	for _, id := range e.order {
		state, exists := e.active[id]
		if !exists {
			continue
		}
		copied := *state
		if state.Props != nil {
			copied.Props = make(map[string]interface{}, len(state.Props))
			for k, v := range state.Props {
				copied.Props[k] = v
			}
		}
		components = append(components, copied)
	}

	return types.AssemblyState{
		Components: components,
		Layout:     e.layoutKey,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// ActiveCount returns the number of components in the active set.
func (e *Engine) ActiveCount() int {
	e.stateMutex.RLock()
	defer e.stateMutex.RUnlock()
	return len(e.active)
}

// LayoutKey returns the engine's current layout key.
func (e *Engine) LayoutKey() string {
	e.stateMutex.RLock()
	defer e.stateMutex.RUnlock()
	return e.layoutKey
}

// notify emits exactly one state-change notification carrying a fresh
// snapshot to all current subscribers.
func (e *Engine) notify() {
	snapshot := e.Snapshot()

	e.subMutex.RLock()
	subscribers := make([]Subscriber, len(e.subscribers))
	copy(subscribers, e.subscribers)
	e.subMutex.RUnlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// animationOf returns the instruction's animation config, or a zero config
// when none was carried.
func animationOf(instruction types.Instruction) types.AnimationConfig {
	if instruction.Animation != nil {
		return *instruction.Animation
	}
	return types.AnimationConfig{}
}
