// Package animation provides executors for the assembly engine's scheduled
// animation waits. The engine treats an animation as settled when the
// executor returns; interpolation details stay on the rendering surface, so
// the executors here model timing only.
package animation

import (
	"context"
	"time"

	"github.com/conneroisu/weave/internal/types"
)

// EnterInstant is the enter mode that skips interpolation entirely.
const EnterInstant = "instant"

// TimedExecutor resolves each animation after its configured delay plus
// duration, mirroring the timing contract a real rendering surface would
// honor. It is context-aware: cancellation settles the wait early with the
// context's error.
type TimedExecutor struct{}

// NewTimedExecutor creates a timing-faithful executor.
func NewTimedExecutor() *TimedExecutor {
	return &TimedExecutor{}
}

// Enter waits for the component's stagger delay plus the enter duration.
// The "instant" enter mode waits for the delay only.
func (x *TimedExecutor) Enter(ctx context.Context, _ string, delay float64, animation types.AnimationConfig) error {
	wait := seconds(delay)
	if animation.Enter != EnterInstant {
		wait += seconds(animation.Duration)
	}
	return sleep(ctx, wait)
}

// Exit waits for the exit duration.
func (x *TimedExecutor) Exit(ctx context.Context, _ string, animation types.AnimationConfig) error {
	if animation.Exit == EnterInstant {
		return nil
	}
	return sleep(ctx, seconds(animation.Duration))
}

// Relayout waits for one set-level layout-change animation.
func (x *TimedExecutor) Relayout(ctx context.Context, _ string, animation types.AnimationConfig) error {
	return sleep(ctx, seconds(animation.Duration))
}

// InstantExecutor settles every animation immediately. It backs tests and
// headless deployments where no rendering surface is attached.
type InstantExecutor struct{}

// NewInstantExecutor creates an executor that never waits.
func NewInstantExecutor() *InstantExecutor {
	return &InstantExecutor{}
}

func (x *InstantExecutor) Enter(context.Context, string, float64, types.AnimationConfig) error {
	return nil
}

func (x *InstantExecutor) Exit(context.Context, string, types.AnimationConfig) error {
	return nil
}

func (x *InstantExecutor) Relayout(context.Context, string, types.AnimationConfig) error {
	return nil
}

func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
