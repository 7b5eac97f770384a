package stash

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// watcher detects edits to the backing file made by anything other than its
// own store and drives reconciliation. It cycles idle → pending →
// reconciling → idle: notifications start a debounce timer, timer expiry
// compares modification timestamps, and only a timestamp the store did not
// produce itself triggers a read and merge.
type watcher struct {
	store    *Store
	notifier Notifier
	debounce time.Duration
	clock    clockz.Clock
	onError  func(error)

	state atomic.Int32
	done  chan struct{}
}

func newWatcher(s *Store, n Notifier, debounce time.Duration, clock clockz.Clock, onError func(error)) *watcher {
	w := &watcher{
		store:    s,
		notifier: n,
		debounce: debounce,
		clock:    clock,
		onError:  onError,
		done:     make(chan struct{}),
	}
	w.state.Store(int32(StateIdle))
	return w
}

// State returns the watcher's current state.
func (w *watcher) State() State {
	return State(w.state.Load())
}

// start subscribes to change notifications and launches the watch loop.
func (w *watcher) start(ctx context.Context) error {
	events, err := w.notifier.Notify(ctx)
	if err != nil {
		return fmt.Errorf("failed to start notifier: %w", err)
	}

	capitan.Emit(ctx, WatcherStarted,
		KeyPath.Field(w.store.path),
		KeyDebounce.Field(w.debounce),
	)

	go w.watch(ctx, events)
	return nil
}

// watch coalesces notification bursts with a debounce timer and checks the
// file once per quiet period. It never runs concurrently with itself; a new
// notification restarts rather than overlaps the timer.
func (w *watcher) watch(ctx context.Context, events <-chan struct{}) {
	defer close(w.done)
	defer func() {
		capitan.Emit(ctx, WatcherStopped,
			KeyPath.Field(w.store.path),
			KeyState.Field(w.State().String()),
		)
	}()

	var timer clockz.Timer

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case _, ok := <-events:
			if !ok {
				return
			}

			capitan.Emit(ctx, ChangeDetected,
				KeyPath.Field(w.store.path),
			)
			w.transition(ctx, StatePending)

			if timer == nil {
				timer = w.clock.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			w.check(ctx)
		}
	}
}

// check runs once per debounced notification burst: a timestamp equal to
// the store's last self-initiated write means the change was self-caused or
// a no-op, anything else is an external edit to merge.
func (w *watcher) check(ctx context.Context) {
	modTime, err := w.store.persistor.ModTime()
	if err != nil {
		w.fail(ctx, err)
		return
	}

	if last := w.store.lastMod.Load(); last != nil && modTime.Equal(*last) {
		capitan.Emit(ctx, ChangeSelfCaused,
			KeyPath.Field(w.store.path),
		)
		w.transition(ctx, StateIdle)
		return
	}

	w.transition(ctx, StateReconciling)

	snapshot, err := w.store.persistor.Read()
	if err != nil {
		w.fail(ctx, err)
		return
	}

	w.store.applySnapshot(snapshot)
	w.store.lastMod.Store(&modTime)

	capitan.Emit(ctx, ReconcileSucceeded,
		KeyPath.Field(w.store.path),
	)
	w.transition(ctx, StateIdle)
}

// fail reports an asynchronous error through the side channel and returns
// the watcher to idle so watching continues. There is no caller to surface
// the error to on this path.
func (w *watcher) fail(ctx context.Context, err error) {
	capitan.Emit(ctx, ReconcileFailed,
		KeyPath.Field(w.store.path),
		KeyError.Field(err.Error()),
	)
	if w.onError != nil {
		w.onError(err)
	}
	w.transition(ctx, StateIdle)
}

// transition updates the state and emits a state change event if changed.
func (w *watcher) transition(ctx context.Context, newState State) {
	oldState := State(w.state.Swap(int32(newState)))
	if oldState == newState {
		return
	}
	capitan.Emit(ctx, WatcherStateChanged,
		KeyOldState.Field(oldState.String()),
		KeyNewState.Field(newState.String()),
	)
}
