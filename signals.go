package stash

import "github.com/zoobzio/capitan"

// Watcher lifecycle signals.
var (
	// WatcherStarted is emitted when a store begins watching its file.
	WatcherStarted = capitan.NewSignal(
		"stash.watcher.started",
		"External change watching started",
	)

	// WatcherStopped is emitted when a store stops watching its file.
	WatcherStopped = capitan.NewSignal(
		"stash.watcher.stopped",
		"External change watching stopped",
	)

	// WatcherStateChanged is emitted when the watcher transitions between states.
	WatcherStateChanged = capitan.NewSignal(
		"stash.watcher.state.changed",
		"Watcher state transition",
	)
)

// Change processing signals.
var (
	// ChangeDetected is emitted when a raw file-change notification arrives.
	ChangeDetected = capitan.NewSignal(
		"stash.change.detected",
		"Raw change notification received",
	)

	// ChangeSelfCaused is emitted when a debounced change matches the store's
	// own last write and reconciliation is skipped.
	ChangeSelfCaused = capitan.NewSignal(
		"stash.change.self",
		"Change matched last self-initiated write",
	)

	// ReconcileSucceeded is emitted when an external edit is merged into the
	// live root.
	ReconcileSucceeded = capitan.NewSignal(
		"stash.reconcile.succeeded",
		"External edit merged into live root",
	)

	// ReconcileFailed is emitted when reading or merging an external edit fails.
	ReconcileFailed = capitan.NewSignal(
		"stash.reconcile.failed",
		"External edit could not be merged",
	)
)

// Persistence signals.
var (
	// StoreMigrated is emitted when a legacy plaintext file is re-encrypted.
	StoreMigrated = capitan.NewSignal(
		"stash.store.migrated",
		"Legacy plaintext store re-encrypted",
	)
)
