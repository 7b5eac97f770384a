package stash

import "github.com/zoobzio/capitan"

// Field keys for store events.
var (
	// KeyPath is the backing file path.
	KeyPath = capitan.NewStringKey("path")

	// KeyState is the current state of the watcher.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyDebounce is the configured debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")
)
