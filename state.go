package stash

// State represents the current state of a store's change watcher.
type State int32

const (
	// StateIdle indicates the watcher is subscribed and waiting for
	// file-change notifications.
	StateIdle State = iota

	// StatePending indicates a notification arrived and the watcher is
	// debouncing before checking whether the change was external.
	StatePending

	// StateReconciling indicates an external edit was detected and the
	// on-disk snapshot is being merged into the live root.
	StateReconciling
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}
