package stash

// reconcile makes live structurally equal to snapshot, in place, preserving
// the identity of every mapping whose shape did not change so references
// held by the caller keep observing current values.
//
// It runs as two depth-first passes: apply adds and overwrites keys present
// in the snapshot, then prune removes keys absent from it. Apply runs first
// so values reachable only via a restructured path exist before stale
// siblings are removed, and so no value is ever transiently missing.
//
// reconcile operates on the raw node tree, never through Object or Array
// views, so merge writes cannot fire the persistence trigger. The tree is
// assumed finite and acyclic.
func reconcile(live, snapshot map[string]any) {
	applyMap(live, snapshot)
	pruneMap(live, snapshot)
}

func applyMap(live, snapshot map[string]any) {
	for k, sv := range snapshot {
		lv, ok := live[k]
		switch s := sv.(type) {
		case map[string]any:
			if l, both := lv.(map[string]any); ok && both {
				applyMap(l, s)
				continue
			}
		case []any:
			if l, both := lv.([]any); ok && both {
				live[k] = applySlice(l, s)
				continue
			}
		}
		// Scalar change, type change, or new key: the live side adopts
		// the snapshot's value outright.
		live[k] = sv
	}
}

// applySlice merges element-wise over the common length and appends the
// snapshot's tail. The returned slice must be written back into the parent
// slot; growth may reallocate the backing array.
func applySlice(live, snapshot []any) []any {
	n := len(live)
	if len(snapshot) < n {
		n = len(snapshot)
	}
	for i := 0; i < n; i++ {
		sv := live[i]
		switch s := snapshot[i].(type) {
		case map[string]any:
			if l, both := sv.(map[string]any); both {
				applyMap(l, s)
				continue
			}
		case []any:
			if l, both := sv.([]any); both {
				live[i] = applySlice(l, s)
				continue
			}
		}
		live[i] = snapshot[i]
	}
	if len(snapshot) > len(live) {
		live = append(live, snapshot[len(live):]...)
	}
	return live
}

func pruneMap(live, snapshot map[string]any) {
	for k, lv := range live {
		sv, ok := snapshot[k]
		if !ok {
			delete(live, k)
			continue
		}
		switch l := lv.(type) {
		case map[string]any:
			if s, both := sv.(map[string]any); both {
				pruneMap(l, s)
			}
		case []any:
			if s, both := sv.([]any); both {
				live[k] = pruneSlice(l, s)
			}
		}
	}
}

// pruneSlice truncates past the snapshot's length and recurses into
// surviving elements. Like applySlice, the result is assigned back into the
// parent slot.
func pruneSlice(live, snapshot []any) []any {
	if len(live) > len(snapshot) {
		live = live[:len(snapshot)]
	}
	for i := range live {
		switch l := live[i].(type) {
		case map[string]any:
			if s, both := snapshot[i].(map[string]any); both {
				pruneMap(l, s)
			}
		case []any:
			if s, both := snapshot[i].([]any); both {
				live[i] = pruneSlice(l, s)
			}
		}
	}
	return live
}
