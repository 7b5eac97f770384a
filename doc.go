/*
Package stash provides a transparently persistent, file-backed object store.
A stash wraps an ordinary nested JSON-safe structure so that every write,
at any depth, is synchronously serialized to a backing file, and the live
structure can optionally stay synchronized with out-of-process edits to
that same file.

stash is designed to be embedded within a single process that wants durable,
load-and-forget state without explicit save/load calls. It is not a database:
there is no locking protocol across processes, no transactions, and no query
layer — the only access pattern is direct property read/write on the
in-memory graph.

# Basic Usage

Open a store and mutate it:

	store, err := stash.Open("data/app.json",
	    stash.WithTemplate(map[string]any{"launches": 0}),
	)
	if err != nil {
	    return err
	}
	defer store.Close()

	store.Set("launches", 1) // written to data/app.json before Set returns

Nested access returns live views bound to the same underlying nodes:

	user := store.Get("user").(*stash.Object)
	user.Set("name", "ada") // persists the full store

# Encryption

Supplying a passphrase encrypts the file at rest with AES-256-CBC under a
SHA-256 derived key. An existing plaintext file is migrated to the encrypted
format on first read:

	store, err := stash.Open("data/app.json",
	    stash.WithEncryption([]byte("passphrase")),
	)

# External Changes

With WithWatch, the store subscribes to file-change notifications, debounces
bursts, and reconciles external edits into the live root in place. References
to nested objects held by the caller keep observing current values:

	store, err := stash.Open("data/app.json",
	    stash.WithWatch(),
	    stash.WithDebounce(250*time.Millisecond),
	)

Self-initiated writes are distinguished from external edits by comparing file
modification timestamps, so the store's own writes never trigger a reconcile.

# Observability

Lifecycle and reconciliation events are emitted as capitan signals (see
signals.go) with typed field keys (see fields.go).

The package is built on top of:
  - fsnotify: for file-change notifications
  - clockz: for testable debounce timers
  - capitan: for observability signals
*/
package stash
