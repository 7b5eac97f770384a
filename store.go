package stash

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/zoobzio/clockz"
)

// DefaultDebounce is the default debounce duration for external change
// detection.
const DefaultDebounce = 100 * time.Millisecond

// validate is the shared validator instance.
var validate = validator.New()

// Store is a transparently persistent object store backed by a single file.
// Every mutation made through the store or its Object/Array views is
// synchronously serialized and written in full before the call returns. N
// mutations in a row cause N full-file writes; there is no batching or
// asynchronous write queue.
type Store struct {
	path      string
	persistor *persistor

	// mu guards the root tree. Caller mutations and watcher-driven
	// reconciliation never interleave mid-write.
	mu   sync.Mutex
	root map[string]any

	// lastMod is the file's modification timestamp recorded immediately
	// after every self-initiated write; the watcher uses it to tell
	// self-caused changes from external edits.
	lastMod atomic.Pointer[time.Time]

	watcher   *watcher
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// config holds configuration options for a Store.
type config struct {
	Path string `validate:"required"`

	template    map[string]any
	passphrase  []byte
	pretty      bool
	forceCreate bool
	watch       bool
	debounce    time.Duration
	clock       clockz.Clock
	notifier    Notifier
	onError     func(error)
}

// Option configures a Store.
type Option func(*config)

// WithTemplate sets the initial root value, used only when no backing file
// exists yet. The template is deep-cloned at construction; later mutations
// of the original value do not affect the store.
func WithTemplate(template map[string]any) Option {
	return func(c *config) {
		c.template = template
	}
}

// WithEncryption enables AES-256-CBC encryption at rest under a key derived
// from the passphrase with a single SHA-256. An existing plaintext file is
// migrated to the encrypted format on first read.
func WithEncryption(passphrase []byte) Option {
	return func(c *config) {
		c.passphrase = passphrase
	}
}

// WithPretty pretty-prints the backing file with tab indentation. Ignored
// while encryption is active.
func WithPretty() Option {
	return func(c *config) {
		c.pretty = true
	}
}

// WithForceCreate writes the backing file immediately at construction even
// when it does not yet exist, instead of lazily on first mutation.
func WithForceCreate() Option {
	return func(c *config) {
		c.forceCreate = true
	}
}

// WithWatch starts the external change watcher: out-of-process edits to the
// backing file are detected, debounced, and merged into the live root in
// place. Implies materializing the file at construction, since there must
// be something to watch.
func WithWatch() Option {
	return func(c *config) {
		c.watch = true
	}
}

// WithDebounce sets the debounce duration for external change detection.
// Notification bursts arriving within this duration are coalesced into a
// single check.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		c.debounce = d
	}
}

// WithClock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic debounce testing.
func WithClock(clock clockz.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithNotifier sets a custom change-notification source. By default a store
// opened with WithWatch uses a FileNotifier on its own path.
func WithNotifier(n Notifier) Option {
	return func(c *config) {
		c.notifier = n
	}
}

// OnWatchError sets a callback for errors on the asynchronous
// reconciliation path, which has no caller to surface to. The watcher
// reports the error and keeps watching.
func OnWatchError(fn func(error)) Option {
	return func(c *config) {
		c.onError = fn
	}
}

// Open constructs a store backed by the file at path.
//
// The root is created exactly once: by reading and decoding the backing
// file when it exists, by cloning the template when one was supplied, or as
// an empty mapping. It is mutated in place for the lifetime of the store
// and never replaced, so references to nested values stay valid across
// external-change reconciliation.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := &config{
		Path:     path,
		debounce: DefaultDebounce,
		clock:    clockz.RealClock,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid store configuration: %w", err)
	}

	s := &Store{
		path:      cfg.Path,
		persistor: newPersistor(cfg.Path, newCodec(cfg.passphrase, cfg.pretty)),
	}

	switch {
	case s.persistor.fileExisted:
		root, err := s.persistor.Read()
		if err != nil {
			return nil, err
		}
		s.root = root
	case cfg.template != nil:
		root, err := cloneTree(cfg.template)
		if err != nil {
			return nil, err
		}
		s.root = root
	default:
		s.root = map[string]any{}
	}

	if !s.persistor.fileExisted && (cfg.forceCreate || cfg.watch) {
		if err := s.persist(); err != nil {
			return nil, err
		}
	} else if mt, err := s.persistor.ModTime(); err == nil {
		s.lastMod.Store(&mt)
	}

	if cfg.watch {
		notifier := cfg.notifier
		if notifier == nil {
			notifier = NewFileNotifier(cfg.Path)
		}
		ctx, cancel := context.WithCancel(context.Background())
		w := newWatcher(s, notifier, cfg.debounce, cfg.clock, cfg.onError)
		if err := w.start(ctx); err != nil {
			cancel()
			return nil, err
		}
		s.watcher = w
		s.cancel = cancel
	}

	return s, nil
}

// Close stops the external change watcher, if one was started, and waits
// for it to exit. It is idempotent and safe to call on a store that never
// watched. Nothing is flushed: every write already completed synchronously.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.watcher.done
		}
	})
	return nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Root returns a live view over the store's root node.
func (s *Store) Root() *Object {
	return &Object{store: s, node: s.root}
}

// Get returns the root value stored under key; see Object.Get.
func (s *Store) Get(key string) any {
	return s.Root().Get(key)
}

// Set stores value under key on the root and persists; see Object.Set.
func (s *Store) Set(key string, value any) error {
	return s.Root().Set(key, value)
}

// Delete removes key from the root and persists; see Object.Delete.
func (s *Store) Delete(key string) error {
	return s.Root().Delete(key)
}

// Has reports whether key is present on the root.
func (s *Store) Has(key string) bool {
	return s.Root().Has(key)
}

// WatchState returns the current state of the change watcher, or StateIdle
// when the store was opened without WithWatch.
func (s *Store) WatchState() State {
	if s.watcher == nil {
		return StateIdle
	}
	return s.watcher.State()
}

// view runs fn while holding the root lock, for reads.
func (s *Store) view(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// mutate runs fn while holding the root lock, then persists the full root.
// This is the trigger behind every Object/Array write. A non-nil error from
// fn aborts before anything touches disk.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	return s.persist()
}

// applySnapshot merges a freshly read on-disk snapshot into the live root.
// It goes through reconcile on the raw tree, never through mutate, so the
// merge cannot re-trigger a disk write.
func (s *Store) applySnapshot(snapshot map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reconcile(s.root, snapshot)
}

// persist writes the full root and records the resulting modification
// timestamp as self-caused. Callers hold mu.
func (s *Store) persist() error {
	if err := s.persistor.Write(s.root); err != nil {
		return err
	}
	if mt, err := s.persistor.ModTime(); err == nil {
		s.lastMod.Store(&mt)
	}
	return nil
}

// cloneTree deep-clones a template through a JSON round trip, which also
// verifies it is JSON-safe and normalizes numbers the same way a reload
// from disk would.
func cloneTree(template map[string]any) (map[string]any, error) {
	data, err := json.Marshal(template)
	if err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal template: %w", err)
	}
	return out, nil
}
