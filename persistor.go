package stash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
)

// persistor is the only component that touches the filesystem for the
// store's data file. Reads and writes are synchronous and whole-file;
// there is no partial-success or retry state.
type persistor struct {
	path  string
	codec *codec

	// mu serializes file access between caller-initiated writes and the
	// watcher's reconciliation reads.
	mu sync.Mutex

	// An existing file implies an existing directory, so the parent is
	// only probed and created when the file was absent at construction.
	dirReady bool

	fileExisted bool
}

func newPersistor(path string, c *codec) *persistor {
	_, err := os.Stat(path)
	existed := err == nil
	return &persistor{
		path:        path,
		codec:       c,
		dirReady:    existed,
		fileExisted: existed,
	}
}

// Write encodes root and replaces the file content in full.
func (p *persistor) Write(root map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.write(root)
}

func (p *persistor) write(root map[string]any) error {
	data, err := p.codec.Encode(root)
	if err != nil {
		return err
	}
	if !p.dirReady {
		if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
		p.dirReady = true
	}
	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return nil
}

// Read decodes the full file content into a snapshot mapping. A legacy
// plaintext file read under an encryption key is re-written in the
// encrypted format before Read returns, so the file self-heals on first
// touch.
func (p *persistor) Read() (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, p.path)
	}

	root, migrated, err := p.codec.Decode(data)
	if err != nil {
		return nil, err
	}
	if migrated {
		if err := p.write(root); err != nil {
			return nil, fmt.Errorf("migrate legacy store: %w", err)
		}
		capitan.Emit(context.Background(), StoreMigrated,
			KeyPath.Field(p.path),
		)
	}
	return root, nil
}

// ModTime returns the file's current modification timestamp.
func (p *persistor) ModTime() (time.Time, error) {
	fi, err := os.Stat(p.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat store file: %w", err)
	}
	return fi.ModTime(), nil
}
