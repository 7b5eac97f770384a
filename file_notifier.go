package stash

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// FileNotifier emits an event whenever the watched file is written or
// recreated. It is the default Notifier for stores opened with WithWatch.
type FileNotifier struct {
	path string
}

// NewFileNotifier creates a FileNotifier for the given file path. The file
// must exist when Notify is called.
func NewFileNotifier(path string) *FileNotifier {
	return &FileNotifier{path: path}
}

// Notify begins watching the file and returns a channel that emits an event
// per write or create notification.
func (n *FileNotifier) Notify(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(n.path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch file %s: %w", n.path, err)
	}

	out := make(chan struct{})

	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// Only emit on write or create events
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Continue watching despite errors
			}
		}
	}()

	return out, nil
}
