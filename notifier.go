package stash

import "context"

// Notifier observes the backing file and emits payload-free "something
// changed" events. The store decides for itself whether a change was
// external by comparing modification timestamps; notifiers only signal
// that a check is warranted.
type Notifier interface {
	// Notify begins observing and returns a channel that emits an event
	// per observed change. The channel is closed when the context is
	// canceled or an unrecoverable error occurs.
	Notify(ctx context.Context) (<-chan struct{}, error)
}

// ChannelNotifier wraps an existing event channel as a Notifier.
// Useful for testing and custom change sources.
type ChannelNotifier struct {
	ch   <-chan struct{}
	sync bool
}

// NewChannelNotifier creates a ChannelNotifier that forwards events from the
// given channel through an internal goroutine.
func NewChannelNotifier(ch <-chan struct{}) *ChannelNotifier {
	return &ChannelNotifier{ch: ch, sync: false}
}

// NewSyncChannelNotifier creates a ChannelNotifier that returns the source
// channel directly without an intermediate goroutine, for deterministic
// testing.
func NewSyncChannelNotifier(ch <-chan struct{}) *ChannelNotifier {
	return &ChannelNotifier{ch: ch, sync: true}
}

// Notify returns a channel that emits events from the wrapped channel.
func (n *ChannelNotifier) Notify(ctx context.Context) (<-chan struct{}, error) {
	if n.sync {
		return n.ch, nil
	}

	out := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-n.ch:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
