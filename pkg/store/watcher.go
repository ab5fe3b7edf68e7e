package store

import (
	"context"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
)

// Watcher streams ObjectEvent values for a single subscription. It is
// safe to Stop concurrently with reads from Events(); Stop closes the
// underlying notification channel's done signal so a blocked reader is
// interrupted rather than left hanging, the Go-native form of the
// original thread's "close the response to break next()" shutdown.
type Watcher struct {
	client  *Client
	prefix  string
	events  []Event
	initial bool

	outCh  chan ObjectEvent
	errCh  chan error
	doneCh chan struct{}
	cancel context.CancelFunc
	log    zerolog.Logger
}

// Events returns the channel of observed object changes. It is closed
// once Stop has fully drained the underlying subscription.
func (w *Watcher) Events() <-chan ObjectEvent {
	return w.outCh
}

// Errors returns the channel of non-fatal subscription errors (e.g.
// malformed notification payloads); an error that arrives while the
// channel's buffer is full is dropped and the Watcher keeps running.
func (w *Watcher) Errors() <-chan error {
	return w.errCh
}

// Stop interrupts the live subscription and signals the watcher
// goroutine to exit; it returns without waiting for that goroutine.
// Safe to call more than once.
func (w *Watcher) Stop() {
	select {
	case <-w.doneCh:
		return // already stopped
	default:
		close(w.doneCh)
		w.cancel()
	}
}

func (w *Watcher) start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.run(ctx)
}

// Reconnect backoff bounds for the notification subscription: a
// transient store error (network blip, broker restart) restarts
// ListenBucketNotification rather than ending the watcher for good.
const (
	watcherBaseBackoff = 500 * time.Millisecond
	watcherMaxBackoff  = 30 * time.Second
)

func (w *Watcher) run(ctx context.Context) {
	defer close(w.outCh)

	if w.initial {
		keys, err := w.client.ListKeys(ctx, w.prefix)
		if err != nil {
			w.log.Warn().Err(err).Str("prefix", w.prefix).Msg("initial replay listing failed")
		}
		for _, key := range keys {
			select {
			case <-w.doneCh:
				return
			case w.outCh <- ObjectEvent{Type: EventCreated, Key: key, Time: time.Now()}:
			}
		}
	}

	names := s3EventNames(w.events...)
	attempt := 0
	for {
		select {
		case <-w.doneCh:
			return
		default:
		}

		notifyCh := w.client.mc.ListenBucketNotification(ctx, w.client.bucket, w.prefix, "", names)
		delivered, done := w.consume(ctx, notifyCh)
		if done {
			return
		}
		if delivered {
			attempt = 0
		}
		attempt++

		delay := watcherBackoff(attempt)
		w.log.Warn().Int("attempt", attempt).Dur("delay", delay).Str("prefix", w.prefix).Msg("notification subscription dropped, reconnecting")
		select {
		case <-w.doneCh:
			return
		case <-time.After(delay):
		}
	}
}

// consume drains one ListenBucketNotification subscription until it
// closes. delivered reports whether any notification was delivered
// before the drop, so run can reset its backoff after a connection that
// actually worked for a while. done distinguishes a caller-requested
// shutdown from a subscription that should be retried.
func (w *Watcher) consume(ctx context.Context, notifyCh <-chan minio.NotificationInfo) (delivered, done bool) {
	for {
		select {
		case <-w.doneCh:
			return delivered, true
		case <-ctx.Done():
			return delivered, true
		case info, ok := <-notifyCh:
			if !ok {
				return delivered, false
			}
			if info.Err != nil {
				select {
				case w.errCh <- info.Err:
				default:
				}
				continue
			}
			w.deliver(info)
			delivered = true
		}
	}
}

// watcherBackoff returns the exponential reconnect delay for a given
// attempt (1-indexed), capped at watcherMaxBackoff.
func watcherBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 10 {
		attempt = 10
	}
	delay := watcherBaseBackoff * time.Duration(uint64(1)<<uint(attempt-1))
	if delay > watcherMaxBackoff {
		return watcherMaxBackoff
	}
	return delay
}

func (w *Watcher) deliver(info minio.NotificationInfo) {
	for _, rec := range info.Records {
		kind, ok := decodeEventName(rec.EventName)
		if !ok {
			continue
		}
		if !w.wants(kind) {
			continue
		}
		select {
		case <-w.doneCh:
			return
		case w.outCh <- ObjectEvent{
			Type: kind,
			Key:  rec.S3.Object.Key,
			Time: time.Now(),
		}:
		}
	}
}

func (w *Watcher) wants(kind Event) bool {
	for _, e := range w.events {
		if e == kind || e == EventModified {
			return true
		}
	}
	return false
}
