package events

import (
	"sync"
	"time"
)

// Event is a single lifecycle occurrence broadcast to subscribers: a
// job created/started/stopped/removed, or an ACL reconcile pass
// completing. Subject is the job name for job events and
// "exit_code=N" (the reconcile's exit-code bitmask) for
// EventACLReconciled.
type Event struct {
	Type      string
	Subject   string
	Timestamp time.Time
}

// Subscriber is a channel that receives events.
type Subscriber chan *Event

// Broker distributes lifecycle events to interested subscribers: the
// admin API's StreamEvents RPC and anything else that wants a live
// feed of catalog activity. Publish never blocks on a slow subscriber.
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel.
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish broadcasts an event of the given type and subject (typically
// a LifecycleEvent constant and a job name) to every subscriber.
func (b *Broker) Publish(eventType, subject string) {
	event := &Event{Type: eventType, Subject: subject, Timestamp: time.Now()}
	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
