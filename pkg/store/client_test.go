package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestS3EventNames(t *testing.T) {
	tests := []struct {
		name     string
		events   []Event
		expected []string
	}{
		{"created only", []Event{EventCreated}, []string{"s3:ObjectCreated:*"}},
		{"removed only", []Event{EventRemoved}, []string{"s3:ObjectRemoved:*"}},
		{"modified expands to both", []Event{EventModified}, []string{"s3:ObjectCreated:*", "s3:ObjectRemoved:*"}},
		{"created and removed dedup with modified", []Event{EventCreated, EventModified}, []string{"s3:ObjectCreated:*", "s3:ObjectRemoved:*"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s3EventNames(tt.events...))
		})
	}
}

func TestDecodeEventName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Event
		ok       bool
	}{
		{"created", "s3:ObjectCreated:Put", EventCreated, true},
		{"removed", "s3:ObjectRemoved:Delete", EventRemoved, true},
		{"unknown", "s3:BucketCreated", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeEventName(tt.input)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestWatcherWantsRespectsModifiedUnion(t *testing.T) {
	w := &Watcher{events: []Event{EventModified}}
	assert.True(t, w.wants(EventCreated))
	assert.True(t, w.wants(EventRemoved))

	w2 := &Watcher{events: []Event{EventCreated}}
	assert.True(t, w2.wants(EventCreated))
	assert.False(t, w2.wants(EventRemoved))
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w := &Watcher{
		doneCh: make(chan struct{}),
		cancel: func() {},
	}
	w.Stop()
	w.Stop() // must not panic on double-close
}
