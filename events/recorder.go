package events

import (
	"sync"

	"certregistry/model"
)

// DefaultRecorderCapacity bounds the feed kept by NewRecorder(0).
const DefaultRecorderCapacity = 256

// Recorder keeps the most recent notifications in memory.
type Recorder struct {
	mu       sync.Mutex
	capacity int
	buf      []Envelope
}

// NewRecorder creates a Recorder holding at most capacity envelopes.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultRecorderCapacity
	}
	return &Recorder{capacity: capacity}
}

func (r *Recorder) Publish(event model.Event) {
	env, err := NewEnvelope(event)
	if err != nil {
		logger.Errorf("Recorder: dropping event: %v", err)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buf) == r.capacity {
		copy(r.buf, r.buf[1:])
		r.buf = r.buf[:len(r.buf)-1]
	}
	r.buf = append(r.buf, env)
}

// Recent returns the recorded envelopes, oldest first.
func (r *Recorder) Recent() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Envelope, len(r.buf))
	copy(out, r.buf)
	return out
}
