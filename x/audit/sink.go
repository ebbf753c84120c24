package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/iov-one/custody/errors"
)

// Sink receives committed events. Publish is called once per event, in
// the order the events were appended for any single escrow.
type Sink interface {
	Publish(ctx context.Context, e *Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e *Event) error

// Publish implements Sink.
func (fn SinkFunc) Publish(ctx context.Context, e *Event) error {
	return fn(ctx, e)
}

// WriterSink writes every event as a single JSON line.
type WriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriterSink returns a sink writing to w. Writes are serialized.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w)}
}

// Publish implements Sink.
func (s *WriterSink) Publish(ctx context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(e); err != nil {
		return errors.Wrapf(errors.ErrHuman, "write event: %s", err)
	}
	return nil
}

// MultiSink publishes each event to all sinks. A failing sink does not
// prevent publishing to the rest, all failures are returned.
type MultiSink []Sink

// Publish implements Sink.
func (m MultiSink) Publish(ctx context.Context, e *Event) error {
	var errs error
	for _, s := range m {
		if err := s.Publish(ctx, e); err != nil {
			errs = errors.Append(errs, err)
		}
	}
	return errs
}
