package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}
	d.Emit(context.Background(), Event{EventType: EventLogout})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher dropped events")
	}
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64}, sink)

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), Event{EventType: EventLoginSuccess})
	}
	d.Close()

	if got := sink.count.Load(); got != 50 {
		t.Fatalf("delivered %d events, want 50", got)
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// The first event may be picked up by the delivery goroutine and park in
	// the sink; either way at most two fit before drops begin.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: EventLoginFailure})
	}

	if got := d.Dropped(); got < 8 {
		t.Fatalf("dropped %d events, want at least 8", got)
	}

	close(sink.gate)
	d.Close()
}

func TestDispatcherBlockingHonorsContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 3; i++ {
		d.Emit(ctx, Event{EventType: EventLogout})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected a dropped event once the context expired")
	}

	close(sink.gate)
	d.Close()
}

func TestDispatcherCloseIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Close()
		}()
	}
	wg.Wait()

	d.Emit(context.Background(), Event{EventType: EventLogout})
	if d.Dropped() != 0 {
		t.Fatal("emit after close must be ignored, not dropped")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{
		Timestamp:      time.Unix(123, 0).UTC(),
		EventType:      EventCredentialFailure,
		Classification: "per_request_credential",
		Metadata:       map[string]string{"uid": "robot"},
	})

	var got Event
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if got.EventType != EventCredentialFailure || got.Metadata["uid"] != "robot" {
		t.Fatalf("unexpected event %+v", got)
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		t.Fatal("expected newline-terminated record")
	}
}

func TestChannelSinkRespectsContext(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(context.Background(), Event{EventType: EventLogout})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink.Emit(ctx, Event{EventType: EventLogout})

	if got := len(sink.Events()); got != 1 {
		t.Fatalf("buffered %d events, want 1", got)
	}
}
