package chat

import "sync"

// Outbox is the outbound line queue of one session. Any goroutine may Send;
// only the writer started by StartOutboundWriter touches the connection.
type Outbox struct {
	mu     sync.Mutex
	ch     chan string
	closed bool
	alive  func() bool
}

func NewOutbox(size int) *Outbox {
	if size <= 0 {
		size = 64
	}
	return &Outbox{ch: make(chan string, size)}
}

// Send queues a line without blocking. A slow client loses lines rather than
// stalling the sender.
func (o *Outbox) Send(line string) error {
	return o.SendAll(line)
}

// SendAll queues every line or none of them.
func (o *Outbox) SendAll(lines ...string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || (o.alive != nil && !o.alive()) {
		return ErrOutboxClosed
	}
	if cap(o.ch)-len(o.ch) < len(lines) {
		DroppedLines.Add(float64(len(lines)))
		return ErrOutboxFull
	}
	for _, line := range lines {
		o.ch <- line
	}
	return nil
}

// Close stops accepting lines; the writer exits after draining what is queued.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	close(o.ch)
}

func (o *Outbox) bind(conn Conn) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.alive = conn.Alive
}

// StartOutboundWriter drains out into conn until out is closed or a write fails.
// A failed write closes conn, which ends the owning session's read loop.
// Once conn is no longer alive, out refuses new lines.
// The returned channel is closed when the writer has exited.
func StartOutboundWriter(conn Conn, out *Outbox) <-chan struct{} {
	out.bind(conn)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for line := range out.ch {
			if err := conn.WriteLine(line); err != nil {
				_ = conn.Close()
				return
			}
		}
	}()
	return done
}
