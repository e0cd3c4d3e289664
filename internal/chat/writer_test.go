package chat

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingConn collects written lines and can be told to fail writes.
type recordingConn struct {
	mu      sync.Mutex
	lines   []string
	failing bool
}

func (c *recordingConn) ReadLine() (string, error) { return "", io.EOF }

func (c *recordingConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
	c.lines = append(c.lines, line)
	return nil
}

func (c *recordingConn) Close() error       { return nil }
func (c *recordingConn) Alive() bool        { return true }
func (c *recordingConn) RemoteAddr() string { return "test" }

func (c *recordingConn) written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func TestOutbox_SendAfterCloseFails(t *testing.T) {
	req := require.New(t)
	o := NewOutbox(4)
	o.Close()
	o.Close()

	req.ErrorIs(o.Send("late"), ErrOutboxClosed)
}

func TestOutbox_FullQueueDropsLine(t *testing.T) {
	req := require.New(t)
	o := NewOutbox(1)

	req.NoError(o.Send("first"))
	req.ErrorIs(o.Send("second"), ErrOutboxFull)
	req.Equal([]string{"first"}, drain(o))
}

func TestStartOutboundWriter_DrainsInOrderThenExits(t *testing.T) {
	req := require.New(t)
	conn := &recordingConn{}
	o := NewOutbox(8)
	done := StartOutboundWriter(conn, o)

	for _, line := range []string{"one", "two", "three"} {
		req.NoError(o.Send(line))
	}
	o.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("writer did not exit after close")
	}
	req.Equal([]string{"one", "two", "three"}, conn.written())
}

func TestStartOutboundWriter_StopsOnWriteError(t *testing.T) {
	req := require.New(t)
	conn := &recordingConn{failing: true}
	o := NewOutbox(8)
	done := StartOutboundWriter(conn, o)

	req.NoError(o.Send("lost"))

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("writer did not stop on write error")
	}
	req.Empty(conn.written())
}
