package chat

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
)

// Conn is one accepted client connection seen as a stream of lines.
// ReadLine returns io.EOF once the peer has gone away.
type Conn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
	Alive() bool
	RemoteAddr() string
}

type tcpConn struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	alive  atomic.Bool
	once   sync.Once
}

// NewTCPConn wraps a stream socket with newline-delimited framing.
func NewTCPConn(conn net.Conn) Conn {
	c := &tcpConn{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}
	c.alive.Store(true)
	return c
}

func (c *tcpConn) ReadLine() (string, error) {
	line, err := readLine(c.reader)
	if err != nil {
		c.alive.Store(false)
	}
	return line, err
}

func (c *tcpConn) WriteLine(line string) error {
	if _, err := c.writer.WriteString(line + "\n"); err != nil {
		c.alive.Store(false)
		return fmt.Errorf("write: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		c.alive.Store(false)
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (c *tcpConn) Close() error {
	var err error
	c.once.Do(func() {
		c.alive.Store(false)
		err = c.conn.Close()
	})
	return err
}

func (c *tcpConn) Alive() bool { return c.alive.Load() }

func (c *tcpConn) RemoteAddr() string { return c.conn.RemoteAddr().String() }

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err == nil {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF && line != "" {
		// last line without newline
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF {
		return "", io.EOF
	}
	return "", fmt.Errorf("read: %w", err)
}
