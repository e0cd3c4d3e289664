package chat

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the relay has no browser-facing origin policy
	},
}

// wsConn speaks the line protocol over WebSocket: one text frame per line.
type wsConn struct {
	socket *websocket.Conn
	alive  atomic.Bool
	once   sync.Once
}

func NewWSConn(socket *websocket.Conn) Conn {
	c := &wsConn{socket: socket}
	c.alive.Store(true)
	return c
}

func (c *wsConn) ReadLine() (string, error) {
	for {
		kind, data, err := c.socket.ReadMessage()
		if err != nil {
			c.alive.Store(false)
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return "", io.EOF
			}
			return "", fmt.Errorf("read: %w", err)
		}
		if kind != websocket.TextMessage {
			continue
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func (c *wsConn) WriteLine(line string) error {
	if err := c.socket.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		c.alive.Store(false)
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		c.alive.Store(false)
		err = c.socket.Close()
	})
	return err
}

func (c *wsConn) Alive() bool { return c.alive.Load() }

func (c *wsConn) RemoteAddr() string { return c.socket.RemoteAddr().String() }

// WebSocketHandler upgrades HTTP requests and hands the socket to srv.
func WebSocketHandler(srv *Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			srv.logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		srv.Handle(NewWSConn(socket))
	})
}
