package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Conn is what the relay needs from a transport session. The production
// implementation wraps a gorilla connection; tests swap in fakes.
type Conn interface {
	Send(data []byte) error
	Ping(deadline time.Time) error
	Close(code int, reason string) error
}

// gorillaConn serializes writes; gorilla connections allow only one
// concurrent writer.
type gorillaConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewConn(conn *websocket.Conn) Conn {
	return &gorillaConn{conn: conn}
}

func (c *gorillaConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *gorillaConn) Ping(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

func (c *gorillaConn) Close(code int, reason string) error {
	c.mu.Lock()
	payload := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, payload, time.Now().Add(writeWait))
	c.mu.Unlock()

	return c.conn.Close()
}

// NewUpgrader builds the HTTP upgrader shared by the room and dashboard
// endpoints. An empty allow list or a "*" entry accepts any origin, which
// is what local development and the compose setup run with.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}

			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}

			return false
		},
	}
}
