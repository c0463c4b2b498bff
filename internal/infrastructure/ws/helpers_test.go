package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/openmentor/relay/internal/domain"
	"github.com/openmentor/relay/internal/infrastructure/configs"
	"github.com/openmentor/relay/internal/infrastructure/logging"
)

func testRelayConfig() configs.RelayConfig {
	return configs.RelayConfig{
		HeartbeatInterval: time.Second,
		PongWait:          3 * time.Second,
		AuthorizeTimeout:  time.Second,
		EndGracePeriod:    20 * time.Millisecond,
		MaxMessageSize:    64 * 1024,
		SendBuffer:        16,
	}
}

func testLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Logger:   "zerolog",
		Level:    "error",
		Encoding: "json",
	})
}

type fakeConn struct {
	mu     sync.Mutex
	sent   [][]byte
	pings  int
	closed bool
	code   int
	reason string
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("connection closed")
	}

	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeConn) Ping(time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pings++
	return nil
}

func (c *fakeConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.code = code
	c.reason = reason
	return nil
}

func (c *fakeConn) closeCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// drain empties a participant's outbound queue without running the write
// pump.
func drain(p *Participant) [][]byte {
	var out [][]byte
	for {
		select {
		case frame := <-p.send:
			out = append(out, frame)
		default:
			return out
		}
	}
}

func drainClient(c *DashboardClient) [][]byte {
	var out [][]byte
	for {
		select {
		case frame := <-c.send:
			out = append(out, frame)
		default:
			return out
		}
	}
}

type fakeAuthorizer struct {
	grants map[int64]domain.Grant
	err    error
}

func (a *fakeAuthorizer) Authorize(_ context.Context, _ string, userID int64) (domain.Grant, error) {
	if a.err != nil {
		return domain.Grant{}, a.err
	}

	grant, ok := a.grants[userID]
	if !ok {
		return domain.Grant{}, domain.ErrNotAuthorized
	}

	return grant, nil
}

type captureSink struct {
	mu     sync.Mutex
	events []*domain.RelayAuditEvent
}

func (s *captureSink) Record(_ context.Context, ev *domain.RelayAuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
}

func (s *captureSink) byType(t domain.RelayEventType) []*domain.RelayAuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.RelayAuditEvent
	for _, ev := range s.events {
		if ev.EventType == t {
			out = append(out, ev)
		}
	}
	return out
}
