package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/openmentor/relay/internal/infrastructure/configs"
	"github.com/openmentor/relay/internal/infrastructure/logging"
	"github.com/openmentor/relay/internal/infrastructure/metrics"
)

const (
	DashboardData        EventType = "dashboard_data"
	SessionUpdate        EventType = "session_update"
	BookingUpdate        EventType = "booking_update"
	Notification         EventType = "notification"
	SessionRequestUpdate EventType = "session_request_update"
	NotificationRead     EventType = "notification_read"
	AllNotificationsRead EventType = "all_notifications_read"
)

// DashboardStore is what the fan-out needs from persistence: a snapshot
// for the initial load and the two notification mutations clients can
// request over the socket.
type DashboardStore interface {
	Snapshot(ctx context.Context, userID int64) (json.RawMessage, error)
	MarkNotificationRead(ctx context.Context, userID int64, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error)
}

// DashboardEvent is the outbound dashboard envelope. The payload lands
// under a key named after what it is, matching what the web client's
// reducers switch on.
type DashboardEvent struct {
	Type         EventType       `json:"type"`
	Action       string          `json:"action,omitempty"`
	Session      json.RawMessage `json:"session,omitempty"`
	Booking      json.RawMessage `json:"booking,omitempty"`
	Notification json.RawMessage `json:"notification,omitempty"`
	Request      json.RawMessage `json:"request,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`

	NotificationID string `json:"notification_id,omitempty"`
	Success        *bool  `json:"success,omitempty"`
	Count          *int64 `json:"count,omitempty"`
	Message        string `json:"message,omitempty"`

	Timestamp string `json:"timestamp"`
}

func (e *DashboardEvent) Encode() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		panic(err)
	}
	return data
}

func stamp(e *DashboardEvent) *DashboardEvent {
	e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return e
}

func NewSessionUpdate(session json.RawMessage, action string) *DashboardEvent {
	return stamp(&DashboardEvent{Type: SessionUpdate, Action: action, Session: session})
}

func NewBookingUpdate(booking json.RawMessage, action string) *DashboardEvent {
	return stamp(&DashboardEvent{Type: BookingUpdate, Action: action, Booking: booking})
}

func NewNotification(notification json.RawMessage) *DashboardEvent {
	return stamp(&DashboardEvent{Type: Notification, Notification: notification})
}

func NewSessionRequestUpdate(request json.RawMessage, action string) *DashboardEvent {
	return stamp(&DashboardEvent{Type: SessionRequestUpdate, Action: action, Request: request})
}

// DashboardClient is one open dashboard connection. A user with several
// tabs holds several clients in the same group.
type DashboardClient struct {
	ID     string
	UserID int64

	conn Conn
	send chan []byte

	done     chan struct{}
	doneOnce sync.Once
}

func NewDashboardClient(userID int64, conn Conn, sendBuffer int) *DashboardClient {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}

	return &DashboardClient{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *DashboardClient) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		c.shutdown()
		return false
	}
}

func (c *DashboardClient) shutdown() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
}

func (c *DashboardClient) writePump(heartbeat time.Duration) {
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			if err := c.conn.Send(data); err != nil {
				c.shutdown()
				return
			}

		case <-ticker.C:
			if err := c.conn.Ping(time.Now().Add(writeWait)); err != nil {
				c.shutdown()
				return
			}

		case <-c.done:
			return
		}
	}
}

// Dashboard groups dashboard connections by user and pushes updates to
// whichever connections that user currently holds. Publishing to a user
// with no connections is a silent no-op; the dashboard is a live view,
// not a mailbox.
type Dashboard struct {
	mu     sync.RWMutex
	groups map[int64]map[string]*DashboardClient

	store  DashboardStore
	logger logging.Logger
	cfg    configs.RelayConfig
}

func NewDashboard(store DashboardStore, logger logging.Logger, cfg configs.RelayConfig) *Dashboard {
	return &Dashboard{
		groups: make(map[int64]map[string]*DashboardClient),
		store:  store,
		logger: logger,
		cfg:    cfg,
	}
}

// Subscribe adds the client to its user's group. Idempotent per client.
func (d *Dashboard) Subscribe(c *DashboardClient) {
	d.mu.Lock()
	defer d.mu.Unlock()

	group, ok := d.groups[c.UserID]
	if !ok {
		group = make(map[string]*DashboardClient)
		d.groups[c.UserID] = group
	}

	if _, ok := group[c.ID]; ok {
		return
	}

	group[c.ID] = c
	metrics.DashboardConnections.Inc()
}

// Unsubscribe removes the client; empty groups are dropped. Idempotent.
func (d *Dashboard) Unsubscribe(c *DashboardClient) {
	d.mu.Lock()
	defer d.mu.Unlock()

	group, ok := d.groups[c.UserID]
	if !ok {
		return
	}

	if _, ok := group[c.ID]; !ok {
		return
	}

	delete(group, c.ID)
	metrics.DashboardConnections.Dec()

	if len(group) == 0 {
		delete(d.groups, c.UserID)
	}
}

// Publish pushes an event to every connection the user holds. Returns
// how many connections it reached.
func (d *Dashboard) Publish(userID int64, event *DashboardEvent) int {
	d.mu.RLock()
	group := d.groups[userID]
	targets := make([]*DashboardClient, 0, len(group))
	for _, c := range group {
		targets = append(targets, c)
	}
	d.mu.RUnlock()

	if len(targets) == 0 {
		return 0
	}

	data := event.Encode()
	metrics.DashboardEvents.WithLabelValues(string(event.Type)).Inc()

	delivered := 0
	for _, c := range targets {
		if c.enqueue(data) {
			delivered++
		} else {
			metrics.DeliveryFailures.Inc()
		}
	}

	return delivered
}

// Connections reports how many connections a user currently holds.
func (d *Dashboard) Connections(userID int64) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.groups[userID])
}

// Serve runs a dashboard connection: subscribe, push the initial
// snapshot, then answer actions until the connection dies.
func (d *Dashboard) Serve(ctx context.Context, c *DashboardClient, conn *websocket.Conn) {
	d.Subscribe(c)
	defer func() {
		d.Unsubscribe(c)
		c.shutdown()
	}()

	go c.writePump(d.cfg.HeartbeatInterval)

	go func() {
		<-c.done
		_ = conn.Close()
	}()

	d.sendSnapshot(ctx, c)

	conn.SetReadLimit(d.cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(d.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(d.cfg.PongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(d.cfg.PongWait))

		d.HandleAction(ctx, c, raw)
	}
}

type dashboardAction struct {
	Action         string `json:"action"`
	NotificationID string `json:"notification_id"`
}

// HandleAction answers one client request frame. Errors go back to the
// requesting connection only.
func (d *Dashboard) HandleAction(ctx context.Context, c *DashboardClient, raw []byte) {
	var action dashboardAction
	if err := json.Unmarshal(raw, &action); err != nil {
		metrics.MalformedMessages.Inc()
		c.enqueue(NewErrorEvent("malformed_message", "invalid message format").Encode())
		return
	}

	switch action.Action {
	case "get_dashboard_data":
		d.sendSnapshot(ctx, c)

	case "mark_notification_read":
		if action.NotificationID == "" {
			c.enqueue(NewErrorEvent("bad_request", "notification_id is required").Encode())
			return
		}

		success := true
		reply := &DashboardEvent{Type: NotificationRead, NotificationID: action.NotificationID}
		if err := d.store.MarkNotificationRead(ctx, c.UserID, action.NotificationID); err != nil {
			success = false
			reply.Message = err.Error()
			d.logger.Error(logging.Dashboard, logging.FanOut, "mark notification read failed", map[logging.ExtraKey]any{
				logging.UserId:       c.UserID,
				logging.ErrorMessage: err.Error(),
			})
		}
		reply.Success = &success
		c.enqueue(stamp(reply).Encode())

	case "mark_all_notifications_read":
		success := true
		reply := &DashboardEvent{Type: AllNotificationsRead}
		count, err := d.store.MarkAllNotificationsRead(ctx, c.UserID)
		if err != nil {
			success = false
			reply.Message = err.Error()
			d.logger.Error(logging.Dashboard, logging.FanOut, "mark all notifications read failed", map[logging.ExtraKey]any{
				logging.UserId:       c.UserID,
				logging.ErrorMessage: err.Error(),
			})
		} else {
			reply.Count = &count
		}
		reply.Success = &success
		c.enqueue(stamp(reply).Encode())

	default:
		c.enqueue(NewErrorEvent("unknown_action", "unknown action").Encode())
	}
}

func (d *Dashboard) sendSnapshot(ctx context.Context, c *DashboardClient) {
	data, err := d.store.Snapshot(ctx, c.UserID)
	if err != nil {
		d.logger.Error(logging.Dashboard, logging.FanOut, "dashboard snapshot failed", map[logging.ExtraKey]any{
			logging.UserId:       c.UserID,
			logging.ErrorMessage: err.Error(),
		})
		c.enqueue(NewErrorEvent("snapshot_failed", "could not load dashboard data").Encode())
		return
	}

	event := stamp(&DashboardEvent{Type: DashboardData, Data: data})
	metrics.DashboardEvents.WithLabelValues(string(DashboardData)).Inc()
	c.enqueue(event.Encode())
}
