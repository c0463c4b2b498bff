package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmentor/relay/internal/domain"
)

type fakeStore struct {
	snapshot    json.RawMessage
	snapshotErr error

	markedRead    []string
	markAllCalled bool
	markErr       error
}

func (s *fakeStore) Snapshot(context.Context, int64) (json.RawMessage, error) {
	if s.snapshotErr != nil {
		return nil, s.snapshotErr
	}
	return s.snapshot, nil
}

func (s *fakeStore) MarkNotificationRead(_ context.Context, _ int64, notificationID string) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.markedRead = append(s.markedRead, notificationID)
	return nil
}

func (s *fakeStore) MarkAllNotificationsRead(context.Context, int64) (int64, error) {
	if s.markErr != nil {
		return 0, s.markErr
	}
	s.markAllCalled = true
	return 3, nil
}

func newTestDashboard(store DashboardStore) *Dashboard {
	if store == nil {
		store = &fakeStore{snapshot: json.RawMessage(`{"sessions":[]}`)}
	}
	return NewDashboard(store, testLogger(), testRelayConfig())
}

func newTestClient(userID int64) *DashboardClient {
	return NewDashboardClient(userID, &fakeConn{}, 16)
}

func TestDashboardSubscribeIdempotent(t *testing.T) {
	d := newTestDashboard(nil)

	c := newTestClient(7)
	d.Subscribe(c)
	d.Subscribe(c)

	assert.Equal(t, 1, d.Connections(7))
}

func TestDashboardUnsubscribeIdempotent(t *testing.T) {
	d := newTestDashboard(nil)

	c := newTestClient(7)
	d.Subscribe(c)

	d.Unsubscribe(c)
	d.Unsubscribe(c)

	assert.Equal(t, 0, d.Connections(7))
}

func TestDashboardPublishFansOutPerUser(t *testing.T) {
	d := newTestDashboard(nil)

	tab1 := newTestClient(7)
	tab2 := newTestClient(7)
	stranger := newTestClient(8)
	d.Subscribe(tab1)
	d.Subscribe(tab2)
	d.Subscribe(stranger)

	delivered := d.Publish(7, NewNotification(json.RawMessage(`{"id":"n1"}`)))
	assert.Equal(t, 2, delivered)

	assert.Len(t, drainClient(tab1), 1)
	assert.Len(t, drainClient(tab2), 1)
	assert.Empty(t, drainClient(stranger))
}

func TestDashboardPublishToOfflineUserIsSilent(t *testing.T) {
	d := newTestDashboard(nil)

	delivered := d.Publish(99, NewSessionUpdate(json.RawMessage(`{"id":"s1"}`), "updated"))
	assert.Equal(t, 0, delivered)
}

func TestDashboardEventEnvelope(t *testing.T) {
	event := NewBookingUpdate(json.RawMessage(`{"id":"b1"}`), "confirmed")

	var out map[string]any
	require.NoError(t, json.Unmarshal(event.Encode(), &out))

	assert.Equal(t, "booking_update", out["type"])
	assert.Equal(t, "confirmed", out["action"])
	assert.Equal(t, map[string]any{"id": "b1"}, out["booking"])
	assert.NotEmpty(t, out["timestamp"])
}

func TestDashboardGetDataAction(t *testing.T) {
	store := &fakeStore{snapshot: json.RawMessage(`{"sessions":[],"unread_count":2}`)}
	d := newTestDashboard(store)

	c := newTestClient(7)
	d.HandleAction(context.Background(), c, []byte(`{"action":"get_dashboard_data"}`))

	frames := drainClient(c)
	require.Len(t, frames, 1)

	var out map[string]any
	require.NoError(t, json.Unmarshal(frames[0], &out))
	assert.Equal(t, "dashboard_data", out["type"])
	assert.Equal(t, float64(2), out["data"].(map[string]any)["unread_count"])
}

func TestDashboardSnapshotFailureReportsError(t *testing.T) {
	store := &fakeStore{snapshotErr: errors.New("db down")}
	d := newTestDashboard(store)

	c := newTestClient(7)
	d.HandleAction(context.Background(), c, []byte(`{"action":"get_dashboard_data"}`))

	frames := drainClient(c)
	require.Len(t, frames, 1)

	var out map[string]any
	require.NoError(t, json.Unmarshal(frames[0], &out))
	assert.Equal(t, "error", out["type"])
}

func TestDashboardMarkNotificationRead(t *testing.T) {
	store := &fakeStore{}
	d := newTestDashboard(store)

	c := newTestClient(7)
	d.HandleAction(context.Background(), c, []byte(`{"action":"mark_notification_read","notification_id":"n42"}`))

	assert.Equal(t, []string{"n42"}, store.markedRead)

	frames := drainClient(c)
	require.Len(t, frames, 1)

	var out map[string]any
	require.NoError(t, json.Unmarshal(frames[0], &out))
	assert.Equal(t, "notification_read", out["type"])
	assert.Equal(t, "n42", out["notification_id"])
	assert.Equal(t, true, out["success"])
}

func TestDashboardMarkNotificationReadRequiresID(t *testing.T) {
	d := newTestDashboard(&fakeStore{})

	c := newTestClient(7)
	d.HandleAction(context.Background(), c, []byte(`{"action":"mark_notification_read"}`))

	frames := drainClient(c)
	require.Len(t, frames, 1)

	var out map[string]any
	require.NoError(t, json.Unmarshal(frames[0], &out))
	assert.Equal(t, "error", out["type"])
}

func TestDashboardMarkNotificationReadFailure(t *testing.T) {
	store := &fakeStore{markErr: domain.ErrNotificationNotFound}
	d := newTestDashboard(store)

	c := newTestClient(7)
	d.HandleAction(context.Background(), c, []byte(`{"action":"mark_notification_read","notification_id":"ghost"}`))

	frames := drainClient(c)
	require.Len(t, frames, 1)

	var out map[string]any
	require.NoError(t, json.Unmarshal(frames[0], &out))
	assert.Equal(t, "notification_read", out["type"])
	assert.Equal(t, false, out["success"])
}

func TestDashboardMarkAllNotificationsRead(t *testing.T) {
	store := &fakeStore{}
	d := newTestDashboard(store)

	c := newTestClient(7)
	d.HandleAction(context.Background(), c, []byte(`{"action":"mark_all_notifications_read"}`))

	assert.True(t, store.markAllCalled)

	frames := drainClient(c)
	require.Len(t, frames, 1)

	var out map[string]any
	require.NoError(t, json.Unmarshal(frames[0], &out))
	assert.Equal(t, "all_notifications_read", out["type"])
	assert.Equal(t, float64(3), out["count"])
	assert.Equal(t, true, out["success"])
}

func TestDashboardUnknownAction(t *testing.T) {
	d := newTestDashboard(&fakeStore{})

	c := newTestClient(7)
	d.HandleAction(context.Background(), c, []byte(`{"action":"teleport"}`))

	frames := drainClient(c)
	require.Len(t, frames, 1)

	var out map[string]any
	require.NoError(t, json.Unmarshal(frames[0], &out))
	assert.Equal(t, "error", out["type"])
	assert.Equal(t, "unknown_action", out["code"])
}

func TestDashboardMalformedAction(t *testing.T) {
	d := newTestDashboard(&fakeStore{})

	c := newTestClient(7)
	d.HandleAction(context.Background(), c, []byte(`{{{`))

	frames := drainClient(c)
	require.Len(t, frames, 1)

	var out map[string]any
	require.NoError(t, json.Unmarshal(frames[0], &out))
	assert.Equal(t, "error", out["type"])
}
