package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmentor/relay/internal/domain"
)

func TestParseInboundSignalKinds(t *testing.T) {
	for _, kind := range []string{"offer", "answer", "ice_candidate"} {
		frame, err := ParseInbound([]byte(`{"type":"` + kind + `","sdp":"v=0"}`))
		require.NoError(t, err, kind)

		signal, ok := frame.(*SignalFrame)
		require.True(t, ok, kind)
		assert.Equal(t, EventType(kind), signal.Kind)
		assert.Equal(t, int64(0), signal.Target)
	}
}

func TestParseInboundSignalTarget(t *testing.T) {
	frame, err := ParseInbound([]byte(`{"type":"offer","sdp":"v=0","target":7}`))
	require.NoError(t, err)

	signal := frame.(*SignalFrame)
	assert.Equal(t, int64(7), signal.Target)
}

func TestParseInboundChat(t *testing.T) {
	frame, err := ParseInbound([]byte(`{"type":"chat_message","content":"hello"}`))
	require.NoError(t, err)

	chat := frame.(*ChatFrame)
	assert.Equal(t, "hello", chat.Content)
}

func TestParseInboundChatRequiresContent(t *testing.T) {
	_, err := ParseInbound([]byte(`{"type":"chat_message"}`))
	assert.ErrorIs(t, err, ErrMalformedMessage)

	_, err = ParseInbound([]byte(`{"type":"chat_message","content":""}`))
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestParseInboundMediaStatus(t *testing.T) {
	frame, err := ParseInbound([]byte(`{"type":"media_status","audioEnabled":true,"videoEnabled":false}`))
	require.NoError(t, err)

	media := frame.(*MediaStatusFrame)
	assert.True(t, media.AudioEnabled)
	assert.False(t, media.VideoEnabled)
}

func TestParseInboundControlFrames(t *testing.T) {
	cases := map[string]Inbound{
		`{"type":"join"}`:          &AnnounceFrame{},
		`{"type":"session_ended"}`: &EndSessionFrame{},
		`{"type":"ping"}`:          &PingFrame{},
		`{"type":"pong"}`:          &PongFrame{},
	}

	for raw, want := range cases {
		frame, err := ParseInbound([]byte(raw))
		require.NoError(t, err, raw)
		assert.IsType(t, want, frame, raw)
	}
}

func TestParseInboundMalformed(t *testing.T) {
	cases := []string{
		`not json`,
		`{"no_type":"here"}`,
		`{"type":"teleport"}`,
		`{"type":42}`,
		`{"type":"offer","target":"me"}`,
		`{"type":"media_status","audioEnabled":"yes"}`,
	}

	for _, raw := range cases {
		_, err := ParseInbound([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedMessage, raw)
	}
}

func TestStampPreservesPayload(t *testing.T) {
	sdp := `v=0\r\no=- 463528 2 IN IP4 127.0.0.1`
	raw := `{"type":"offer","sdp":"` + sdp + `","user_id":999,"username":"spoofed","custom":{"nested":[1,2,3]}}`

	frame, err := ParseInbound([]byte(raw))
	require.NoError(t, err)

	signal := frame.(*SignalFrame)
	identity := Identity{UserID: 42, Username: "Ada", Role: domain.RoleHost}

	stamped, err := signal.Stamp(identity, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(stamped, &out))

	// The semantic payload is untouched, byte for byte.
	assert.Equal(t, `"`+sdp+`"`, string(out["sdp"]))
	assert.Equal(t, `{"nested":[1,2,3]}`, string(out["custom"]))
	assert.Equal(t, `"offer"`, string(out["type"]))

	// The identity fields are the server's, not the client's.
	assert.Equal(t, `42`, string(out["user_id"]))
	assert.Equal(t, `"Ada"`, string(out["username"]))
	assert.Equal(t, `"2026-03-01T12:00:00Z"`, string(out["timestamp"]))
}

func TestEventEncodeMediaStatusKeepsFalse(t *testing.T) {
	event := NewMediaStatus(Identity{UserID: 1, Username: "a"}, false, false, time.Now())

	var out map[string]any
	require.NoError(t, json.Unmarshal(event.Encode(), &out))

	assert.Equal(t, false, out["audioEnabled"])
	assert.Equal(t, false, out["videoEnabled"])
}
