package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openmentor/relay/internal/domain"
)

type EventType string

const (
	EventOffer        EventType = "offer"
	EventAnswer       EventType = "answer"
	EventICECandidate EventType = "ice_candidate"
	EventChatMessage  EventType = "chat_message"
	EventMediaStatus  EventType = "media_status"
	EventUserJoin     EventType = "user_join"
	EventUserLeave    EventType = "user_leave"
	EventSessionEnded EventType = "session_ended"
	EventError        EventType = "error"
	EventPing         EventType = "ping"
	EventPong         EventType = "pong"
)

// Application close codes, in the 4xxx range the platform's web clients
// already distinguish.
const (
	CloseInternalError    = 4000
	CloseNotAuthenticated = 4001
	CloseNotMember        = 4003
	CloseRoomNotFound     = 4004
	CloseRoomEnded        = 4006
)

var ErrMalformedMessage = errors.New("malformed message")

// Identity is the server-side view of who a connection belongs to. Relayed
// messages are stamped from it; client-supplied identity fields are never
// trusted.
type Identity struct {
	UserID   int64
	Username string
	Role     domain.Role
}

// Inbound is a parsed client frame. Exactly one concrete type per message
// type; dispatch is an exhaustive type switch so adding a variant breaks
// every switch until it is handled.
type Inbound interface {
	inbound()
}

// SignalFrame carries WebRTC negotiation payloads (offer, answer,
// ice_candidate). Fields holds the client's original payload untouched;
// the relay stamps identity and timestamp on top but never rewrites the
// semantic fields, or negotiation breaks.
type SignalFrame struct {
	Kind   EventType
	Target int64 // optional routing target, 0 = whole room
	Fields map[string]json.RawMessage
}

type ChatFrame struct {
	Content string
}

type MediaStatusFrame struct {
	AudioEnabled bool
	VideoEnabled bool
}

// AnnounceFrame is a client re-announcing its presence ("join").
type AnnounceFrame struct{}

// EndSessionFrame ends the room; only honored from the host.
type EndSessionFrame struct{}

type PingFrame struct{}

type PongFrame struct{}

func (*SignalFrame) inbound()      {}
func (*ChatFrame) inbound()        {}
func (*MediaStatusFrame) inbound() {}
func (*AnnounceFrame) inbound()    {}
func (*EndSessionFrame) inbound()  {}
func (*PingFrame) inbound()        {}
func (*PongFrame) inbound()        {}

// ParseInbound turns a raw client frame into its typed variant.
func ParseInbound(raw []byte) (Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	var msgType EventType
	if typeRaw, ok := fields["type"]; ok {
		if err := json.Unmarshal(typeRaw, &msgType); err != nil {
			return nil, fmt.Errorf("%w: unreadable type tag", ErrMalformedMessage)
		}
	}

	switch msgType {
	case EventOffer, EventAnswer, EventICECandidate:
		frame := &SignalFrame{Kind: msgType, Fields: fields}
		if targetRaw, ok := fields["target"]; ok {
			if err := json.Unmarshal(targetRaw, &frame.Target); err != nil {
				return nil, fmt.Errorf("%w: target must be a user id", ErrMalformedMessage)
			}
		}
		return frame, nil

	case EventChatMessage:
		frame := &ChatFrame{}
		if contentRaw, ok := fields["content"]; ok {
			if err := json.Unmarshal(contentRaw, &frame.Content); err != nil {
				return nil, fmt.Errorf("%w: content must be a string", ErrMalformedMessage)
			}
		}
		if frame.Content == "" {
			return nil, fmt.Errorf("%w: chat_message requires content", ErrMalformedMessage)
		}
		return frame, nil

	case EventMediaStatus:
		frame := &MediaStatusFrame{}
		if audioRaw, ok := fields["audioEnabled"]; ok {
			if err := json.Unmarshal(audioRaw, &frame.AudioEnabled); err != nil {
				return nil, fmt.Errorf("%w: audioEnabled must be a bool", ErrMalformedMessage)
			}
		}
		if videoRaw, ok := fields["videoEnabled"]; ok {
			if err := json.Unmarshal(videoRaw, &frame.VideoEnabled); err != nil {
				return nil, fmt.Errorf("%w: videoEnabled must be a bool", ErrMalformedMessage)
			}
		}
		return frame, nil

	case "join":
		return &AnnounceFrame{}, nil

	case EventSessionEnded:
		return &EndSessionFrame{}, nil

	case EventPing:
		return &PingFrame{}, nil

	case EventPong:
		return &PongFrame{}, nil

	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedMessage, msgType)
	}
}

// StampSignal overwrites the relay-owned envelope fields of a signaling
// payload and re-encodes it. Everything else in the payload passes through
// byte for byte.
func (f *SignalFrame) Stamp(id Identity, at time.Time) ([]byte, error) {
	userID, err := json.Marshal(id.UserID)
	if err != nil {
		return nil, err
	}
	username, err := json.Marshal(id.Username)
	if err != nil {
		return nil, err
	}
	timestamp, err := json.Marshal(at.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}

	f.Fields["user_id"] = userID
	f.Fields["username"] = username
	f.Fields["timestamp"] = timestamp

	return json.Marshal(f.Fields)
}

// Event is an outbound relay-authored envelope.
type Event struct {
	Type      EventType `json:"type"`
	UserID    int64     `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`

	Content      string `json:"content,omitempty"`      // chat_message
	AudioEnabled *bool  `json:"audioEnabled,omitempty"` // media_status
	VideoEnabled *bool  `json:"videoEnabled,omitempty"`
	Code         string `json:"code,omitempty"`    // error
	Message      string `json:"message,omitempty"` // error
}

func (e *Event) Encode() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		// Event contains only marshalable fields; this is unreachable.
		panic(err)
	}
	return data
}

func NewUserJoin(id Identity, at time.Time) *Event {
	return &Event{
		Type:      EventUserJoin,
		UserID:    id.UserID,
		Username:  id.Username,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

func NewUserLeave(id Identity, at time.Time) *Event {
	return &Event{
		Type:      EventUserLeave,
		UserID:    id.UserID,
		Username:  id.Username,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

func NewSessionEnded(id Identity, at time.Time) *Event {
	return &Event{
		Type:      EventSessionEnded,
		UserID:    id.UserID,
		Username:  id.Username,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

func NewChatMessage(id Identity, content string, at time.Time) *Event {
	return &Event{
		Type:      EventChatMessage,
		UserID:    id.UserID,
		Username:  id.Username,
		Timestamp: at.UTC().Format(time.RFC3339),
		Content:   content,
	}
}

func NewMediaStatus(id Identity, audio, video bool, at time.Time) *Event {
	return &Event{
		Type:         EventMediaStatus,
		UserID:       id.UserID,
		Username:     id.Username,
		Timestamp:    at.UTC().Format(time.RFC3339),
		AudioEnabled: &audio,
		VideoEnabled: &video,
	}
}

func NewErrorEvent(code, message string) *Event {
	return &Event{
		Type:    EventError,
		Code:    code,
		Message: message,
	}
}

func NewPing(at time.Time) *Event {
	return &Event{
		Type:      EventPing,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

func NewPong(at time.Time) *Event {
	return &Event{
		Type:      EventPong,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}
