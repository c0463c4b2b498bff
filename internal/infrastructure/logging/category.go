package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	WebSocket       Category = "WebSocket"
	Registry        Category = "Registry"
	Dashboard       Category = "Dashboard"
	Mongo           Category = "Mongo"
	RabbitMQ        Category = "RabbitMQ"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
	Prometheus      Category = "Prometheus"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"

	// WebSocket
	Handshake SubCategory = "Handshake"
	Authorize SubCategory = "Authorize"
	Relay     SubCategory = "Relay"
	Presence  SubCategory = "Presence"
	Heartbeat SubCategory = "Heartbeat"
	FanOut    SubCategory = "FanOut"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	BodySize     ExtraKey = "BodySize"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	RoomCode     ExtraKey = "RoomCode"
	UserId       ExtraKey = "UserId"
	MessageType  ExtraKey = "MessageType"
	CloseCode    ExtraKey = "CloseCode"
	ErrorMessage ExtraKey = "ErrorMessage"
)
