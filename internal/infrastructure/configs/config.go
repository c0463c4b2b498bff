package configs

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/openmentor/relay/internal/infrastructure/env"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	Relay       RelayConfig       `koanf:"relay"`
}

type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	AllowedHeaders []string      `koanf:"allowed_headers"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

type RateLimiterConfig struct {
	MaxRatePerSecond int           `koanf:"maxRatePerSecond"`
	MaxBurst         int           `koanf:"maxBurst"`
	CacheTTL         time.Duration `koanf:"cacheTTL"`
	SourceHeaderKey  string        `koanf:"sourceHeaderKey"`
}

// RelayConfig tunes the signaling relay itself.
type RelayConfig struct {
	// HeartbeatInterval is how often the server pings each connection.
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	// PongWait is the read deadline; refreshed on any inbound frame.
	PongWait time.Duration `koanf:"pong_wait"`
	// AuthorizeTimeout bounds the membership authority lookup during the
	// connection handshake.
	AuthorizeTimeout time.Duration `koanf:"authorize_timeout"`
	// EndGracePeriod is how long a room stays open after session_ended
	// before remaining connections are force-closed.
	EndGracePeriod time.Duration `koanf:"end_grace_period"`
	// MaxMessageSize caps a single inbound frame (SDP offers are a few KB;
	// anything much larger is abuse).
	MaxMessageSize int64 `koanf:"max_message_size"`
	// SendBuffer is the per-connection outbound queue length. A participant
	// that falls this far behind is dropped.
	SendBuffer int `koanf:"send_buffer"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load from YAML file if it exists
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	// HTTP defaults
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.allowed_origins", []string{"*"})
	setDefault(k, "http.allowed_headers", []string{"Content-Type", "Authorization", "X-User-ID"})

	// Rate limiter defaults
	setDefault(k, "rateLimiter.maxRatePerSecond", 10)
	setDefault(k, "rateLimiter.maxBurst", 20)
	setDefault(k, "rateLimiter.cacheTTL", 5*time.Minute)
	setDefault(k, "rateLimiter.sourceHeaderKey", "X-Forwarded-For")

	// Relay defaults. The 30s heartbeat matches what the platform's web
	// clients already expect; pong wait is three missed heartbeats.
	setDefault(k, "relay.heartbeat_interval", 30*time.Second)
	setDefault(k, "relay.pong_wait", 90*time.Second)
	setDefault(k, "relay.authorize_timeout", 5*time.Second)
	setDefault(k, "relay.end_grace_period", 3*time.Second)
	setDefault(k, "relay.max_message_size", 64*1024)
	setDefault(k, "relay.send_buffer", 64)
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	if maxRate := env.GetInt("RATE_LIMIT_MAX_RATE_PER_SECOND", 0); maxRate > 0 {
		k.Set("rateLimiter.maxRatePerSecond", maxRate)
	}
	if maxBurst := env.GetInt("RATE_LIMIT_MAX_BURST", 0); maxBurst > 0 {
		k.Set("rateLimiter.maxBurst", maxBurst)
	}

	if interval := env.GetDuration("RELAY_HEARTBEAT_INTERVAL", 0); interval > 0 {
		k.Set("relay.heartbeat_interval", interval)
	}
	if wait := env.GetDuration("RELAY_PONG_WAIT", 0); wait > 0 {
		k.Set("relay.pong_wait", wait)
	}
	if timeout := env.GetDuration("RELAY_AUTHORIZE_TIMEOUT", 0); timeout > 0 {
		k.Set("relay.authorize_timeout", timeout)
	}
	if grace := env.GetDuration("RELAY_END_GRACE_PERIOD", 0); grace > 0 {
		k.Set("relay.end_grace_period", grace)
	}
	if size := env.GetInt("RELAY_MAX_MESSAGE_SIZE", 0); size > 0 {
		k.Set("relay.max_message_size", int64(size))
	}
	if buf := env.GetInt("RELAY_SEND_BUFFER", 0); buf > 0 {
		k.Set("relay.send_buffer", buf)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
