package configs

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sketchrelay/server/internal/infrastructure/env"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	Room        RoomConfig        `koanf:"room"`
	WS          WSConfig          `koanf:"ws"`
	Tracing     TracingConfig     `koanf:"tracing"`
}

type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int           `koanf:"requestsPerTimeFrame"`
	TimeFrame            time.Duration `koanf:"timeFrame"`
}

type RoomConfig struct {
	// GracePeriod is how long an empty room survives before removal.
	GracePeriod time.Duration `koanf:"grace_period"`
}

type WSConfig struct {
	// SendBuffer is the per-connection outbound queue; when it overflows,
	// broadcasts to that connection are dropped rather than blocking a room.
	SendBuffer      int   `koanf:"send_buffer"`
	MaxMessageBytes int64 `koanf:"max_message_bytes"`
}

type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
}

// Load reads the YAML config at path (if any), then applies defaults and
// environment variable overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

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
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 3101)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.allowed_origins", []string{"*"})

	setDefault(k, "rateLimiter.requestsPerTimeFrame", 100)
	setDefault(k, "rateLimiter.timeFrame", time.Minute)

	setDefault(k, "room.grace_period", 5*time.Minute)

	setDefault(k, "ws.send_buffer", 64)
	setDefault(k, "ws.max_message_bytes", int64(1<<20))

	setDefault(k, "tracing.enabled", false)
	setDefault(k, "tracing.endpoint", "http://localhost:4318")
	setDefault(k, "tracing.service_name", "sketchrelay")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetDuration("HTTP_READ_TIMEOUT", 0); readTimeout > 0 {
		k.Set("http.read_timeout", readTimeout)
	}
	if writeTimeout := env.GetDuration("HTTP_WRITE_TIMEOUT", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", writeTimeout)
	}

	if maxRate := env.GetInt("RATE_LIMIT_REQUESTS_PER_TIME_FRAME", 0); maxRate > 0 {
		k.Set("rateLimiter.requestsPerTimeFrame", maxRate)
	}
	if timeFrame := env.GetDuration("RATE_LIMIT_TIME_FRAME", 0); timeFrame > 0 {
		k.Set("rateLimiter.timeFrame", timeFrame)
	}

	if grace := env.GetDuration("ROOM_GRACE_PERIOD", 0); grace > 0 {
		k.Set("room.grace_period", grace)
	}

	if buffer := env.GetInt("WS_SEND_BUFFER", 0); buffer > 0 {
		k.Set("ws.send_buffer", buffer)
	}
	if maxBytes := env.GetInt("WS_MAX_MESSAGE_BYTES", 0); maxBytes > 0 {
		k.Set("ws.max_message_bytes", int64(maxBytes))
	}

	if env.GetBool("TRACING_ENABLED", false) {
		k.Set("tracing.enabled", true)
	}
	if endpoint := env.GetString("OTLP_ENDPOINT", ""); endpoint != "" {
		k.Set("tracing.endpoint", endpoint)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
