package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionBackend selects where Session slots are stored.
type SessionBackend string

const (
	SessionBackendMemory   SessionBackend = "memory"
	SessionBackendRedis    SessionBackend = "redis"
	SessionBackendPostgres SessionBackend = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionBackend.
func (b *SessionBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis", "postgres":
		*b = SessionBackend(v)
		return nil
	case "postgresql", "pg":
		*b = SessionBackendPostgres
		return nil
	default:
		return fmt.Errorf("invalid SessionBackend: %q (valid options: memory, redis, postgres)", v)
	}
}

// SessionConfig contains session slot and cookie configuration.
type SessionConfig struct {
	Backend SessionBackend `env:"BACKEND" envDefault:"memory"`

	// TTL is the lifetime of a Session slot.
	TTL time.Duration `env:"TTL" envDefault:"8h"`

	CookieName string `env:"COOKIE_NAME" envDefault:"kph_session"`

	// KeyPrefix namespaces slots in a shared Redis.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"kph_user:"`

	// MemoryCapacity bounds the in-memory backend.
	MemoryCapacity int `env:"MEMORY_CAPACITY" envDefault:"10000"`

	// ReaperInterval is how often expired Postgres slots are purged.
	ReaperInterval time.Duration `env:"REAPER_INTERVAL" envDefault:"15m"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.TTL < time.Minute {
		s.TTL = time.Minute
	}
	if s.TTL > 7*24*time.Hour {
		s.TTL = 7 * 24 * time.Hour
	}
	if s.MemoryCapacity < 100 {
		s.MemoryCapacity = 100
	}
	if s.ReaperInterval < time.Minute {
		s.ReaperInterval = time.Minute
	}
	s.CookieName = strings.TrimSpace(s.CookieName)
	if s.CookieName == "" {
		s.CookieName = "kph_session"
	}
}

// Validate checks the session configuration.
func (s *SessionConfig) Validate() error {
	switch s.Backend {
	case SessionBackendMemory, SessionBackendRedis, SessionBackendPostgres:
	default:
		return fmt.Errorf("unsupported session backend %q", s.Backend)
	}
	if strings.ContainsAny(s.CookieName, " ;,=\t") {
		return fmt.Errorf("invalid session cookie name %q", s.CookieName)
	}
	return nil
}
