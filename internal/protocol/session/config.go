package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/mcserve/internal/protocol/frame"
)

var ErrInvalidConfig = errors.New("session: invalid config")

// Config defines per-connection limits and login behavior.
type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// LoginTimeout bounds the time from accept to reaching play.
	LoginTimeout time.Duration
	Limits       frame.Limits
	// MaxStringBytes bounds declared string lengths in payloads.
	MaxStringBytes int
	// CompressionThreshold enables SetCompression when >= 0.
	CompressionThreshold int
	// OnlineMode runs the encryption key exchange during login.
	OnlineMode bool
}

// DefaultConfig answers LoginStart with LoginSuccess directly: no compression
// switch and no key exchange. Set CompressionThreshold (vanilla uses 256) to
// opt in to SetCompression.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:          30 * time.Second,
		WriteTimeout:         10 * time.Second,
		LoginTimeout:         30 * time.Second,
		Limits:               frame.DefaultLimits(),
		MaxStringBytes:       32767 * 3,
		CompressionThreshold: -1,
		OnlineMode:           false,
	}
}

func (c Config) Validate() error {
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.LoginTimeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if c.Limits.MaxPacketBytes < 0 || c.Limits.MaxPacketBytes > frame.MaxPacketBytes {
		return fmt.Errorf("%w: max packet bytes %d", ErrInvalidConfig, c.Limits.MaxPacketBytes)
	}
	if c.MaxStringBytes < 0 {
		return fmt.Errorf("%w: max string bytes %d", ErrInvalidConfig, c.MaxStringBytes)
	}
	if c.CompressionThreshold < -1 {
		return fmt.Errorf("%w: compression threshold %d", ErrInvalidConfig, c.CompressionThreshold)
	}
	return nil
}
