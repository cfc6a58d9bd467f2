package ratelimit

import "time"

// Config defines the thresholds for one action class.
type Config struct {
	// MaxAttempts is how many attempts a key may make within Window.
	MaxAttempts int
	// Window is the rolling interval attempts are counted over.
	Window time.Duration
	// BlockDuration is how long a key stays blocked after reaching
	// MaxAttempts, independent of window expiry.
	BlockDuration time.Duration
}

// LoginConfig limits password login attempts: 5 per 15 minutes, 30 minute block.
func LoginConfig() Config {
	return Config{MaxAttempts: 5, Window: 15 * time.Minute, BlockDuration: 30 * time.Minute}
}

// PasswordResetConfig limits reset requests: 3 per hour, 1 hour block.
func PasswordResetConfig() Config {
	return Config{MaxAttempts: 3, Window: time.Hour, BlockDuration: time.Hour}
}

// TokenRefreshConfig limits token refreshes: 10 per 5 minutes, 15 minute block.
func TokenRefreshConfig() Config {
	return Config{MaxAttempts: 10, Window: 5 * time.Minute, BlockDuration: 15 * time.Minute}
}

// GeneralConfig limits general API traffic: 100 per minute, 5 minute block.
func GeneralConfig() Config {
	return Config{MaxAttempts: 100, Window: time.Minute, BlockDuration: 5 * time.Minute}
}
