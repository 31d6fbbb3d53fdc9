package portalkit

import (
	"errors"
	"net/url"
	"time"
)

// Config defines a public type used by portalkit APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Gateway     GatewayConfig
	Session     SessionConfig
	Fingerprint FingerprintConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
GATEWAY CONFIG
====================================
*/

// GatewayConfig defines a public type used by portalkit APIs.
//
// GatewayConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GatewayConfig struct {
	BaseURL string
	APIKey  string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by portalkit APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	InactivityTimeout time.Duration
	RefreshThreshold  time.Duration

	// TransientRefreshRetries is the number of extra attempts made when a
	// refresh fails in transport before the failure ends the session. A
	// backend rejection is never retried. 0 means any refresh failure logs
	// the customer out.
	TransientRefreshRetries int
}

// FingerprintConfig defines a public type used by portalkit APIs.
//
// FingerprintConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FingerprintConfig struct {
	ClientVersion string
}

// AuditConfig defines a public type used by portalkit APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by portalkit APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			InactivityTimeout:       30 * time.Minute,
			RefreshThreshold:        60 * time.Minute,
			TransientRefreshRetries: 0,
		},
		Fingerprint: FingerprintConfig{
			ClientVersion: "portalkit/1",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types today; the copy exists so later reference
	// fields get deep-copied in one place.
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Gateway
	if c.Gateway.BaseURL == "" {
		return errors.New("Gateway BaseURL is required")
	}
	if u, err := url.Parse(c.Gateway.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("Gateway BaseURL must be an absolute URL")
	}
	if c.Gateway.APIKey == "" {
		return errors.New("Gateway APIKey is required")
	}

	// Session
	if c.Session.InactivityTimeout <= 0 {
		return errors.New("Session InactivityTimeout must be > 0")
	}
	if c.Session.RefreshThreshold <= 0 {
		return errors.New("Session RefreshThreshold must be > 0")
	}
	if c.Session.TransientRefreshRetries < 0 {
		return errors.New("Session TransientRefreshRetries must be >= 0")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
