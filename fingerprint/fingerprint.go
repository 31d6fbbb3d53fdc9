package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Signals is the fixed set of device characteristics folded into the
// fingerprint digest. Unavailable signals stay at their zero value.
type Signals struct {
	UserAgent           string
	Language            string
	ScreenWidth         int
	ScreenHeight        int
	ColorDepth          int
	Timezone            string
	Platform            string
	TouchSupport        bool
	HardwareConcurrency int
	DeviceMemoryGB      int
	WebGLVendor         string
	WebGLRenderer       string
	CanvasDigest        string
}

// Source produces the raw device signals for fingerprinting. Implementations
// must be best-effort: a signal they cannot determine is left at its zero
// value rather than reported as an error.
type Source interface {
	Collect() Signals
}

// SourceFunc adapts a plain function to the [Source] interface.
type SourceFunc func() Signals

// Collect describes the collect operation and its observable behavior.
func (f SourceFunc) Collect() Signals { return f() }

// HostSource defines a public type used by portalkit APIs.
//
// HostSource instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HostSource struct {
	// ClientVersion is folded into the synthetic user-agent string so that
	// SDK upgrades produce a new fingerprint, matching how browser upgrades
	// shift a user-agent derived fingerprint.
	ClientVersion string
}

// Collect gathers the host-level analogs of the browser signals: runtime
// platform and CPU count stand in for navigator.platform and
// hardwareConcurrency, locale and timezone come from the environment.
// Every lookup is best-effort.
func (h HostSource) Collect() Signals {
	version := h.ClientVersion
	if version == "" {
		version = "dev"
	}

	sig := Signals{
		UserAgent:           "portalkit/" + version + " (" + runtime.GOOS + "; " + runtime.GOARCH + ")",
		Platform:            runtime.GOOS,
		HardwareConcurrency: runtime.NumCPU(),
	}

	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			sig.Language = v
			break
		}
	}

	if loc := time.Local; loc != nil {
		sig.Timezone = loc.String()
	}

	return sig
}

// Generator computes the device fingerprint from a [Source].
type Generator struct {
	source Source
}

// NewGenerator creates a [Generator] reading from the given source. A nil
// source degrades to all-zero signals, which still hashes deterministically.
func NewGenerator(source Source) *Generator {
	return &Generator{source: source}
}

// Generate collects the signals, serializes them deterministically, and
// returns the lowercase hex SHA-256 digest. It never fails: missing signals
// contribute empty fields to the serialization.
//
// Generate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *Generator) Generate() string {
	var sig Signals
	if g != nil && g.source != nil {
		sig = g.source.Collect()
	}
	return Digest(sig)
}

// Digest serializes the signals with a fixed field order and separator and
// returns the lowercase hex SHA-256 of the result. Exported so callers with
// pre-collected signals (tests, the probe tool) can hash without a Source.
func Digest(sig Signals) string {
	fields := []string{
		sig.UserAgent,
		sig.Language,
		fmt.Sprintf("%dx%dx%d", sig.ScreenWidth, sig.ScreenHeight, sig.ColorDepth),
		sig.Timezone,
		sig.Platform,
		strconv.FormatBool(sig.TouchSupport),
		strconv.Itoa(sig.HardwareConcurrency),
		strconv.Itoa(sig.DeviceMemoryGB),
		sig.WebGLVendor,
		sig.WebGLRenderer,
		sig.CanvasDigest,
	}

	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}
