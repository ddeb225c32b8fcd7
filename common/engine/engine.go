// Package engine provides the digest and signature primitives the DID and
// JOSE packages are built on.
//
// An Engine may need a one-time bootstrap. Callers run EnsureInitialized before
// every cryptographic operation; repeated calls are cheap no-ops once the
// engine came up.
package engine

import (
	"fmt"
	"sync"

	"github.com/pilacorp/go-device-sdk/common/sdkerr"
)

// DigestSize is the size of a Hash256 digest.
const DigestSize = 32

// Engine is the capability set consumed by the SDK.
type Engine interface {
	// Init bootstraps the engine. It must be idempotent and safe for
	// concurrent use.
	Init() error
	// Hash256 returns the 256-bit digest of msg.
	Hash256(msg []byte) [DigestSize]byte
	// Sign signs msg with a raw private key.
	Sign(msg, privateKey []byte) ([]byte, error)
	// Verify reports whether sig is a valid signature of msg. An error means
	// the inputs could not be used at all, e.g. a malformed public key.
	Verify(msg, publicKey, sig []byte) (bool, error)
}

// EnsureInitialized runs e.Init and maps a failure to ErrEngineUnavailable.
func EnsureInitialized(e Engine) error {
	if e == nil {
		return fmt.Errorf("%w: no engine configured", sdkerr.ErrEngineUnavailable)
	}
	if err := e.Init(); err != nil {
		return fmt.Errorf("%w: %w", sdkerr.ErrEngineUnavailable, err)
	}
	return nil
}

// initGuard runs a bootstrap function until it succeeds once. A failed
// attempt is not remembered, so a later call may try again.
type initGuard struct {
	mu   sync.Mutex
	done bool
}

func (g *initGuard) do(f func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.done {
		return nil
	}
	if err := f(); err != nil {
		return err
	}
	g.done = true
	return nil
}
