// Package did derives decentralized identifiers from device public keys.
//
// A DID is "did:<method>:" followed by the lowercase hex of the first 16
// bytes of SHA-256(public key). Derivation is deterministic and does no I/O.
package did

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pilacorp/go-device-sdk/common/engine"
	"github.com/pilacorp/go-device-sdk/common/sdkerr"
)

const (
	// DefaultMethod is the DID method used by lcore devices.
	DefaultMethod = "lcore"
	// KeyIDSize is the number of digest bytes kept in the identifier.
	KeyIDSize = 16
	// VerificationKeyType is the verification method type for P-256 keys.
	VerificationKeyType = "EcdsaSecp256r1VerificationKey2019"

	scheme = "did"
)

// Deriver derives identities for a single DID method.
type Deriver struct {
	method string
	engine engine.Engine
}

// NewDeriver creates a Deriver. An empty method selects DefaultMethod and a
// nil engine selects engine.Default().
func NewDeriver(method string, e engine.Engine) *Deriver {
	d := &Deriver{
		method: DefaultMethod,
		engine: engine.Default(),
	}
	if method != "" {
		d.method = strings.ToLower(method)
	}
	if e != nil {
		d.engine = e
	}
	return d
}

var defaultDeriver = NewDeriver("", nil)

// Derive derives a did:lcore identity from public-key bytes.
func Derive(keyMaterial []byte) (*Identity, error) {
	return defaultDeriver.Derive(keyMaterial)
}

// Derive derives an identity from public-key bytes.
func (d *Deriver) Derive(keyMaterial []byte) (*Identity, error) {
	if len(keyMaterial) == 0 {
		return nil, fmt.Errorf("%w: key material is empty", sdkerr.ErrInvalidInput)
	}
	if err := engine.EnsureInitialized(d.engine); err != nil {
		return nil, err
	}

	digest := d.engine.Hash256(keyMaterial)
	keyID := hex.EncodeToString(digest[:KeyIDSize])

	return &Identity{
		keyMaterial: append([]byte(nil), keyMaterial...),
		method:      d.method,
		keyID:       keyID,
		id:          scheme + ":" + d.method + ":" + keyID,
	}, nil
}

// Method returns the method literal used by the Deriver.
func (d *Deriver) Method() string {
	return d.method
}

// Parse splits a DID string into its method and key id. It checks the shape
// only; the key material cannot be recovered from a DID.
func Parse(s string) (method, keyID string, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] != scheme {
		return "", "", fmt.Errorf("%w: %q is not a did:<method>:<key-id> string", sdkerr.ErrInvalidInput, s)
	}
	method, keyID = parts[1], parts[2]
	if method == "" || method != strings.ToLower(method) {
		return "", "", fmt.Errorf("%w: invalid method %q", sdkerr.ErrInvalidInput, method)
	}
	if len(keyID) != 2*KeyIDSize || keyID != strings.ToLower(keyID) {
		return "", "", fmt.Errorf("%w: key id must be %d lowercase hex characters", sdkerr.ErrInvalidInput, 2*KeyIDSize)
	}
	if _, err := hex.DecodeString(keyID); err != nil {
		return "", "", fmt.Errorf("%w: key id is not hex: %v", sdkerr.ErrInvalidInput, err)
	}
	return method, keyID, nil
}
