// Package device ties a device key pair to its DID and signs sensor readings
// as compact JWS tokens. The caller owns the key bytes; nothing is persisted.
package device

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pilacorp/go-device-sdk/common/engine"
	"github.com/pilacorp/go-device-sdk/common/sdkerr"
	"github.com/pilacorp/go-device-sdk/did"
	"github.com/pilacorp/go-device-sdk/envelope"
	"github.com/pilacorp/go-device-sdk/jose"
)

// Device is an identity plus the key that signs for it.
type Device struct {
	privateKey []byte
	publicKey  []byte
	identity   *did.Identity
	signer     *jose.Signer
}

// New creates a Device. The DID is derived from publicKey with deriver; a nil
// deriver uses the did:lcore method. publicKey must belong to privateKey.
func New(privateKey, publicKey []byte, deriver *did.Deriver, signer *jose.Signer) (*Device, error) {
	if len(privateKey) == 0 || len(publicKey) == 0 {
		return nil, fmt.Errorf("%w: device keys are required", sdkerr.ErrInvalidInput)
	}
	if deriver == nil {
		deriver = did.NewDeriver("", nil)
	}
	if signer == nil {
		signer = jose.NewSigner()
	}

	derived, err := engine.PublicKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sdkerr.ErrInvalidInput, err)
	}
	if !samePublicKey(derived, publicKey) {
		return nil, errors.New("public key does not match private key")
	}

	id, err := deriver.Derive(publicKey)
	if err != nil {
		return nil, err
	}
	return &Device{
		privateKey: bytes.Clone(privateKey),
		publicKey:  bytes.Clone(publicKey),
		identity:   id,
		signer:     signer,
	}, nil
}

// DID returns the device identity.
func (d *Device) DID() *did.Identity {
	return d.identity
}

// PublicKey returns a copy of the device public key.
func (d *Device) PublicKey() []byte {
	return bytes.Clone(d.publicKey)
}

// SignReading signs payload with ES256.
func (d *Device) SignReading(payload []byte) (string, error) {
	return d.signer.Sign(jose.ES256, payload, d.privateKey)
}

// VerifyReading verifies a token produced by this device.
func (d *Device) VerifyReading(token string) ([]byte, error) {
	return d.signer.Verify(token, d.publicKey)
}

// Registration returns the register_device envelope.
func (d *Device) Registration() (*envelope.Envelope, error) {
	return envelope.NewRegistration(d.identity)
}

// Submission signs payload and wraps it in a submit_sensor_data envelope.
func (d *Device) Submission(payload []byte) (*envelope.Envelope, error) {
	token, err := d.SignReading(payload)
	if err != nil {
		return nil, err
	}
	return envelope.NewSubmission(d.identity, token)
}

// samePublicKey compares an uncompressed key with a compressed or
// uncompressed candidate.
func samePublicKey(uncompressed, candidate []byte) bool {
	switch len(candidate) {
	case engine.UncompressedPublicKeySize:
		return bytes.Equal(uncompressed, candidate)
	case engine.CompressedPublicKeySize:
		x := uncompressed[1:33]
		odd := uncompressed[64]&1 == 1
		return (candidate[0] == 0x03) == odd && candidate[0]&0xfe == 0x02 && bytes.Equal(x, candidate[1:])
	}
	return false
}
