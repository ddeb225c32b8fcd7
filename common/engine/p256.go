package engine

import (
	"bytes"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	_ "crypto/sha256" // registers crypto.SHA256 for ES256
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
	"github.com/minio/sha256-simd"
)

const (
	// PrivateKeySize is the length of a raw P-256 scalar.
	PrivateKeySize = 32
	// CompressedPublicKeySize is the length of a SEC1 compressed point.
	CompressedPublicKeySize = 33
	// UncompressedPublicKeySize is the length of a SEC1 uncompressed point.
	UncompressedPublicKeySize = 65
	// SignatureSize is the length of an r||s signature.
	SignatureSize = 64
)

// sha256("abc"), FIPS 180-2 appendix B.1.
var knownAnswer, _ = hex.DecodeString("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")

// P256 signs with ECDSA over NIST P-256 and SHA-256.
type P256 struct {
	guard initGuard
}

// NewP256 returns a P-256 engine.
func NewP256() *P256 {
	return &P256{}
}

var defaultEngine = NewP256()

// Default returns the process-wide P-256 engine.
func Default() Engine {
	return defaultEngine
}

// Init runs a known-answer test of the digest primitive.
func (p *P256) Init() error {
	return p.guard.do(func() error {
		sum := sha256.Sum256([]byte("abc"))
		if !bytes.Equal(sum[:], knownAnswer) {
			return errors.New("sha256 self test failed")
		}
		if !jwt.SigningMethodES256.Hash.Available() {
			return errors.New("sha256 not linked for ES256")
		}
		return nil
	})
}

// Hash256 returns the SHA-256 digest of msg.
func (p *P256) Hash256(msg []byte) [DigestSize]byte {
	return sha256.Sum256(msg)
}

// Sign returns a 64-byte r||s signature over SHA-256(msg).
func (p *P256) Sign(msg, privateKey []byte) ([]byte, error) {
	priv, err := ParsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	sig, err := jwt.SigningMethodES256.Sign(string(msg), priv)
	if err != nil {
		return nil, fmt.Errorf("ecdsa sign: %w", err)
	}
	if len(sig) != SignatureSize {
		return nil, fmt.Errorf("unexpected signature length %d", len(sig))
	}
	return sig, nil
}

// Verify checks a 64-byte r||s signature. Signatures of any other length are
// reported as invalid rather than as errors.
func (p *P256) Verify(msg, publicKey, sig []byte) (bool, error) {
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return false, err
	}
	if len(sig) != SignatureSize {
		return false, nil
	}
	if err := jwt.SigningMethodES256.Verify(string(msg), sig, pub); err != nil {
		if errors.Is(err, jwt.ErrECDSAVerification) {
			return false, nil
		}
		return false, fmt.Errorf("ecdsa verify: %w", err)
	}
	return true, nil
}

// ParsePrivateKey parses a raw 32-byte big-endian P-256 scalar.
func ParsePrivateKey(raw []byte) (*ecdsa.PrivateKey, error) {
	if len(raw) != PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeySize, len(raw))
	}
	// ecdh rejects zero and out-of-range scalars.
	k, err := ecdh.P256().NewPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	pub, err := ParsePublicKey(k.PublicKey().Bytes())
	if err != nil {
		return nil, err
	}
	return &ecdsa.PrivateKey{
		PublicKey: *pub,
		D:         new(big.Int).SetBytes(raw),
	}, nil
}

// ParsePublicKey parses a SEC1 compressed or uncompressed P-256 point.
func ParsePublicKey(raw []byte) (*ecdsa.PublicKey, error) {
	curve := elliptic.P256()

	var x, y *big.Int
	switch {
	case len(raw) == CompressedPublicKeySize && (raw[0] == 0x02 || raw[0] == 0x03):
		x, y = elliptic.UnmarshalCompressed(curve, raw)
	case len(raw) == UncompressedPublicKeySize && raw[0] == 0x04:
		if _, err := ecdh.P256().NewPublicKey(raw); err != nil {
			return nil, fmt.Errorf("invalid public key: %w", err)
		}
		x, y = elliptic.Unmarshal(curve, raw)
	default:
		return nil, fmt.Errorf("unsupported public key format: expected %d bytes (compressed) or %d bytes (uncompressed), got %d bytes",
			CompressedPublicKeySize, UncompressedPublicKeySize, len(raw))
	}
	if x == nil {
		return nil, errors.New("invalid public key: point not on curve")
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

// PublicKey returns the uncompressed public key for a raw private key.
func PublicKey(privateKey []byte) ([]byte, error) {
	k, err := ecdh.P256().NewPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return k.PublicKey().Bytes(), nil
}
