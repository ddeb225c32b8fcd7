// Package jose produces and verifies compact JWS tokens signed with ES256.
//
// A token is base64url(header) "." base64url(payload) "." base64url(signature)
// with the fixed header {"alg":"ES256","typ":"JWT"}. Signer is stateless and
// safe for concurrent use.
package jose

import (
	"fmt"

	"github.com/pilacorp/go-device-sdk/common/b64url"
	"github.com/pilacorp/go-device-sdk/common/engine"
	"github.com/pilacorp/go-device-sdk/common/sdkerr"
)

// Signer signs and verifies compact tokens.
type Signer struct {
	engine engine.Engine
}

// SignerOpt configures a Signer.
type SignerOpt func(s *Signer)

// WithEngine replaces the default P-256 engine.
func WithEngine(e engine.Engine) SignerOpt {
	return func(s *Signer) {
		if e != nil {
			s.engine = e
		}
	}
}

// NewSigner creates a Signer.
func NewSigner(opts ...SignerOpt) *Signer {
	s := &Signer{engine: engine.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign returns the compact token for payload signed with privateKey, a raw
// 32-byte P-256 scalar. An empty payload is allowed.
func (s *Signer) Sign(alg Algorithm, payload, privateKey []byte) (string, error) {
	if len(privateKey) == 0 {
		return "", fmt.Errorf("%w: private key is empty", sdkerr.ErrInvalidInput)
	}
	header, err := encodedHeader(alg)
	if err != nil {
		return "", err
	}

	signingInput := header + string(separator) + b64url.Encode(payload)

	if err := engine.EnsureInitialized(s.engine); err != nil {
		return "", err
	}
	sig, err := s.engine.Sign([]byte(signingInput), privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", sdkerr.ErrSigningFailed, err)
	}

	return signingInput + string(separator) + b64url.Encode(sig), nil
}

// SignTo writes the compact token into dst. When dst is too small nothing is
// written and the error carries the exact token length.
func (s *Signer) SignTo(dst []byte, alg Algorithm, payload, privateKey []byte) (int, error) {
	token, err := s.Sign(alg, payload, privateKey)
	if err != nil {
		return 0, err
	}
	if len(dst) < len(token) {
		return 0, sdkerr.NewBufferTooSmall(len(token), len(dst))
	}
	return copy(dst, token), nil
}

// TokenLen returns the length of an ES256 token carrying payloadLen bytes.
func TokenLen(payloadLen int) int {
	return len(encodedHeaders[ES256]) + 1 + b64url.EncodedLen(payloadLen) + 1 + b64url.EncodedLen(engine.SignatureSize)
}
