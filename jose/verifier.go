package jose

import (
	"fmt"

	"github.com/pilacorp/go-device-sdk/common/b64url"
	"github.com/pilacorp/go-device-sdk/common/engine"
	"github.com/pilacorp/go-device-sdk/common/sdkerr"
)

// Verify checks token against publicKey (SEC1 compressed or uncompressed)
// and returns the decoded payload. The payload is never returned unless the
// signature is valid.
func (s *Signer) Verify(token string, publicKey []byte) ([]byte, error) {
	t, err := s.verify(token, publicKey)
	if err != nil {
		return nil, err
	}
	return t.Payload()
}

// VerifyTo is Verify writing the payload into dst. dst is left untouched on
// every failure; a short dst yields an error carrying the payload size.
func (s *Signer) VerifyTo(dst []byte, token string, publicKey []byte) (int, error) {
	t, err := s.verify(token, publicKey)
	if err != nil {
		return 0, err
	}
	return b64url.DecodeTo(dst, t.RawPayload)
}

func (s *Signer) verify(token string, publicKey []byte) (*Token, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is empty", sdkerr.ErrInvalidInput)
	}
	if len(publicKey) == 0 {
		return nil, fmt.Errorf("%w: public key is empty", sdkerr.ErrInvalidInput)
	}

	t, err := ParseCompact(token)
	if err != nil {
		return nil, err
	}
	sig, err := t.Signature()
	if err != nil {
		return nil, fmt.Errorf("invalid signature segment: %w", err)
	}

	if err := engine.EnsureInitialized(s.engine); err != nil {
		return nil, err
	}
	// Verify over the segments as received, never over a re-encoding.
	ok, err := s.engine.Verify([]byte(t.SigningInput()), publicKey, sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sdkerr.ErrSignatureInvalid, err)
	}
	if !ok {
		return nil, sdkerr.ErrSignatureInvalid
	}
	return t, nil
}
