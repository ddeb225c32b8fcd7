package jose

import (
	"fmt"
	"strings"

	"github.com/pilacorp/go-device-sdk/common/b64url"
	"github.com/pilacorp/go-device-sdk/common/sdkerr"
)

const separator = '.'

// Token is a compact JWS split into its three encoded segments. The segments
// are kept exactly as received so that verification runs over the bytes that
// were signed.
type Token struct {
	RawHeader    string
	RawPayload   string
	RawSignature string
}

// ParseCompact splits a compact token. It accepts exactly two separators, a
// non-empty header and a non-empty signature. The payload segment may be
// empty. ParseCompact does not verify anything.
func ParseCompact(token string) (*Token, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is empty", sdkerr.ErrInvalidInput)
	}
	if n := strings.Count(token, string(separator)); n != 2 {
		return nil, fmt.Errorf("%w: expected 2 separators, found %d", sdkerr.ErrMalformedToken, n)
	}

	first := strings.IndexByte(token, separator)
	second := first + 1 + strings.IndexByte(token[first+1:], separator)

	t := &Token{
		RawHeader:    token[:first],
		RawPayload:   token[first+1 : second],
		RawSignature: token[second+1:],
	}
	if t.RawHeader == "" {
		return nil, fmt.Errorf("%w: empty header segment", sdkerr.ErrMalformedToken)
	}
	if t.RawSignature == "" {
		return nil, fmt.Errorf("%w: empty signature segment", sdkerr.ErrMalformedToken)
	}
	return t, nil
}

// SigningInput returns header "." payload as received.
func (t *Token) SigningInput() string {
	return t.RawHeader + string(separator) + t.RawPayload
}

// Header decodes the header segment.
func (t *Token) Header() ([]byte, error) {
	return b64url.Decode(t.RawHeader)
}

// Payload decodes the payload segment. The payload is not authenticated
// until Signer.Verify succeeds.
func (t *Token) Payload() ([]byte, error) {
	return b64url.Decode(t.RawPayload)
}

// Signature decodes the signature segment.
func (t *Token) Signature() ([]byte, error) {
	return b64url.Decode(t.RawSignature)
}

// String reassembles the compact form.
func (t *Token) String() string {
	return t.SigningInput() + string(separator) + t.RawSignature
}
