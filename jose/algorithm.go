package jose

import (
	"encoding/json"
	"fmt"

	"github.com/pilacorp/go-device-sdk/common/b64url"
	"github.com/pilacorp/go-device-sdk/common/sdkerr"
)

// Algorithm is a JWS "alg" value.
type Algorithm string

// ES256 is ECDSA over P-256 with SHA-256, the only algorithm devices sign with.
const ES256 Algorithm = "ES256"

// TokenType is the fixed "typ" header value.
const TokenType = "JWT"

// Header is the protected header. Field order fixes the serialization to
// {"alg":"ES256","typ":"JWT"}.
type Header struct {
	Alg Algorithm `json:"alg"`
	Typ string    `json:"typ"`
}

// encodedHeaders holds the base64url header segment per supported algorithm.
var encodedHeaders = map[Algorithm]string{
	ES256: mustEncodeHeader(ES256),
}

func mustEncodeHeader(alg Algorithm) string {
	raw, err := json.Marshal(Header{Alg: alg, Typ: TokenType})
	if err != nil {
		panic(err)
	}
	return b64url.Encode(raw)
}

// encodedHeader returns the header segment for alg.
func encodedHeader(alg Algorithm) (string, error) {
	h, ok := encodedHeaders[alg]
	if !ok {
		return "", fmt.Errorf("%w: %q", sdkerr.ErrUnsupportedAlgorithm, alg)
	}
	return h, nil
}
