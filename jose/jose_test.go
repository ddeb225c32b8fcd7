package jose

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-device-sdk/common/b64url"
	"github.com/pilacorp/go-device-sdk/common/engine"
	"github.com/pilacorp/go-device-sdk/common/sdkerr"
)

const sensorData = `{"temperature":23.4,"humidity":52,"timestamp":"2024-01-01T12:00:00Z"}`

const es256Header = "eyJhbGciOiJFUzI1NiIsInR5cCI6IkpXVCJ9"

// 0x01..0x20, the private key used by the device functional tests.
func testKeyPair(t *testing.T) (priv, pub []byte) {
	t.Helper()
	priv = make([]byte, 32)
	for i := range priv {
		priv[i] = byte(i + 1)
	}
	pub, err := engine.PublicKey(priv)
	require.NoError(t, err)
	return priv, pub
}

func TestSign_TokenShape(t *testing.T) {
	priv, _ := testKeyPair(t)
	signer := NewSigner()

	token, err := signer.Sign(ES256, []byte(sensorData), priv)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3, "JWT should have 3 parts")
	assert.Equal(t, es256Header, parts[0])
	assert.NotContains(t, token, "=")
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")

	payload, err := b64url.Decode(parts[1])
	require.NoError(t, err)
	assert.Equal(t, sensorData, string(payload))

	sig, err := b64url.Decode(parts[2])
	require.NoError(t, err)
	assert.Len(t, sig, engine.SignatureSize)
	assert.Len(t, token, TokenLen(len(sensorData)))
}

func TestSignVerify_RoundTrip(t *testing.T) {
	priv, pub := testKeyPair(t)
	signer := NewSigner()

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "empty payload", payload: []byte{}},
		{name: "single byte", payload: []byte{0x7f}},
		{name: "sensor reading", payload: []byte(sensorData)},
		{name: "several kilobytes", payload: bytes.Repeat([]byte(`{"sample":1234567890},`), 400)},
		{name: "binary", payload: []byte{0x00, 0xfb, 0xff, 0xbf, 0x3e, 0x3f}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := signer.Sign(ES256, tt.payload, priv)
			require.NoError(t, err)

			got, err := signer.Verify(token, pub)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.payload, got))
		})
	}
}

func TestSign_InvalidInput(t *testing.T) {
	signer := NewSigner()

	_, err := signer.Sign(ES256, []byte(sensorData), nil)
	assert.ErrorIs(t, err, sdkerr.ErrInvalidInput)

	_, err = signer.Sign(ES256, []byte(sensorData), []byte{})
	assert.ErrorIs(t, err, sdkerr.ErrInvalidInput)
}

func TestSign_UnsupportedAlgorithm(t *testing.T) {
	priv, _ := testKeyPair(t)
	signer := NewSigner()

	for _, alg := range []Algorithm{"ES512", "ES256K", "HS256", "none", ""} {
		token, err := signer.Sign(alg, []byte(sensorData), priv)
		assert.ErrorIs(t, err, sdkerr.ErrUnsupportedAlgorithm, "alg %q", alg)
		assert.Empty(t, token)
	}
}

func TestSign_SigningFailed(t *testing.T) {
	signer := NewSigner()

	tests := []struct {
		name string
		key  []byte
	}{
		{name: "short key", key: []byte{0x01, 0x02}},
		{name: "zero scalar", key: make([]byte, 32)},
		{name: "long key", key: make([]byte, 48)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := signer.Sign(ES256, []byte(sensorData), tt.key)
			assert.ErrorIs(t, err, sdkerr.ErrSigningFailed)
			assert.Empty(t, token)
		})
	}
}

func TestSignTo_BufferNegotiation(t *testing.T) {
	priv, pub := testKeyPair(t)
	signer := NewSigner()

	small := make([]byte, 16)
	n, err := signer.SignTo(small, ES256, []byte(sensorData), priv)
	require.ErrorIs(t, err, sdkerr.ErrBufferTooSmall)
	assert.Zero(t, n)
	assert.Equal(t, make([]byte, 16), small)

	required, ok := sdkerr.RequiredSize(err)
	require.True(t, ok)
	assert.Equal(t, TokenLen(len(sensorData)), required)

	buf := make([]byte, required)
	n, err = signer.SignTo(buf, ES256, []byte(sensorData), priv)
	require.NoError(t, err)
	assert.Equal(t, required, n)

	payload, err := signer.Verify(string(buf[:n]), pub)
	require.NoError(t, err)
	assert.Equal(t, sensorData, string(payload))
}

func TestVerifyTo_BufferNegotiation(t *testing.T) {
	priv, pub := testKeyPair(t)
	signer := NewSigner()

	token, err := signer.Sign(ES256, []byte(sensorData), priv)
	require.NoError(t, err)

	small := make([]byte, 8)
	_, err = signer.VerifyTo(small, token, pub)
	require.ErrorIs(t, err, sdkerr.ErrBufferTooSmall)
	assert.Equal(t, make([]byte, 8), small)

	required, ok := sdkerr.RequiredSize(err)
	require.True(t, ok)
	assert.Equal(t, len(sensorData), required)

	buf := make([]byte, required)
	n, err := signer.VerifyTo(buf, token, pub)
	require.NoError(t, err)
	assert.Equal(t, sensorData, string(buf[:n]))
}

func TestVerifyTo_InvalidSignatureLeavesBufferUntouched(t *testing.T) {
	priv, _ := testKeyPair(t)
	otherPriv := bytes.Repeat([]byte{0x42}, 32)
	otherPub, err := engine.PublicKey(otherPriv)
	require.NoError(t, err)

	signer := NewSigner()
	token, err := signer.Sign(ES256, []byte(sensorData), priv)
	require.NoError(t, err)

	buf := bytes.Repeat([]byte{0xee}, 256)
	n, err := signer.VerifyTo(buf, token, otherPub)
	require.ErrorIs(t, err, sdkerr.ErrSignatureInvalid)
	assert.Zero(t, n)
	assert.Equal(t, bytes.Repeat([]byte{0xee}, 256), buf)
}

func TestVerify_TamperDetection(t *testing.T) {
	priv, pub := testKeyPair(t)
	signer := NewSigner()

	token, err := signer.Sign(ES256, []byte(sensorData), priv)
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		payload, err := signer.Verify(tampered, pub)
		require.Error(t, err, "offset %d", i)
		assert.Nil(t, payload, "offset %d", i)
		assert.True(t,
			errors.Is(err, sdkerr.ErrSignatureInvalid) ||
				errors.Is(err, sdkerr.ErrInvalidEncoding) ||
				errors.Is(err, sdkerr.ErrMalformedToken),
			"offset %d: unexpected error %v", i, err)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	priv, _ := testKeyPair(t)
	otherPub, err := engine.PublicKey(bytes.Repeat([]byte{0x42}, 32))
	require.NoError(t, err)

	signer := NewSigner()
	token, err := signer.Sign(ES256, []byte(sensorData), priv)
	require.NoError(t, err)

	payload, err := signer.Verify(token, otherPub)
	assert.ErrorIs(t, err, sdkerr.ErrSignatureInvalid)
	assert.Nil(t, payload)
}

func TestVerify_MalformedShapes(t *testing.T) {
	_, pub := testKeyPair(t)
	signer := NewSigner()
	sig := b64url.Encode(make([]byte, engine.SignatureSize))

	tests := []struct {
		name  string
		token string
	}{
		{name: "no separator", token: es256Header},
		{name: "one separator", token: es256Header + ".e30"},
		{name: "three separators", token: es256Header + ".e30." + sig + ".x"},
		{name: "trailing separator", token: es256Header + ".e30." + sig + "."},
		{name: "only separators", token: ".."},
		{name: "empty header", token: ".e30." + sig},
		{name: "empty signature", token: es256Header + ".e30."},
		{name: "consecutive separators", token: es256Header + "..." + sig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := signer.Verify(tt.token, pub)
			assert.ErrorIs(t, err, sdkerr.ErrMalformedToken)
			assert.Nil(t, payload)
		})
	}
}

func TestVerify_InvalidSignatureEncoding(t *testing.T) {
	_, pub := testKeyPair(t)
	signer := NewSigner()

	payload, err := signer.Verify(es256Header+".e30.not+base64url", pub)
	assert.ErrorIs(t, err, sdkerr.ErrInvalidEncoding)
	assert.Nil(t, payload)
}

func TestVerify_WrongSignatureLength(t *testing.T) {
	priv, pub := testKeyPair(t)
	signer := NewSigner()

	token, err := signer.Sign(ES256, []byte(sensorData), priv)
	require.NoError(t, err)
	tok, err := ParseCompact(token)
	require.NoError(t, err)

	for _, size := range []int{1, 63, 65, 72} {
		forged := tok.SigningInput() + "." + b64url.Encode(make([]byte, size))
		payload, err := signer.Verify(forged, pub)
		assert.ErrorIs(t, err, sdkerr.ErrSignatureInvalid, "size %d", size)
		assert.Nil(t, payload)
	}
}

func TestVerify_InvalidInput(t *testing.T) {
	priv, pub := testKeyPair(t)
	signer := NewSigner()
	token, err := signer.Sign(ES256, []byte(sensorData), priv)
	require.NoError(t, err)

	_, err = signer.Verify("", pub)
	assert.ErrorIs(t, err, sdkerr.ErrInvalidInput)

	_, err = signer.Verify(token, nil)
	assert.ErrorIs(t, err, sdkerr.ErrInvalidInput)
}

func TestVerify_MalformedPublicKey(t *testing.T) {
	priv, _ := testKeyPair(t)
	signer := NewSigner()
	token, err := signer.Sign(ES256, []byte(sensorData), priv)
	require.NoError(t, err)

	payload, err := signer.Verify(token, []byte{0x04, 0x01})
	assert.ErrorIs(t, err, sdkerr.ErrSignatureInvalid)
	assert.Nil(t, payload)
}

type unavailableEngine struct {
	engine.Engine
}

func (unavailableEngine) Init() error { return errors.New("psa init failed") }

func TestSigner_EngineUnavailable(t *testing.T) {
	priv, pub := testKeyPair(t)
	signer := NewSigner(WithEngine(unavailableEngine{}))

	_, err := signer.Sign(ES256, []byte(sensorData), priv)
	assert.ErrorIs(t, err, sdkerr.ErrEngineUnavailable)

	token, err := NewSigner().Sign(ES256, []byte(sensorData), priv)
	require.NoError(t, err)
	_, err = signer.Verify(token, pub)
	assert.ErrorIs(t, err, sdkerr.ErrEngineUnavailable)
}

func TestSigner_Concurrent(t *testing.T) {
	priv, pub := testKeyPair(t)
	signer := NewSigner()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := []byte(strings.Repeat("x", i))
			token, err := signer.Sign(ES256, payload, priv)
			if err != nil {
				errs <- err
				return
			}
			got, err := signer.Verify(token, pub)
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(payload, got) {
				errs <- errors.New("payload mismatch")
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestParseCompact(t *testing.T) {
	tok, err := ParseCompact(es256Header + ".e30.c2ln")
	require.NoError(t, err)
	assert.Equal(t, es256Header, tok.RawHeader)
	assert.Equal(t, "e30", tok.RawPayload)
	assert.Equal(t, "c2ln", tok.RawSignature)
	assert.Equal(t, es256Header+".e30", tok.SigningInput())
	assert.Equal(t, es256Header+".e30.c2ln", tok.String())

	header, err := tok.Header()
	require.NoError(t, err)
	assert.Equal(t, `{"alg":"ES256","typ":"JWT"}`, string(header))

	payload, err := tok.Payload()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(payload))

	_, err = ParseCompact("")
	assert.ErrorIs(t, err, sdkerr.ErrInvalidInput)
}
