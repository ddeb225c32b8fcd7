// Package b64url implements the unpadded URL-safe base64 alphabet used by
// compact JWS segments.
package b64url

import (
	"encoding/base64"
	"fmt"

	"github.com/pilacorp/go-device-sdk/common/sdkerr"
)

// Strict rejects encodings whose trailing bits are not zero so that every
// byte sequence has exactly one textual form.
var encoding = base64.RawURLEncoding.Strict()

// EncodedLen returns the length of the encoding of n source bytes.
func EncodedLen(n int) int {
	return encoding.EncodedLen(n)
}

// Encode returns the unpadded base64url form of src.
func Encode(src []byte) string {
	return encoding.EncodeToString(src)
}

// EncodeTo writes the encoding of src into dst and returns the number of bytes
// written. When dst is too small nothing is written and the returned error
// carries the required size.
func EncodeTo(dst, src []byte) (int, error) {
	n := encoding.EncodedLen(len(src))
	if len(dst) < n {
		return 0, sdkerr.NewBufferTooSmall(n, len(dst))
	}
	encoding.Encode(dst, src)
	return n, nil
}

// DecodedLen returns the exact number of bytes s decodes to.
func DecodedLen(s string) (int, error) {
	if err := check(s); err != nil {
		return 0, err
	}
	return encoding.DecodedLen(len(s)), nil
}

// Decode returns the bytes represented by s.
func Decode(s string) ([]byte, error) {
	if err := check(s); err != nil {
		return nil, err
	}
	out, err := encoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sdkerr.ErrInvalidEncoding, err)
	}
	return out, nil
}

// DecodeTo decodes s into dst. dst is left untouched on any failure.
func DecodeTo(dst []byte, s string) (int, error) {
	n, err := DecodedLen(s)
	if err != nil {
		return 0, err
	}
	if len(dst) < n {
		return 0, sdkerr.NewBufferTooSmall(n, len(dst))
	}
	out, err := Decode(s)
	if err != nil {
		return 0, err
	}
	return copy(dst, out), nil
}

// check validates the alphabet and the length before the standard decoder
// runs, since the decoder silently skips CR and LF.
func check(s string) error {
	if len(s)%4 == 1 {
		return fmt.Errorf("%w: length %d cannot be padded", sdkerr.ErrInvalidEncoding, len(s))
	}
	for i := 0; i < len(s); i++ {
		if !isURLSafe(s[i]) {
			return fmt.Errorf("%w: illegal character %q at offset %d", sdkerr.ErrInvalidEncoding, s[i], i)
		}
	}
	return nil
}

func isURLSafe(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}
