package did

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pilacorp/go-device-sdk/common/sdkerr"
)

// Identity is a DID derived from public-key material. It is immutable; the
// caller may cache it for as long as it likes.
type Identity struct {
	keyMaterial []byte
	method      string
	keyID       string
	id          string
}

// DIDDocument is the DID document published at device registration.
type DIDDocument struct {
	Context            []string             `json:"@context"`
	Id                 string               `json:"id"`
	Controller         string               `json:"controller"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	Authentication     []string             `json:"authentication"`
	AssertionMethod    []string             `json:"assertionMethod"`
}

// VerificationMethod is the verification method for the DID document.
type VerificationMethod struct {
	Id           string `json:"id"`
	Type         string `json:"type"`
	Controller   string `json:"controller"`
	PublicKeyHex string `json:"publicKeyHex,omitempty"`
}

// String returns the canonical DID, e.g. "did:lcore:cbc32f41bbb1b704b200067859a90d4c".
func (i *Identity) String() string {
	return i.id
}

// Method returns the DID method literal.
func (i *Identity) Method() string {
	return i.method
}

// KeyID returns the 32 lowercase hex characters after the method.
func (i *Identity) KeyID() string {
	return i.keyID
}

// KeyMaterial returns a copy of the key bytes the identity was derived from.
func (i *Identity) KeyMaterial() []byte {
	return bytes.Clone(i.keyMaterial)
}

// Equal reports whether two identities carry the same DID.
func (i *Identity) Equal(other *Identity) bool {
	if i == nil || other == nil {
		return i == other
	}
	return i.id == other.id
}

// CopyTo writes the DID into dst. When dst is too small nothing is written and
// the error carries the required size.
func (i *Identity) CopyTo(dst []byte) (int, error) {
	if len(dst) < len(i.id) {
		return 0, sdkerr.NewBufferTooSmall(len(i.id), len(dst))
	}
	return copy(dst, i.id), nil
}

// Document builds the DID document for the identity. The device controls
// its own DID.
func (i *Identity) Document() *DIDDocument {
	keyRef := i.id + "#key-1"
	return &DIDDocument{
		Context: []string{
			"https://w3id.org/security/v1",
			"https://www.w3.org/ns/did/v1",
		},
		Id:         i.id,
		Controller: i.id,
		VerificationMethod: []VerificationMethod{{
			Id:           keyRef,
			Type:         VerificationKeyType,
			Controller:   i.id,
			PublicKeyHex: hexutil.Encode(i.keyMaterial),
		}},
		Authentication:  []string{keyRef},
		AssertionMethod: []string{keyRef},
	}
}
