// Package envelope builds the JSON messages a device sends to an lcore node:
// device registration and signed sensor data submission.
package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pilacorp/go-device-sdk/did"
	"github.com/pilacorp/go-device-sdk/jose"
)

// MessageType is the "type" field of an envelope.
type MessageType string

const (
	TypeRegisterDevice   MessageType = "register_device"
	TypeSubmitSensorData MessageType = "submit_sensor_data"
)

// Envelope is a message for the lcore node.
type Envelope struct {
	Type     MessageType `json:"type"`
	DeviceID string      `json:"device_id"`
	// DIDDocument is the serialized DID document, set on registration.
	DIDDocument string `json:"did_document,omitempty"`
	// EncryptedPayload is the compact JWS, set on submission.
	EncryptedPayload string `json:"encrypted_payload,omitempty"`
}

// NewRegistration builds a register_device envelope for id.
func NewRegistration(id *did.Identity) (*Envelope, error) {
	if id == nil {
		return nil, fmt.Errorf("identity is nil")
	}
	doc, err := json.Marshal(id.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal DID document: %w", err)
	}
	return &Envelope{
		Type:        TypeRegisterDevice,
		DeviceID:    id.String(),
		DIDDocument: string(doc),
	}, nil
}

// NewSubmission builds a submit_sensor_data envelope carrying token. The
// token shape is checked but its signature is not.
func NewSubmission(id *did.Identity, token string) (*Envelope, error) {
	if id == nil {
		return nil, fmt.Errorf("identity is nil")
	}
	if _, err := jose.ParseCompact(token); err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return &Envelope{
		Type:             TypeSubmitSensorData,
		DeviceID:         id.String(),
		EncryptedPayload: token,
	}, nil
}

// Marshal returns the JSON form of the envelope.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Hex returns the JSON form as 0x-prefixed lowercase hex, the encoding node
// transactions carry.
func (e *Envelope) Hex() (string, error) {
	data, err := e.Marshal()
	if err != nil {
		return "", err
	}
	return hexutil.Encode(data), nil
}

// DecodeHex parses an envelope from its Hex form.
func DecodeHex(s string) (*Envelope, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex envelope: %w", err)
	}
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return &e, nil
}
