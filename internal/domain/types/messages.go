package types

// MessageType tags the serialized body of an Envelope.
type MessageType uint8

const (
	// WhisperMessageType is a steady-state message.
	WhisperMessageType MessageType = 2
	// PreKeyMessageType is an initial message carrying session setup.
	PreKeyMessageType MessageType = 3
)

// Envelope is what the relay stores and forwards. Body is the serialized
// wire message and is opaque to the relay.
type Envelope struct {
	ID        string      `json:"id"`
	From      Address     `json:"from"`
	To        Address     `json:"to"`
	Type      MessageType `json:"type" validate:"oneof=2 3"`
	Body      []byte      `json:"body" validate:"required"`
	Timestamp int64       `json:"timestamp"`
}

// DecryptedMessage is what MessageService.ReceiveMessage returns.
type DecryptedMessage struct {
	From      Address `json:"from"`
	To        Address `json:"to"`
	Plaintext []byte  `json:"plaintext"`
	Timestamp int64   `json:"timestamp"`
}
