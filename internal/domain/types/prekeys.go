package types

// PreKeyRecord is a one-time pre-key stored locally.
type PreKeyRecord struct {
	ID      PreKeyID `json:"id"`
	KeyPair KeyPair  `json:"key_pair"`
}

// SignedPreKeyRecord is a signed pre-key stored locally.
type SignedPreKeyRecord struct {
	ID        SignedPreKeyID `json:"id"`
	KeyPair   KeyPair        `json:"key_pair"`
	Signature []byte         `json:"signature"`
	Timestamp int64          `json:"timestamp"`
}

// PreKeyBundle is the set of public keys a peer publishes so others can start
// a session while it is offline.
//
// PreKeyID and PreKey are both set or both nil.
type PreKeyBundle struct {
	Username              Username       `json:"username"`
	RegistrationID        RegistrationID `json:"registration_id"`
	DeviceID              uint32         `json:"device_id"`
	PreKeyID              *PreKeyID      `json:"pre_key_id,omitempty"`
	PreKey                *X25519Public  `json:"pre_key,omitempty"`
	SignedPreKeyID        SignedPreKeyID `json:"signed_pre_key_id"`
	SignedPreKey          X25519Public   `json:"signed_pre_key"`
	SignedPreKeySignature []byte         `json:"signed_pre_key_signature"`
	IdentityKey           X25519Public   `json:"identity_key"`
	SigningKey            Ed25519Public  `json:"signing_key"`
}

// OneTimePreKey is the public half of a one-time pre-key as uploaded.
type OneTimePreKey struct {
	ID  PreKeyID     `json:"id"`
	Key X25519Public `json:"key"`
}

// PublishedBundle is what a device uploads to the relay. The relay hands out
// one OneTimePreKeys entry per fetched PreKeyBundle and never reuses it.
type PublishedBundle struct {
	Username              Username        `json:"username" validate:"required"`
	DeviceID              uint32          `json:"device_id"`
	RegistrationID        RegistrationID  `json:"registration_id"`
	IdentityKey           X25519Public    `json:"identity_key"`
	SigningKey            Ed25519Public   `json:"signing_key"`
	SignedPreKeyID        SignedPreKeyID  `json:"signed_pre_key_id"`
	SignedPreKey          X25519Public    `json:"signed_pre_key"`
	SignedPreKeySignature []byte          `json:"signed_pre_key_signature" validate:"required,len=64"`
	OneTimePreKeys        []OneTimePreKey `json:"one_time_pre_keys" validate:"max=1000"`
}

// Take returns the bundle handed to a fetcher. otk is nil when none is left.
func (b PublishedBundle) Take(otk *OneTimePreKey) PreKeyBundle {
	out := PreKeyBundle{
		Username:              b.Username,
		RegistrationID:        b.RegistrationID,
		DeviceID:              b.DeviceID,
		SignedPreKeyID:        b.SignedPreKeyID,
		SignedPreKey:          b.SignedPreKey,
		SignedPreKeySignature: b.SignedPreKeySignature,
		IdentityKey:           b.IdentityKey,
		SigningKey:            b.SigningKey,
	}
	if otk != nil {
		id, key := otk.ID, otk.Key
		out.PreKeyID, out.PreKey = &id, &key
	}
	return out
}
