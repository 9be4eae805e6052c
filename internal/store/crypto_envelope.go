package store

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// sealedFormatVersion is the current on-disk format of sealed blobs.
const sealedFormatVersion = 1

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// sealed blob has been modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted identity")

// ScryptParams tune passphrase stretching. Tests use cheap values.
type ScryptParams struct {
	N, R, P int
}

// DefaultScryptParams are the parameters used for new blobs.
func DefaultScryptParams() ScryptParams { return ScryptParams{N: 1 << 15, R: 8, P: 1} }

// sealed is the on-disk JSON structure holding the ciphertext and KDF parameters.
type sealed struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// seal derives a key from passphrase and encrypts raw with XChaCha20-Poly1305.
// The header fields are bound as associated data.
func seal(passphrase string, raw []byte, params ScryptParams) ([]byte, error) {
	s := sealed{V: sealedFormatVersion, N: params.N, R: params.R, P: params.P}
	s.Salt = make([]byte, 16)
	if _, err := rand.Read(s.Salt); err != nil {
		return nil, err
	}
	s.Nonce = make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(s.Nonce); err != nil {
		return nil, err
	}
	aead, err := s.aead(passphrase)
	if err != nil {
		return nil, err
	}
	s.Cipher = aead.Seal(nil, s.Nonce, raw, s.ad())
	return json.Marshal(s)
}

// open reverses seal.
func open(passphrase string, b []byte) ([]byte, error) {
	var s sealed
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode sealed blob: %w", err)
	}
	if s.V != sealedFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", s.V)
	}
	if len(s.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, ErrWrongPassphrase
	}
	aead, err := s.aead(passphrase)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, s.Nonce, s.Cipher, s.ad())
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func (s sealed) aead(passphrase string) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), s.Salt, s.N, s.R, s.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	return chacha20poly1305.NewX(key)
}

func (s sealed) ad() []byte {
	return fmt.Appendf(nil, "axolotl-keystore/v%d/%d/%d/%d/%x", s.V, s.N, s.R, s.P, s.Salt)
}
