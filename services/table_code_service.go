package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrInvalidTableCode is returned for tokens that fail to decrypt
var ErrInvalidTableCode = errors.New("invalid table code")

// TableCodeService turns table ids into opaque tokens for customer URLs and back
type TableCodeService struct {
	key []byte
}

// NewTableCodeService derives an XChaCha20-Poly1305 key from secret
func NewTableCodeService(secret string) (*TableCodeService, error) {
	if secret == "" {
		return nil, errors.New("table code secret is empty")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("tableside table code v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive table code key: %w", err)
	}
	return &TableCodeService{key: key}, nil
}

// Encode returns a URL-safe token for the table. Every call yields a different token.
func (s *TableCodeService) Encode(tableID uint) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+8+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}
	plain := binary.BigEndian.AppendUint64(nil, uint64(tableID))
	return base64.RawURLEncoding.EncodeToString(aead.Seal(nonce, nonce, plain, nil)), nil
}

// Decode returns the table id carried by a token
func (s *TableCodeService) Decode(code string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil {
		return 0, ErrInvalidTableCode
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return 0, err
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return 0, ErrInvalidTableCode
	}
	plain, err := aead.Open(nil, raw[:aead.NonceSize()], raw[aead.NonceSize():], nil)
	if err != nil || len(plain) != 8 {
		return 0, ErrInvalidTableCode
	}
	id := binary.BigEndian.Uint64(plain)
	if id == 0 {
		return 0, ErrInvalidTableCode
	}
	return uint(id), nil
}
