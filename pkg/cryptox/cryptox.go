// Package cryptox provides the credential sealing scheme and the digest
// helper shared with response cache key derivation.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLen    = 16
	keyLen     = 32 // AES-256
	iterations = 100_000
)

// ErrCiphertextInvalid is returned when a sealed blob is malformed or its
// authentication tag does not verify.
var ErrCiphertextInvalid = errors.New("ciphertext invalid")

// HashSHA256Hex returns the lowercase 64-hex-character SHA-256 digest of s.
// Deterministic, collision-resistant, one-way; used for cache fingerprints.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Seal encrypts plaintext under a passphrase-derived key using AES-256-GCM.
// Output layout: salt | nonce | ciphertext+tag. A fresh random salt and
// nonce are drawn per call.
func Seal(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("op=cryptox.Seal salt: %w", err)
	}
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("op=cryptox.Seal nonce: %w", err)
	}
	out := make([]byte, 0, saltLen+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Open decrypts a blob produced by Seal. Any truncation or tampering yields
// ErrCiphertextInvalid.
func Open(sealed []byte, passphrase string) ([]byte, error) {
	if len(sealed) < saltLen {
		return nil, ErrCiphertextInvalid
	}
	salt, rest := sealed[:saltLen], sealed[saltLen:]
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	if len(rest) < gcm.NonceSize() {
		return nil, ErrCiphertextInvalid
	}
	nonce, ct := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	pt, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrCiphertextInvalid
	}
	return pt, nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, iterations, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("op=cryptox.newGCM cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("op=cryptox.newGCM gcm: %w", err)
	}
	return gcm, nil
}
