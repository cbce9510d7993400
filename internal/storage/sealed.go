// Package storage provides persistence for MindfulTube agent state.
package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/mindfultube/mindfultube/internal/core"
)

// SaltKey holds the argon2id salt of a sealed store, unencrypted
const SaltKey = "_seal_salt"

// SealedKV encrypts values of an inner KV with XChaCha20-Poly1305.
// Keys are left in the clear so the layout stays inspectable.
type SealedKV struct {
	inner KV
	key   []byte
}

// NewSealedKV derives the sealing key from passphrase. The salt is read
// from the inner store, or generated and stored on first use.
func NewSealedKV(ctx context.Context, inner KV, passphrase string) (*SealedKV, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: passphrase", core.ErrMissingRequired)
	}

	salt, err := inner.Get(ctx, SaltKey)
	if errors.Is(err, core.ErrRecordNotFound) {
		salt = make([]byte, 32)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		if err := inner.Put(ctx, SaltKey, salt); err != nil {
			return nil, fmt.Errorf("failed to store salt: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load salt: %w", err)
	}

	// Derive encryption key using Argon2id
	key := argon2.IDKey([]byte(passphrase), salt, 3, 64*1024, 4, chacha20poly1305.KeySize)

	return &SealedKV{inner: inner, key: key}, nil
}

// Get decrypts the value stored under key
func (s *SealedKV) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.open(key, sealed)
}

// Put encrypts value and stores it under key
func (s *SealedKV) Put(ctx context.Context, key string, value []byte) error {
	sealed, err := s.seal(key, value)
	if err != nil {
		return err
	}
	return s.inner.Put(ctx, key, sealed)
}

// Delete removes keys from the inner store
func (s *SealedKV) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}

// Keys lists stored keys without the salt entry
func (s *SealedKV) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.inner.Keys(ctx)
	if err != nil {
		return nil, err
	}
	out := keys[:0]
	for _, k := range keys {
		if k != SaltKey {
			out = append(out, k)
		}
	}
	return out, nil
}

// seal binds the ciphertext to its key through the additional data, so
// values cannot be swapped between keys.
func (s *SealedKV) seal(key string, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrEncryptionFailed, err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrEncryptionFailed, err)
	}

	return aead.Seal(nonce, nonce, plaintext, []byte(key)), nil
}

func (s *SealedKV) open(key string, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDecryptionFailed, err)
	}

	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: %s: invalid sealed data", core.ErrDecryptionFailed, key)
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: wrong passphrase or corrupted data", core.ErrDecryptionFailed, key)
	}
	return plaintext, nil
}
