package storage

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/keys"
)

// FileKeyStore is a KeyStore persisting private JWKs as one file per
// handle with owner-only permissions
type FileKeyStore struct {
	dir string
}

// NewFileKeyStore creates a key store rooted at dir, creating it if needed
func NewFileKeyStore(dir string) (*FileKeyStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil { // More restrictive for keys
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	return &FileKeyStore{dir: dir}, nil
}

func (s *FileKeyStore) path(handle KeyHandle) string {
	return filepath.Join(s.dir, fmt.Sprintf("key_%s.json", handle))
}

func (s *FileKeyStore) save(handle KeyHandle, jwk *keys.JWK) error {
	data, err := json.MarshalIndent(jwk, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key file: %w", err)
	}
	// Write with restricted permissions (owner read/write only)
	if err := os.WriteFile(s.path(handle), data, 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

func (s *FileKeyStore) load(handle KeyHandle) (*keys.JWK, error) {
	data, err := os.ReadFile(s.path(handle))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, handle)
		}
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	var jwk keys.JWK
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("failed to parse key file: %w", err)
	}
	return &jwk, nil
}

// Generate creates a traditional key pair. Only Ed25519 is supported.
func (s *FileKeyStore) Generate(ctx context.Context, keyType keys.KeyType, alg string) (KeyHandle, *keys.JWK, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	if keyType != keys.KeyTypeEd25519 || alg != "EdDSA" {
		return "", nil, fmt.Errorf("unsupported traditional key: type=%s alg=%s", keyType, alg)
	}
	priv, err := keys.GenerateEd25519Key()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate Ed25519 key: %w", err)
	}
	jwk, err := keys.Ed25519PrivateKeyToJWK(priv, uuid.NewString())
	if err != nil {
		return "", nil, err
	}
	handle := KeyHandle(uuid.NewString())
	if err := s.save(handle, jwk); err != nil {
		return "", nil, err
	}
	return handle, jwk.Public(), nil
}

// GeneratePQ creates a post-quantum key pair. Only ML-DSA is supported.
func (s *FileKeyStore) GeneratePQ(ctx context.Context, keyType keys.KeyType, alg string) (KeyHandle, *keys.JWK, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	if keyType != keys.KeyTypeMLDSA {
		return "", nil, fmt.Errorf("unsupported post-quantum key type: %s", keyType)
	}
	_, priv, err := keys.GenerateMLDSAKey(alg)
	if err != nil {
		return "", nil, err
	}
	jwk, err := keys.MLDSAPrivateKeyToJWK(alg, priv, uuid.NewString())
	if err != nil {
		return "", nil, err
	}
	handle := KeyHandle(uuid.NewString())
	if err := s.save(handle, jwk); err != nil {
		return "", nil, err
	}
	return handle, jwk.Public(), nil
}

// Sign signs data with the Ed25519 key behind handle
func (s *FileKeyStore) Sign(ctx context.Context, handle KeyHandle, data []byte, publicKey *keys.JWK) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	jwk, err := s.load(handle)
	if err != nil {
		return nil, err
	}
	if publicKey != nil && publicKey.X != jwk.X {
		return nil, fmt.Errorf("public key does not match the key behind handle %q", handle)
	}
	priv, err := keys.JWKToEd25519PrivateKey(jwk)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(priv, data), nil
}

// SignPQ signs data with the ML-DSA key behind handle
func (s *FileKeyStore) SignPQ(ctx context.Context, handle KeyHandle, data []byte, publicKey *keys.JWK) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	jwk, err := s.load(handle)
	if err != nil {
		return nil, err
	}
	if publicKey != nil && publicKey.Pub != jwk.Pub {
		return nil, fmt.Errorf("public key does not match the key behind handle %q", handle)
	}
	priv, err := keys.JWKToMLDSAPrivateKey(jwk)
	if err != nil {
		return nil, err
	}
	return priv.Scheme().Sign(priv, data, nil), nil
}

// Delete removes the key behind handle
func (s *FileKeyStore) Delete(ctx context.Context, handle KeyHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(handle))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, handle)
	}
	return err
}

// Exists reports whether handle resolves to a key
func (s *FileKeyStore) Exists(ctx context.Context, handle KeyHandle) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(handle))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
