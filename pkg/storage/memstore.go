package storage

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/keys"
)

// MemKeyStore is an in-memory KeyStore holding private JWKs keyed by
// opaque uuid handles
type MemKeyStore struct {
	mu   sync.RWMutex
	keys map[KeyHandle]*keys.JWK
}

// NewMemKeyStore creates an empty in-memory key store
func NewMemKeyStore() *MemKeyStore {
	return &MemKeyStore{keys: map[KeyHandle]*keys.JWK{}}
}

// Generate creates a traditional key pair. Only Ed25519 is supported.
func (s *MemKeyStore) Generate(ctx context.Context, keyType keys.KeyType, alg string) (KeyHandle, *keys.JWK, error) {
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
	kid := uuid.NewString()
	jwk, err := keys.Ed25519PrivateKeyToJWK(priv, kid)
	if err != nil {
		return "", nil, err
	}

	handle := KeyHandle(uuid.NewString())
	s.mu.Lock()
	s.keys[handle] = jwk
	s.mu.Unlock()
	return handle, jwk.Public(), nil
}

// GeneratePQ creates a post-quantum key pair. Only ML-DSA is supported.
func (s *MemKeyStore) GeneratePQ(ctx context.Context, keyType keys.KeyType, alg string) (KeyHandle, *keys.JWK, error) {
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
	kid := uuid.NewString()
	jwk, err := keys.MLDSAPrivateKeyToJWK(alg, priv, kid)
	if err != nil {
		return "", nil, err
	}

	handle := KeyHandle(uuid.NewString())
	s.mu.Lock()
	s.keys[handle] = jwk
	s.mu.Unlock()
	return handle, jwk.Public(), nil
}

// Sign signs data with the Ed25519 key behind handle
func (s *MemKeyStore) Sign(ctx context.Context, handle KeyHandle, data []byte, publicKey *keys.JWK) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	jwk, err := s.get(handle)
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
func (s *MemKeyStore) SignPQ(ctx context.Context, handle KeyHandle, data []byte, publicKey *keys.JWK) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	jwk, err := s.get(handle)
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
func (s *MemKeyStore) Delete(ctx context.Context, handle KeyHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[handle]; !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, handle)
	}
	delete(s.keys, handle)
	return nil
}

// Exists reports whether handle resolves to a key
func (s *MemKeyStore) Exists(ctx context.Context, handle KeyHandle) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[handle]
	return ok, nil
}

// Len returns the number of stored keys
func (s *MemKeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

func (s *MemKeyStore) get(handle KeyHandle) (*keys.JWK, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jwk, ok := s.keys[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, handle)
	}
	return jwk, nil
}

// MemKeyHandleStore is an in-memory KeyHandleStore
type MemKeyHandleStore struct {
	mu      sync.RWMutex
	handles map[MethodDigest]KeyHandle
}

// NewMemKeyHandleStore creates an empty in-memory key handle store
func NewMemKeyHandleStore() *MemKeyHandleStore {
	return &MemKeyHandleStore{handles: map[MethodDigest]KeyHandle{}}
}

// Insert maps digest to handle. A digest maps to at most one handle.
func (s *MemKeyHandleStore) Insert(ctx context.Context, digest MethodDigest, handle KeyHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handles[digest]; ok {
		return ErrHandleExists
	}
	s.handles[digest] = handle
	return nil
}

// Get returns the handle mapped to digest
func (s *MemKeyHandleStore) Get(ctx context.Context, digest MethodDigest) (KeyHandle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle, ok := s.handles[digest]
	if !ok {
		return "", ErrHandleNotFound
	}
	return handle, nil
}

// Delete removes the mapping for digest
func (s *MemKeyHandleStore) Delete(ctx context.Context, digest MethodDigest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handles[digest]; !ok {
		return ErrHandleNotFound
	}
	delete(s.handles, digest)
	return nil
}

// Len returns the number of stored mappings
func (s *MemKeyHandleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handles)
}
