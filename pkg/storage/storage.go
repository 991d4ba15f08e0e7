package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/keys"
)

// KeyHandle is an opaque reference to a key held by a KeyStore
type KeyHandle string

// Storage layer sentinel errors
var (
	// ErrKeyNotFound is returned when a handle does not resolve in a KeyStore
	ErrKeyNotFound = errors.New("key not found")
	// ErrHandleNotFound is returned when a digest has no mapping in a KeyHandleStore
	ErrHandleNotFound = errors.New("key handle not found")
	// ErrHandleExists is returned when a digest already has a mapping
	ErrHandleExists = errors.New("key handle already exists")
)

// KeyStore generates and uses key material. Handles are opaque; the public
// key travels as a JWK. Traditional and post-quantum keys are generated and
// used through separate methods so that a backend may route them to
// different providers.
type KeyStore interface {
	// Generate creates a traditional key pair and returns its handle and public JWK
	Generate(ctx context.Context, keyType keys.KeyType, alg string) (KeyHandle, *keys.JWK, error)
	// GeneratePQ creates a post-quantum key pair and returns its handle and public JWK
	GeneratePQ(ctx context.Context, keyType keys.KeyType, alg string) (KeyHandle, *keys.JWK, error)
	// Sign signs data with the traditional key behind handle
	Sign(ctx context.Context, handle KeyHandle, data []byte, publicKey *keys.JWK) ([]byte, error)
	// SignPQ signs data with the post-quantum key behind handle
	SignPQ(ctx context.Context, handle KeyHandle, data []byte, publicKey *keys.JWK) ([]byte, error)
	// Delete removes the key behind handle
	Delete(ctx context.Context, handle KeyHandle) error
	// Exists reports whether handle resolves to a key
	Exists(ctx context.Context, handle KeyHandle) (bool, error)
}

// KeyHandleStore maps a method digest to one opaque key handle
type KeyHandleStore interface {
	Insert(ctx context.Context, digest MethodDigest, handle KeyHandle) error
	Get(ctx context.Context, digest MethodDigest) (KeyHandle, error)
	Delete(ctx context.Context, digest MethodDigest) error
}

// Storage pairs a KeyStore with a KeyHandleStore
type Storage struct {
	keyStore    KeyStore
	handleStore KeyHandleStore
}

// NewStorage creates a storage facade over the two stores
func NewStorage(keyStore KeyStore, handleStore KeyHandleStore) *Storage {
	return &Storage{keyStore: keyStore, handleStore: handleStore}
}

// KeyStore returns the key store
func (s *Storage) KeyStore() KeyStore {
	return s.keyStore
}

// KeyHandleStore returns the key handle store
func (s *Storage) KeyHandleStore() KeyHandleStore {
	return s.handleStore
}

// PairedHandleSeparator joins the traditional and post-quantum handles in
// one stored value. It is unreserved under RFC 3986 and must not occur
// inside either handle.
const PairedHandleSeparator = "~"

// JoinHandles builds the textual paired handle from a traditional and a
// post-quantum handle
func JoinHandles(traditional, pq KeyHandle) (KeyHandle, error) {
	if strings.Contains(string(traditional), PairedHandleSeparator) ||
		strings.Contains(string(pq), PairedHandleSeparator) {
		return "", fmt.Errorf("key handle must not contain %q", PairedHandleSeparator)
	}
	if traditional == "" || pq == "" {
		return "", fmt.Errorf("cannot pair an empty key handle")
	}
	return traditional + PairedHandleSeparator + pq, nil
}

// SplitHandles splits a paired handle into its traditional and
// post-quantum halves. The paired form contains exactly one separator.
func SplitHandles(paired KeyHandle) (traditional, pq KeyHandle, err error) {
	left, right, found := strings.Cut(string(paired), PairedHandleSeparator)
	if !found || left == "" || right == "" || strings.Contains(right, PairedHandleSeparator) {
		return "", "", fmt.Errorf("malformed paired key handle %q", paired)
	}
	return KeyHandle(left), KeyHandle(right), nil
}
