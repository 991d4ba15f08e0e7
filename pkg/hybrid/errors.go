// Package hybrid implements composite post-quantum + traditional key
// management and signing: one verification method binds an ML-DSA key and
// an Ed25519 key, and one compact JWS carries both signatures over a
// shared OID-prefixed SHA-512 digest.
package hybrid

import "errors"

var (
	// ErrMethodNotFound is returned when a fragment does not resolve to a method
	ErrMethodNotFound = errors.New("verification method not found")
	// ErrNotCompositePublicKey is returned when a method's data is not composite
	ErrNotCompositePublicKey = errors.New("method data is not a composite public key")
	// ErrInvalidJwsAlgorithm is returned for algorithms outside the composite pair table
	ErrInvalidJwsAlgorithm = errors.New("invalid JWS algorithm")
	// ErrMissingFragment is returned when no fragment is supplied and no JWK carries a kid
	ErrMissingFragment = errors.New("an explicit fragment or JWK kid is required")
	// ErrInvalidSignature is returned when a hybrid signature fails to verify
	ErrInvalidSignature = errors.New("hybrid signature verification failed")
)
