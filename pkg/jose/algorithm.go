// Package jose implements the subset of JOSE this library needs: JWS
// headers and the compact JWS serialization, including the composite
// algorithms that registered JOSE stacks reject.
package jose

import "fmt"

// Algorithm is a JWS signature algorithm name
type Algorithm string

const (
	// AlgEdDSA is EdDSA using Ed25519
	AlgEdDSA Algorithm = "EdDSA"
	// AlgMLDSA44 is ML-DSA-44
	AlgMLDSA44 Algorithm = "ML-DSA-44"
	// AlgMLDSA65 is ML-DSA-65
	AlgMLDSA65 Algorithm = "ML-DSA-65"
	// AlgCompositeMLDSA44Ed25519 is the composite ML-DSA-44 + Ed25519 pair over SHA-512
	AlgCompositeMLDSA44Ed25519 Algorithm = "id-MLDSA44-Ed25519-SHA512"
	// AlgCompositeMLDSA65Ed25519 is the composite ML-DSA-65 + Ed25519 pair over SHA-512
	AlgCompositeMLDSA65Ed25519 Algorithm = "id-MLDSA65-Ed25519-SHA512"
)

// ParseAlgorithm validates a JWS algorithm name
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgEdDSA, AlgMLDSA44, AlgMLDSA65, AlgCompositeMLDSA44Ed25519, AlgCompositeMLDSA65Ed25519:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("unknown JWS algorithm: %q", s)
	}
}

// IsComposite reports whether the algorithm is a composite pair
func (a Algorithm) IsComposite() bool {
	return a == AlgCompositeMLDSA44Ed25519 || a == AlgCompositeMLDSA65Ed25519
}
