package keys

import (
	"encoding/json"
	"fmt"
)

// CompositeAlgID enumerates the permitted (post-quantum, traditional)
// signature pairs. Each pair pins the hash used in the signing input.
type CompositeAlgID int

const (
	// MLDSA44Ed25519Sha512 pairs ML-DSA-44 with EdDSA over a SHA-512 digest
	MLDSA44Ed25519Sha512 CompositeAlgID = iota + 1
	// MLDSA65Ed25519Sha512 pairs ML-DSA-65 with EdDSA over a SHA-512 digest
	MLDSA65Ed25519Sha512
)

// Name returns the JWS algorithm name for the composite pair
func (id CompositeAlgID) Name() string {
	switch id {
	case MLDSA44Ed25519Sha512:
		return "id-MLDSA44-Ed25519-SHA512"
	case MLDSA65Ed25519Sha512:
		return "id-MLDSA65-Ed25519-SHA512"
	default:
		return ""
	}
}

// ParseCompositeAlgID parses a composite JWS algorithm name
func ParseCompositeAlgID(name string) (CompositeAlgID, error) {
	switch name {
	case "id-MLDSA44-Ed25519-SHA512":
		return MLDSA44Ed25519Sha512, nil
	case "id-MLDSA65-Ed25519-SHA512":
		return MLDSA65Ed25519Sha512, nil
	default:
		return 0, fmt.Errorf("unknown composite algorithm: %s", name)
	}
}

// DerOidPrefix returns the 13-byte DER-encoded OID used as a domain
// separator in the hybrid signing input. The prefixes differ only in the
// last byte per variant.
func (id CompositeAlgID) DerOidPrefix() []byte {
	switch id {
	case MLDSA44Ed25519Sha512:
		return []byte{0x06, 0x0B, 0x60, 0x86, 0x48, 0x01, 0x86, 0xFA, 0x6B, 0x50, 0x08, 0x01, 0x03}
	case MLDSA65Ed25519Sha512:
		return []byte{0x06, 0x0B, 0x60, 0x86, 0x48, 0x01, 0x86, 0xFA, 0x6B, 0x50, 0x08, 0x01, 0x0A}
	default:
		return nil
	}
}

// TraditionalAlgorithm returns the JWK algorithm of the classical half
func (id CompositeAlgID) TraditionalAlgorithm() string {
	return "EdDSA"
}

// PQAlgorithm returns the JWK algorithm of the post-quantum half
func (id CompositeAlgID) PQAlgorithm() string {
	switch id {
	case MLDSA44Ed25519Sha512:
		return AlgMLDSA44
	case MLDSA65Ed25519Sha512:
		return AlgMLDSA65
	default:
		return ""
	}
}

// TraditionalSignatureSize returns the fixed classical signature length,
// which the verifier relies on to split a concatenated hybrid signature
func (id CompositeAlgID) TraditionalSignatureSize() int {
	return 64 // Ed25519
}

// MarshalJSON encodes the alg id as its name
func (id CompositeAlgID) MarshalJSON() ([]byte, error) {
	name := id.Name()
	if name == "" {
		return nil, fmt.Errorf("invalid composite algorithm id: %d", int(id))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes the alg id from its name
func (id *CompositeAlgID) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseCompositeAlgID(name)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// CompositePublicKey binds a traditional and a post-quantum public key
// into the data of a single verification method
type CompositePublicKey struct {
	AlgID                CompositeAlgID `json:"algId"`
	TraditionalPublicKey *JWK           `json:"traditionalPublicKey"`
	PQPublicKey          *JWK           `json:"pqPublicKey"`
}

// NewCompositePublicKey builds a CompositePublicKey, stripping any private
// material from both JWKs
func NewCompositePublicKey(algID CompositeAlgID, traditional, pq *JWK) *CompositePublicKey {
	return &CompositePublicKey{
		AlgID:                algID,
		TraditionalPublicKey: traditional.Public(),
		PQPublicKey:          pq.Public(),
	}
}
