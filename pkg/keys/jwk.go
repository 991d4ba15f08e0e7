package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/crypto"
)

// KeyType identifies the kind of key material a store generates
type KeyType string

const (
	// KeyTypeEd25519 is the traditional Ed25519 key type
	KeyTypeEd25519 KeyType = "Ed25519"
	// KeyTypeMLDSA is the post-quantum ML-DSA key type
	KeyTypeMLDSA KeyType = "ML-DSA"
)

// JWK represents a JSON Web Key supporting OKP (Ed25519) and AKP (ML-DSA)
type JWK struct {
	Kid string `json:"kid,omitempty"`
	Kty string `json:"kty"`            // "OKP" for Ed25519, "AKP" for ML-DSA
	Crv string `json:"crv,omitempty"`  // "Ed25519"
	Alg string `json:"alg,omitempty"`  // "EdDSA", "ML-DSA-44", "ML-DSA-65"
	Use string `json:"use,omitempty"`  // "sig"
	X   string `json:"x,omitempty"`    // OKP public key
	D   string `json:"d,omitempty"`    // OKP private key (omit for public)
	Pub string `json:"pub,omitempty"`  // AKP public key
	Prv string `json:"priv,omitempty"` // AKP private key (omit for public)
}

// Public returns a copy of the JWK with all private material stripped
func (j *JWK) Public() *JWK {
	pub := *j
	pub.D = ""
	pub.Prv = ""
	return &pub
}

// IsPrivate reports whether the JWK carries private key material
func (j *JWK) IsPrivate() bool {
	return j.D != "" || j.Prv != ""
}

// MarshalJWK marshals a JWK to JSON
func MarshalJWK(jwk *JWK) ([]byte, error) {
	return json.Marshal(jwk)
}

// UnmarshalJWK unmarshals a JWK from JSON
func UnmarshalJWK(data []byte) (*JWK, error) {
	var jwk JWK
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, err
	}
	return &jwk, nil
}

// Ed25519 Key Functions
//
// Ed25519 JWKs are produced through go-jose so that their wire form matches
// what other JOSE stacks emit (kty/crv/x/d ordering and encoding).

// GenerateEd25519Key generates a new Ed25519 key pair
func GenerateEd25519Key() (ed25519.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	return priv, err
}

// Ed25519PrivateKeyToJWK converts an Ed25519 private key to JWK
func Ed25519PrivateKeyToJWK(key ed25519.PrivateKey, kid string) (*JWK, error) {
	josejwk := jose.JSONWebKey{Key: key, KeyID: kid, Algorithm: string(jose.EdDSA), Use: "sig"}
	data, err := josejwk.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Ed25519 JWK: %w", err)
	}
	return UnmarshalJWK(data)
}

// Ed25519PublicKeyToJWK converts an Ed25519 public key to JWK
func Ed25519PublicKeyToJWK(key ed25519.PublicKey, kid string) (*JWK, error) {
	josejwk := jose.JSONWebKey{Key: key, KeyID: kid, Algorithm: string(jose.EdDSA), Use: "sig"}
	data, err := josejwk.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Ed25519 JWK: %w", err)
	}
	return UnmarshalJWK(data)
}

// JWKToEd25519PrivateKey converts a JWK to an Ed25519 private key
func JWKToEd25519PrivateKey(jwk *JWK) (ed25519.PrivateKey, error) {
	if jwk.Kty != "OKP" || jwk.Crv != "Ed25519" {
		return nil, fmt.Errorf("JWK is not an Ed25519 key: kty=%s, crv=%s", jwk.Kty, jwk.Crv)
	}
	if jwk.D == "" {
		return nil, fmt.Errorf("JWK does not contain private key (d)")
	}

	data, err := MarshalJWK(jwk)
	if err != nil {
		return nil, err
	}
	var josejwk jose.JSONWebKey
	if err := josejwk.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("failed to parse Ed25519 JWK: %w", err)
	}
	priv, ok := josejwk.Key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("expected ed25519.PrivateKey, got %T", josejwk.Key)
	}
	return priv, nil
}

// JWKToEd25519PublicKey converts a JWK to an Ed25519 public key
func JWKToEd25519PublicKey(jwk *JWK) (ed25519.PublicKey, error) {
	if jwk.Kty != "OKP" || jwk.Crv != "Ed25519" {
		return nil, fmt.Errorf("JWK is not an Ed25519 key: kty=%s, crv=%s", jwk.Kty, jwk.Crv)
	}

	xBytes, err := crypto.Base64URLDecode(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("failed to decode x: %w", err)
	}
	if len(xBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid Ed25519 public key size: %d", len(xBytes))
	}
	return ed25519.PublicKey(xBytes), nil
}
