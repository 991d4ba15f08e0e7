package keys

import (
	"crypto/rand"
	"fmt"

	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/mldsa/mldsa44"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/crypto"
)

// ML-DSA algorithm names as they appear in the JWK "alg" parameter
const (
	AlgMLDSA44 = "ML-DSA-44"
	AlgMLDSA65 = "ML-DSA-65"
)

// MLDSAScheme returns the circl signature scheme for an ML-DSA algorithm name
func MLDSAScheme(alg string) (sign.Scheme, error) {
	switch alg {
	case AlgMLDSA44:
		return mldsa44.Scheme(), nil
	case AlgMLDSA65:
		return mldsa65.Scheme(), nil
	default:
		return nil, fmt.Errorf("unsupported ML-DSA algorithm: %s", alg)
	}
}

// GenerateMLDSAKey generates a new ML-DSA key pair for the given algorithm
func GenerateMLDSAKey(alg string) (sign.PublicKey, sign.PrivateKey, error) {
	scheme, err := MLDSAScheme(alg)
	if err != nil {
		return nil, nil, err
	}
	seed := make([]byte, scheme.SeedSize())
	if _, err := rand.Read(seed); err != nil {
		return nil, nil, fmt.Errorf("failed to read seed: %w", err)
	}
	pub, priv := scheme.DeriveKey(seed)
	return pub, priv, nil
}

// MLDSAPrivateKeyToJWK converts an ML-DSA private key to an AKP-form JWK
func MLDSAPrivateKeyToJWK(alg string, priv sign.PrivateKey, kid string) (*JWK, error) {
	privBytes, err := priv.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ML-DSA private key: %w", err)
	}
	pub, ok := priv.Public().(sign.PublicKey)
	if !ok {
		return nil, fmt.Errorf("expected sign.PublicKey, got %T", priv.Public())
	}
	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ML-DSA public key: %w", err)
	}

	return &JWK{
		Kid: kid,
		Kty: "AKP",
		Alg: alg,
		Use: "sig",
		Pub: crypto.Base64URLEncode(pubBytes),
		Prv: crypto.Base64URLEncode(privBytes),
	}, nil
}

// MLDSAPublicKeyToJWK converts an ML-DSA public key to an AKP-form JWK
func MLDSAPublicKeyToJWK(alg string, pub sign.PublicKey, kid string) (*JWK, error) {
	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ML-DSA public key: %w", err)
	}
	return &JWK{
		Kid: kid,
		Kty: "AKP",
		Alg: alg,
		Use: "sig",
		Pub: crypto.Base64URLEncode(pubBytes),
	}, nil
}

// JWKToMLDSAPublicKey converts an AKP-form JWK to an ML-DSA public key
func JWKToMLDSAPublicKey(jwk *JWK) (sign.PublicKey, error) {
	if jwk.Kty != "AKP" {
		return nil, fmt.Errorf("JWK is not an ML-DSA key: kty=%s", jwk.Kty)
	}
	scheme, err := MLDSAScheme(jwk.Alg)
	if err != nil {
		return nil, err
	}
	pubBytes, err := crypto.Base64URLDecode(jwk.Pub)
	if err != nil {
		return nil, fmt.Errorf("failed to decode pub: %w", err)
	}
	pub, err := scheme.UnmarshalBinaryPublicKey(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ML-DSA public key: %w", err)
	}
	return pub, nil
}

// JWKToMLDSAPrivateKey converts an AKP-form JWK to an ML-DSA private key
func JWKToMLDSAPrivateKey(jwk *JWK) (sign.PrivateKey, error) {
	if jwk.Kty != "AKP" {
		return nil, fmt.Errorf("JWK is not an ML-DSA key: kty=%s", jwk.Kty)
	}
	if jwk.Prv == "" {
		return nil, fmt.Errorf("JWK does not contain private key (priv)")
	}
	scheme, err := MLDSAScheme(jwk.Alg)
	if err != nil {
		return nil, err
	}
	privBytes, err := crypto.Base64URLDecode(jwk.Prv)
	if err != nil {
		return nil, fmt.Errorf("failed to decode priv: %w", err)
	}
	priv, err := scheme.UnmarshalBinaryPrivateKey(privBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ML-DSA private key: %w", err)
	}
	return priv, nil
}
