package jpt

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/keys"
)

// ProofVerifier checks a decoded JWP's proof against the issuer's JWK.
// Zero-knowledge suites plug in through this interface; the library only
// ships the plain Ed25519 verifier.
type ProofVerifier interface {
	VerifyProof(ctx context.Context, decoded *DecodedJwp, jwk *keys.JWK) error
}

// Ed25519ProofVerifier verifies a proof that is a plain Ed25519 signature
// over the presignature input
type Ed25519ProofVerifier struct{}

// VerifyProof checks the Ed25519 signature
func (Ed25519ProofVerifier) VerifyProof(_ context.Context, decoded *DecodedJwp, jwk *keys.JWK) error {
	pub, err := keys.JWKToEd25519PublicKey(jwk)
	if err != nil {
		return err
	}
	if !ed25519.Verify(pub, decoded.PresignatureInput(), decoded.Proof()) {
		return fmt.Errorf("proof signature rejected")
	}
	return nil
}
