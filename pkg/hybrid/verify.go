package hybrid

import (
	"crypto/ed25519"
	"fmt"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/crypto"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/jose"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/keys"
)

// Verify checks both halves of a hybrid compact JWS against a composite
// public key. For a detached JWS the caller supplies the payload;
// otherwise detachedPayload must be nil. It returns the payload bytes on
// success.
func Verify(jws string, composite *keys.CompositePublicKey, detachedPayload []byte) ([]byte, error) {
	parsed, err := jose.ParseCompact(jws)
	if err != nil {
		return nil, err
	}
	if string(parsed.Header.Alg) != composite.AlgID.Name() {
		return nil, fmt.Errorf("%w: header alg %q does not match composite key %q",
			ErrInvalidJwsAlgorithm, parsed.Header.Alg, composite.AlgID.Name())
	}

	raw, err := parsed.SigningInput(detachedPayload)
	if err != nil {
		return nil, err
	}
	signingInput := append(composite.AlgID.DerOidPrefix(), crypto.SHA512(raw)...)

	tLen := composite.AlgID.TraditionalSignatureSize()
	if len(parsed.Signature) <= tLen {
		return nil, fmt.Errorf("%w: signature too short (%d bytes)", ErrInvalidSignature, len(parsed.Signature))
	}
	signatureT := parsed.Signature[:tLen]
	signaturePQ := parsed.Signature[tLen:]

	tPub, err := keys.JWKToEd25519PublicKey(composite.TraditionalPublicKey)
	if err != nil {
		return nil, err
	}
	if !ed25519.Verify(tPub, signingInput, signatureT) {
		return nil, fmt.Errorf("%w: traditional signature rejected", ErrInvalidSignature)
	}

	pqPub, err := keys.JWKToMLDSAPublicKey(composite.PQPublicKey)
	if err != nil {
		return nil, err
	}
	if !pqPub.Scheme().Verify(pqPub, signingInput, signaturePQ, nil) {
		return nil, fmt.Errorf("%w: post-quantum signature rejected", ErrInvalidSignature)
	}

	if parsed.IsDetached() {
		return detachedPayload, nil
	}
	return parsed.Payload()
}
