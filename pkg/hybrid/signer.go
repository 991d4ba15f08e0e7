package hybrid

import (
	"context"
	"fmt"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/crypto"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/jose"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/storage"
)

// CreateJws signs payload with the composite method behind fragment and
// returns the compact JWS. The signature segment is the concatenation of
// the traditional signature followed by the post-quantum one, both over
//
//	DER_OID(alg) || SHA-512( BASE64URL(header) "." payload-segment )
func CreateJws(
	ctx context.Context,
	document *did.Document,
	store *storage.Storage,
	fragment string,
	payload []byte,
	options *SignatureOptions,
) (string, error) {
	if options == nil {
		options = &SignatureOptions{}
	}

	method := document.ResolveMethod(fragment, "")
	if method == nil {
		return "", ErrMethodNotFound
	}
	composite := method.Data.Composite
	if composite == nil {
		return "", ErrNotCompositePublicKey
	}

	alg, err := jose.ParseAlgorithm(composite.AlgID.Name())
	if err != nil || !alg.IsComposite() {
		return "", ErrInvalidJwsAlgorithm
	}

	header := buildHeader(alg, method, options)

	digest, err := storage.NewMethodDigest(method)
	if err != nil {
		return "", fmt.Errorf("method digest construction error: %w", err)
	}
	paired, err := store.KeyHandleStore().Get(ctx, digest)
	if err != nil {
		return "", fmt.Errorf("key handle storage error: %w", err)
	}
	tHandle, pqHandle, err := storage.SplitHandles(paired)
	if err != nil {
		return "", err
	}

	encoder, err := jose.NewEncoder(payload, header, jose.EncodingOptions{Detached: options.DetachedPayload})
	if err != nil {
		return "", fmt.Errorf("encoding error: %w", err)
	}

	signingInput := append(composite.AlgID.DerOidPrefix(), crypto.SHA512(encoder.SigningInput())...)

	ks := store.KeyStore()
	signatureT, err := ks.Sign(ctx, tHandle, signingInput, composite.TraditionalPublicKey)
	if err != nil {
		return "", fmt.Errorf("key storage error: %w", err)
	}
	signaturePQ, err := ks.SignPQ(ctx, pqHandle, signingInput, composite.PQPublicKey)
	if err != nil {
		return "", fmt.Errorf("key storage error: %w", err)
	}

	signature := append(signatureT, signaturePQ...)
	return encoder.Serialize(signature), nil
}

// buildHeader assembles the protected header from the options, in a fixed
// order so equal inputs produce equal headers
func buildHeader(alg jose.Algorithm, method *did.VerificationMethod, options *SignatureOptions) *jose.Header {
	header := &jose.Header{Alg: alg}

	if options.CustomHeaderParameters != nil {
		header.Custom = options.CustomHeaderParameters
	}

	if options.Kid != "" {
		header.Kid = options.Kid
	} else {
		header.Kid = method.ID.String()
	}

	if options.B64 != nil && !*options.B64 {
		// Follow the recommendation in RFC 7797 section 7.
		b64 := false
		header.B64 = &b64
		header.Crit = []string{"b64"}
	}

	if options.Typ != "" {
		header.Typ = options.Typ
	} else {
		// https://www.w3.org/TR/vc-data-model/#jwt-encoding
		header.Typ = "JWT"
	}

	header.Cty = options.Cty
	header.URL = options.URL
	header.Nonce = options.Nonce
	return header
}
