package credential

import (
	"context"
	"fmt"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/hybrid"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/storage"
)

// CreateCredentialJWT serializes a credential into the VC JWT claim shape
// and signs it with the composite method behind fragment. JWTs are never
// detached and always base64url encoded.
func CreateCredentialJWT(
	ctx context.Context,
	cred *Credential,
	document *did.Document,
	store *storage.Storage,
	fragment string,
	options *hybrid.SignatureOptions,
	customClaims map[string]interface{},
) (string, error) {
	if options == nil {
		options = &hybrid.SignatureOptions{}
	}
	if err := checkJWTOptions(options); err != nil {
		return "", err
	}

	payload, err := SerializeJWT(cred, customClaims)
	if err != nil {
		return "", err
	}
	return hybrid.CreateJws(ctx, document, store, fragment, payload, options)
}

// CreatePresentationJWT serializes a presentation into the VP JWT claim
// shape and signs it with the composite method behind fragment
func CreatePresentationJWT(
	ctx context.Context,
	pres *Presentation,
	document *did.Document,
	store *storage.Storage,
	fragment string,
	jwsOptions *hybrid.SignatureOptions,
	presentationOptions *PresentationOptions,
) (string, error) {
	if jwsOptions == nil {
		jwsOptions = &hybrid.SignatureOptions{}
	}
	if err := checkJWTOptions(jwsOptions); err != nil {
		return "", err
	}

	payload, err := SerializePresentationJWT(pres, presentationOptions)
	if err != nil {
		return "", err
	}
	return hybrid.CreateJws(ctx, document, store, fragment, payload, jwsOptions)
}

func checkJWTOptions(options *hybrid.SignatureOptions) error {
	if options.DetachedPayload {
		return fmt.Errorf("encoding error: cannot use detached payload for JWT signing")
	}
	if options.B64 != nil && !*options.B64 {
		// JWTs must not set b64 per RFC 7797 section 7.
		return fmt.Errorf("encoding error: cannot use b64 = false with JWTs")
	}
	return nil
}
