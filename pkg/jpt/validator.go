package jpt

import (
	"context"
	"time"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/credential"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
)

// DecodedJptCredential is the value returned from a successful validation
type DecodedJptCredential struct {
	Credential   *credential.Credential
	CustomClaims map[string]interface{}
	DecodedJwp   *DecodedJwp
}

// Validator decodes and validates credentials in JPT format
type Validator struct {
	proofVerifier ProofVerifier
}

// NewValidator creates a validator using the given proof verifier
func NewValidator(proofVerifier ProofVerifier) *Validator {
	return &Validator{proofVerifier: proofVerifier}
}

// Validate decodes credentialJpt, verifies its proof against the issuer
// document, and runs the validation units under the fail-fast policy
func (v *Validator) Validate(
	ctx context.Context,
	credentialJpt string,
	issuer *did.Document,
	options *ValidationOptions,
	failFast FailFast,
) (*DecodedJptCredential, error) {
	return v.ValidateExtended(ctx, credentialJpt, []*did.Document{issuer}, options, failFast)
}

// ValidateExtended takes a slice of issuer documents to better
// accommodate presentation validation. It also validates the relationship
// between a holder and the credential subjects when
// SubjectHolderRelationship is set.
func (v *Validator) ValidateExtended(
	ctx context.Context,
	credentialJpt string,
	issuers []*did.Document,
	options *ValidationOptions,
	failFast FailFast,
) (*DecodedJptCredential, error) {
	if options == nil {
		options = &ValidationOptions{}
	}

	// Verify the proof and decode the result into a credential token
	// first: every other validation needs the credential, so a failure
	// here aborts regardless of the fail-fast policy.
	token, err := v.verifyProof(ctx, credentialJpt, issuers, &options.Verification)
	if err != nil {
		return nil, &CompoundValidationError{Errors: []error{err}}
	}
	cred := token.Credential

	now := time.Now()
	latestIssuance := now
	if options.LatestIssuanceDate != nil {
		latestIssuance = *options.LatestIssuanceDate
	}
	earliestExpiry := now
	if options.EarliestExpiryDate != nil {
		earliestExpiry = *options.EarliestExpiryDate
	}

	units := []ValidationUnit{
		func() error { return CheckIssuedOnOrBefore(cred, latestIssuance) },
		func() error { return CheckExpiresOnOrAfter(cred, earliestExpiry) },
		func() error { return CheckStructure(cred) },
		func() error {
			if options.SubjectHolderRelationship == nil {
				return nil
			}
			rel := options.SubjectHolderRelationship
			return CheckSubjectHolderRelationship(cred, rel.Holder, rel.Relationship)
		},
		func() error { return CheckStatus(cred, issuers, options.Status) },
	}

	var validationErrors []error
	for _, unit := range units {
		if err := unit(); err != nil {
			validationErrors = append(validationErrors, err)
			if failFast == FirstError {
				break
			}
		}
	}

	if len(validationErrors) > 0 {
		return nil, &CompoundValidationError{Errors: validationErrors}
	}
	return token, nil
}

// verifyProof resolves the issuer's verification method, verifies the
// JWP proof, and decodes the claims into a credential
func (v *Validator) verifyProof(
	ctx context.Context,
	credentialJpt string,
	issuers []*did.Document,
	options *VerificationOptions,
) (*DecodedJptCredential, error) {
	decoded, err := Decode(credentialJpt)
	if err != nil {
		return nil, err
	}

	// If no method id is set, parse the kid to a DID URL which should be
	// the identifier of a method in a trusted issuer's document.
	var methodID did.URL
	if options.MethodID != "" {
		methodID, err = did.ParseURL(options.MethodID)
		if err != nil {
			return nil, &MethodDataLookupError{
				Source:  err,
				Message: "could not parse the configured method id as a DID Url",
				Signer:  ContextIssuer,
			}
		}
	} else {
		kid := decoded.Header().Kid
		if kid == "" {
			return nil, &MethodDataLookupError{
				Message: "could not extract kid from protected header",
				Signer:  ContextIssuer,
			}
		}
		methodID, err = did.ParseURL(kid)
		if err != nil {
			return nil, &MethodDataLookupError{
				Source:  err,
				Message: "could not parse kid as a DID Url",
				Signer:  ContextIssuer,
			}
		}
	}

	// Locate the corresponding issuer document.
	var issuer *did.Document
	for _, doc := range issuers {
		if doc.ID() == methodID.DID {
			issuer = doc
			break
		}
	}
	if issuer == nil {
		return nil, &DocumentMismatchError{Signer: ContextIssuer}
	}

	// Obtain the public key from the issuer's document.
	method := issuer.ResolveMethod(methodID.String(), options.MethodScope)
	if method == nil || method.Data.PublicKeyJwk == nil {
		return nil, &MethodDataLookupError{
			Message: "could not extract JWK from a method identified by kid",
			Signer:  ContextIssuer,
		}
	}

	if err := v.proofVerifier.VerifyProof(ctx, decoded, method.Data.PublicKeyJwk); err != nil {
		return nil, &ProofVerificationError{Source: err}
	}

	claimsJSON, err := decoded.ClaimsJSON()
	if err != nil {
		return nil, &StructureError{Source: err}
	}
	cred, customClaims, err := credential.ParseJWTClaims(claimsJSON)
	if err != nil {
		return nil, &StructureError{Source: err}
	}

	// The DID component of the kid must correspond to the issuer named in
	// the credential.
	issuerID, err := did.ParseDID(cred.Issuer)
	if err != nil {
		return nil, &StructureError{Source: err}
	}
	if issuerID != methodID.DID {
		return nil, &IdentifierMismatchError{Signer: ContextIssuer}
	}

	return &DecodedJptCredential{
		Credential:   cred,
		CustomClaims: customClaims,
		DecodedJwp:   decoded,
	}, nil
}
