package jpt

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/credential"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/keys"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/revocation"
)

const issuerDID = "did:example:issuer"
const issuerKid = issuerDID + "#jpt-key"

type jptIssuer struct {
	doc  *did.Document
	priv ed25519.PrivateKey
}

func newJptIssuer(t *testing.T) *jptIssuer {
	t.Helper()
	priv, err := keys.GenerateEd25519Key()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	jwk, err := ed25519PublicJWK(priv)
	if err != nil {
		t.Fatalf("failed to build JWK: %v", err)
	}

	doc := did.NewDocument(issuerDID)
	id, _ := doc.ID().ToURL().Join("jpt-key")
	method := did.VerificationMethod{
		ID:         id,
		Type:       "JsonWebKey2020",
		Controller: doc.ID(),
		Data:       did.MethodData{PublicKeyJwk: jwk},
	}
	if err := doc.InsertMethod(method, did.ScopeAssertionMethod); err != nil {
		t.Fatalf("InsertMethod failed: %v", err)
	}
	return &jptIssuer{doc: doc, priv: priv}
}

func ed25519PublicJWK(priv ed25519.PrivateKey) (*keys.JWK, error) {
	return keys.Ed25519PublicKeyToJWK(priv.Public().(ed25519.PublicKey), "jpt-key")
}

// issue builds a compact JPT whose proof is an Ed25519 signature over the
// presignature input
func (i *jptIssuer) issue(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	names := make([]string, 0, len(claims))
	for _, name := range []string{"iss", "jti", "sub", "nbf", "exp", "vc"} {
		if _, ok := claims[name]; ok {
			names = append(names, name)
		}
	}
	payloads := make([][]byte, len(names))
	for idx, name := range names {
		data, err := json.Marshal(claims[name])
		if err != nil {
			t.Fatalf("failed to marshal claim %q: %v", name, err)
		}
		payloads[idx] = data
	}

	header := &Header{Alg: "EdDSA", Typ: "JPT", Kid: issuerKid, Claims: names}
	compact, err := Compact(header, payloads, func(input []byte) ([]byte, error) {
		return ed25519.Sign(i.priv, input), nil
	})
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	return compact
}

func baseClaims(issuance time.Time) map[string]interface{} {
	return map[string]interface{}{
		"iss": issuerDID,
		"jti": "https://example.edu/credentials/42",
		"sub": "did:example:subject",
		"nbf": issuance.Unix(),
		"vc": map[string]interface{}{
			"@context": []string{credential.BaseContext},
			"type":     []string{credential.BaseType, "UniversityDegreeCredential"},
			"credentialSubject": map[string]interface{}{
				"degree": "Bachelor of Science",
			},
		},
	}
}

func TestDecode(t *testing.T) {
	issuer := newJptIssuer(t)
	jpt := issuer.issue(t, baseClaims(time.Now().Add(-time.Hour)))

	decoded, err := Decode(jpt)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Header().Kid != issuerKid {
		t.Errorf("kid = %q", decoded.Header().Kid)
	}
	if len(decoded.Payloads()) != len(decoded.Header().Claims) {
		t.Errorf("payload count %d != claim count %d", len(decoded.Payloads()), len(decoded.Header().Claims))
	}
	if len(decoded.Proof()) != ed25519.SignatureSize {
		t.Errorf("proof length = %d", len(decoded.Proof()))
	}

	claimsJSON, err := decoded.ClaimsJSON()
	if err != nil {
		t.Fatalf("ClaimsJSON failed: %v", err)
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		t.Fatalf("claims are not valid JSON: %v", err)
	}
	if claims["iss"] != issuerDID {
		t.Errorf("iss = %v", claims["iss"])
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		"one",
		"a.b",
		"a.b.c.d",
		"!!!.e30.cHJvb2Y",
	}
	for _, input := range cases {
		_, err := Decode(input)
		var decErr *DecodingError
		if !errors.As(err, &decErr) {
			t.Errorf("Decode(%q) error = %v, want DecodingError", input, err)
		}
	}
}

func TestDecodeNestedClaimNames(t *testing.T) {
	header := &Header{Alg: "EdDSA", Claims: []string{"iss", "vc.credentialSubject"}}
	payloads := [][]byte{
		[]byte(`"did:example:issuer"`),
		[]byte(`{"degree":"BSc"}`),
	}
	compact, err := Compact(header, payloads, func(input []byte) ([]byte, error) {
		return []byte("proof"), nil
	})
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	decoded, err := Decode(compact)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	claimsJSON, err := decoded.ClaimsJSON()
	if err != nil {
		t.Fatalf("ClaimsJSON failed: %v", err)
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		t.Fatalf("claims are not valid JSON: %v", err)
	}
	vc, ok := claims["vc"].(map[string]interface{})
	if !ok {
		t.Fatalf("vc not rebuilt: %v", claims)
	}
	subject, ok := vc["credentialSubject"].(map[string]interface{})
	if !ok || subject["degree"] != "BSc" {
		t.Errorf("credentialSubject = %v", vc["credentialSubject"])
	}
}

func TestDecodeUndisclosedPayload(t *testing.T) {
	header := &Header{Alg: "EdDSA", Claims: []string{"iss", "hidden"}}
	payloads := [][]byte{[]byte(`"did:example:issuer"`), nil}
	compact, err := Compact(header, payloads, func(input []byte) ([]byte, error) {
		return []byte("proof"), nil
	})
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	decoded, err := Decode(compact)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Payloads()[1] != nil {
		t.Error("undisclosed payload is not nil")
	}
	claimsJSON, err := decoded.ClaimsJSON()
	if err != nil {
		t.Fatalf("ClaimsJSON failed: %v", err)
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		t.Fatalf("claims are not valid JSON: %v", err)
	}
	if _, present := claims["hidden"]; present {
		t.Error("undisclosed claim appeared in the claim set")
	}
}

func TestValidateHappyPath(t *testing.T) {
	issuer := newJptIssuer(t)
	jpt := issuer.issue(t, baseClaims(time.Now().Add(-time.Hour)))

	validator := NewValidator(Ed25519ProofVerifier{})
	decoded, err := validator.Validate(context.Background(), jpt, issuer.doc, nil, FirstError)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if decoded.Credential.Issuer != issuerDID {
		t.Errorf("issuer = %q", decoded.Credential.Issuer)
	}
	if len(decoded.Credential.Subjects) != 1 || decoded.Credential.Subjects[0].ID != "did:example:subject" {
		t.Errorf("subjects = %+v", decoded.Credential.Subjects)
	}
	if decoded.DecodedJwp == nil {
		t.Error("decoded JWP missing from the result")
	}
}

func TestValidateFailFastOrdering(t *testing.T) {
	issuer := newJptIssuer(t)

	// Issued in the future AND structurally malformed (missing the base
	// credential type).
	claims := baseClaims(time.Now().Add(24 * time.Hour))
	claims["vc"].(map[string]interface{})["type"] = []string{"SomethingElse"}
	jpt := issuer.issue(t, claims)

	validator := NewValidator(Ed25519ProofVerifier{})

	_, err := validator.Validate(context.Background(), jpt, issuer.doc, nil, FirstError)
	var compound *CompoundValidationError
	if !errors.As(err, &compound) {
		t.Fatalf("error = %v, want CompoundValidationError", err)
	}
	if len(compound.Errors) != 1 {
		t.Fatalf("FirstError collected %d errors, want 1", len(compound.Errors))
	}
	var validity *ValidityError
	if !errors.As(compound.Errors[0], &validity) {
		t.Errorf("first error = %v, want the issuance-date failure", compound.Errors[0])
	}

	_, err = validator.Validate(context.Background(), jpt, issuer.doc, nil, AllErrors)
	if !errors.As(err, &compound) {
		t.Fatalf("error = %v, want CompoundValidationError", err)
	}
	if len(compound.Errors) != 2 {
		t.Fatalf("AllErrors collected %d errors, want 2", len(compound.Errors))
	}
	var structure *StructureError
	if !errors.As(compound.Errors[1], &structure) {
		t.Errorf("second error = %v, want the structure failure", compound.Errors[1])
	}
}

func TestValidateDocumentMismatch(t *testing.T) {
	issuer := newJptIssuer(t)
	jpt := issuer.issue(t, baseClaims(time.Now().Add(-time.Hour)))

	other := did.NewDocument("did:example:other")
	validator := NewValidator(Ed25519ProofVerifier{})
	_, err := validator.Validate(context.Background(), jpt, other, nil, FirstError)

	var compound *CompoundValidationError
	if !errors.As(err, &compound) || len(compound.Errors) != 1 {
		t.Fatalf("error = %v, want a single-entry CompoundValidationError", err)
	}
	var mismatch *DocumentMismatchError
	if !errors.As(compound.Errors[0], &mismatch) {
		t.Fatalf("error = %v, want DocumentMismatchError", compound.Errors[0])
	}
	if mismatch.Signer != ContextIssuer {
		t.Errorf("signer = %v, want issuer", mismatch.Signer)
	}
}

func TestValidateIdentifierMismatch(t *testing.T) {
	issuer := newJptIssuer(t)
	claims := baseClaims(time.Now().Add(-time.Hour))
	claims["iss"] = "did:example:somebodyelse"
	jpt := issuer.issue(t, claims)

	validator := NewValidator(Ed25519ProofVerifier{})
	_, err := validator.Validate(context.Background(), jpt, issuer.doc, nil, FirstError)

	var compound *CompoundValidationError
	if !errors.As(err, &compound) {
		t.Fatalf("error = %v, want CompoundValidationError", err)
	}
	var mismatch *IdentifierMismatchError
	if !errors.As(compound.Errors[0], &mismatch) {
		t.Errorf("error = %v, want IdentifierMismatchError", compound.Errors[0])
	}
}

func TestValidateMissingKid(t *testing.T) {
	issuer := newJptIssuer(t)
	claims := baseClaims(time.Now().Add(-time.Hour))

	// Issue without a kid in the protected header.
	names := []string{"iss", "vc"}
	payloads := [][]byte{}
	for _, name := range names {
		data, _ := json.Marshal(claims[name])
		payloads = append(payloads, data)
	}
	header := &Header{Alg: "EdDSA", Claims: names}
	jpt, err := Compact(header, payloads, func(input []byte) ([]byte, error) {
		return ed25519.Sign(issuer.priv, input), nil
	})
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	validator := NewValidator(Ed25519ProofVerifier{})
	_, verr := validator.Validate(context.Background(), jpt, issuer.doc, nil, FirstError)

	var compound *CompoundValidationError
	if !errors.As(verr, &compound) {
		t.Fatalf("error = %v, want CompoundValidationError", verr)
	}
	var lookup *MethodDataLookupError
	if !errors.As(compound.Errors[0], &lookup) {
		t.Fatalf("error = %v, want MethodDataLookupError", compound.Errors[0])
	}
	if lookup.Message != "could not extract kid from protected header" {
		t.Errorf("message = %q", lookup.Message)
	}
}

func TestValidateMethodIDOverride(t *testing.T) {
	issuer := newJptIssuer(t)
	claims := baseClaims(time.Now().Add(-time.Hour))

	// No kid in the header; the caller supplies the method id instead.
	names := []string{"iss", "jti", "sub", "nbf", "vc"}
	payloads := [][]byte{}
	for _, name := range names {
		data, _ := json.Marshal(claims[name])
		payloads = append(payloads, data)
	}
	header := &Header{Alg: "EdDSA", Claims: names}
	jpt, err := Compact(header, payloads, func(input []byte) ([]byte, error) {
		return ed25519.Sign(issuer.priv, input), nil
	})
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	options := &ValidationOptions{Verification: VerificationOptions{MethodID: issuerKid}}
	validator := NewValidator(Ed25519ProofVerifier{})
	if _, err := validator.Validate(context.Background(), jpt, issuer.doc, options, FirstError); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateProofFailure(t *testing.T) {
	issuer := newJptIssuer(t)
	jpt := issuer.issue(t, baseClaims(time.Now().Add(-time.Hour)))

	// Tamper with the last proof character to break the proof. The final
	// character of a 64-byte proof carries only two data bits, so the
	// replacement must change those bits ('A' and 'Q' differ in them).
	tampered := jpt[:len(jpt)-1]
	if jpt[len(jpt)-1] == 'A' {
		tampered += "Q"
	} else {
		tampered += "A"
	}

	validator := NewValidator(Ed25519ProofVerifier{})
	_, err := validator.Validate(context.Background(), tampered, issuer.doc, nil, AllErrors)

	var compound *CompoundValidationError
	if !errors.As(err, &compound) {
		t.Fatalf("error = %v, want CompoundValidationError", err)
	}
	if len(compound.Errors) != 1 {
		t.Fatalf("proof-phase failure produced %d errors, want 1", len(compound.Errors))
	}
	var proofErr *ProofVerificationError
	if !errors.As(compound.Errors[0], &proofErr) {
		t.Errorf("error = %v, want ProofVerificationError", compound.Errors[0])
	}
}

func TestValidateSubjectHolderRelationship(t *testing.T) {
	issuer := newJptIssuer(t)
	jpt := issuer.issue(t, baseClaims(time.Now().Add(-time.Hour)))
	validator := NewValidator(Ed25519ProofVerifier{})

	options := &ValidationOptions{SubjectHolderRelationship: &SubjectHolderRelationship{
		Holder:       "did:example:subject",
		Relationship: AlwaysSubject,
	}}
	if _, err := validator.Validate(context.Background(), jpt, issuer.doc, options, FirstError); err != nil {
		t.Fatalf("Validate failed for the matching holder: %v", err)
	}

	options.SubjectHolderRelationship.Holder = "did:example:stranger"
	if _, err := validator.Validate(context.Background(), jpt, issuer.doc, options, FirstError); err == nil {
		t.Error("Validate accepted a stranger as holder")
	}

	options.SubjectHolderRelationship.Relationship = Any
	if _, err := validator.Validate(context.Background(), jpt, issuer.doc, options, FirstError); err != nil {
		t.Errorf("Any relationship rejected: %v", err)
	}
}

func TestValidateRevokedCredential(t *testing.T) {
	issuer := newJptIssuer(t)

	bitmap := revocation.NewBitmap()
	bitmap.Set(7)
	svc, err := bitmap.ToService(did.URL{DID: issuer.doc.ID(), Fragment: "revocation"})
	if err != nil {
		t.Fatalf("ToService failed: %v", err)
	}
	issuer.doc.AddService(svc)

	claims := baseClaims(time.Now().Add(-time.Hour))
	claims["vc"].(map[string]interface{})["credentialStatus"] = map[string]interface{}{
		"id":                    issuerDID + "#revocation",
		"type":                  revocation.ServiceType,
		"revocationBitmapIndex": 7,
	}
	jpt := issuer.issue(t, claims)

	validator := NewValidator(Ed25519ProofVerifier{})

	// Status checking disabled: the revoked credential passes.
	if _, err := validator.Validate(context.Background(), jpt, issuer.doc, nil, FirstError); err != nil {
		t.Fatalf("Validate with status checks disabled failed: %v", err)
	}

	options := &ValidationOptions{Status: StatusCheckStrict}
	_, verr := validator.Validate(context.Background(), jpt, issuer.doc, options, FirstError)
	var compound *CompoundValidationError
	if !errors.As(verr, &compound) {
		t.Fatalf("error = %v, want CompoundValidationError", verr)
	}
	var revErr *RevocationError
	if !errors.As(compound.Errors[0], &revErr) {
		t.Fatalf("error = %v, want RevocationError", compound.Errors[0])
	}
	if !errors.Is(revErr, revocation.ErrRevoked) {
		t.Errorf("error = %v, want ErrRevoked", revErr)
	}

	// A different index passes even under strict checking.
	claims["vc"].(map[string]interface{})["credentialStatus"].(map[string]interface{})["revocationBitmapIndex"] = 8
	jpt = issuer.issue(t, claims)
	if _, err := validator.Validate(context.Background(), jpt, issuer.doc, options, FirstError); err != nil {
		t.Errorf("Validate failed for an unrevoked index: %v", err)
	}
}
