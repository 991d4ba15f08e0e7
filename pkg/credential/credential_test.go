package credential

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/hybrid"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/keys"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/storage"
)

func testCredential() *Credential {
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := time.Date(2034, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Credential{
		Context:        []string{BaseContext},
		ID:             "https://example.edu/credentials/42",
		Types:          []string{BaseType, "UniversityDegreeCredential"},
		Issuer:         "did:example:issuer",
		IssuanceDate:   &issued,
		ExpirationDate: &expires,
		Subjects: []Subject{{
			ID:         "did:example:subject",
			Properties: map[string]interface{}{"degree": "Bachelor of Science"},
		}},
	}
}

func TestCredentialJSONRoundTrip(t *testing.T) {
	cred := testCredential()

	data, err := json.Marshal(cred)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Credential
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Issuer != cred.Issuer || decoded.ID != cred.ID {
		t.Errorf("round-trip mismatch: %+v", decoded)
	}
	if len(decoded.Subjects) != 1 || decoded.Subjects[0].ID != "did:example:subject" {
		t.Errorf("subjects = %+v", decoded.Subjects)
	}
	if decoded.Subjects[0].Properties["degree"] != "Bachelor of Science" {
		t.Errorf("subject properties = %v", decoded.Subjects[0].Properties)
	}
	if !decoded.IssuanceDate.Equal(*cred.IssuanceDate) {
		t.Errorf("issuanceDate = %v", decoded.IssuanceDate)
	}
}

func TestCredentialUnmarshalIssuerObject(t *testing.T) {
	input := `{
		"@context": ["https://www.w3.org/2018/credentials/v1"],
		"type": ["VerifiableCredential"],
		"issuer": {"id": "did:example:issuer", "name": "Example University"},
		"credentialSubject": {"id": "did:example:subject"}
	}`
	var cred Credential
	if err := json.Unmarshal([]byte(input), &cred); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if cred.Issuer != "did:example:issuer" {
		t.Errorf("issuer = %q", cred.Issuer)
	}
}

func TestSerializeJWTShape(t *testing.T) {
	cred := testCredential()

	payload, err := SerializeJWT(cred, map[string]interface{}{"custom": "x"})
	if err != nil {
		t.Fatalf("SerializeJWT failed: %v", err)
	}

	var claims map[string]interface{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		t.Fatalf("claims are not valid JSON: %v", err)
	}
	if claims["iss"] != "did:example:issuer" {
		t.Errorf("iss = %v", claims["iss"])
	}
	if claims["jti"] != cred.ID {
		t.Errorf("jti = %v", claims["jti"])
	}
	if claims["sub"] != "did:example:subject" {
		t.Errorf("sub = %v", claims["sub"])
	}
	if claims["custom"] != "x" {
		t.Errorf("custom claim = %v", claims["custom"])
	}

	vc, ok := claims["vc"].(map[string]interface{})
	if !ok {
		t.Fatal("vc claim missing")
	}
	for _, migrated := range []string{"issuer", "issuanceDate", "expirationDate", "id"} {
		if _, present := vc[migrated]; present {
			t.Errorf("vc still contains %q", migrated)
		}
	}
	subject, ok := vc["credentialSubject"].(map[string]interface{})
	if !ok {
		t.Fatal("vc.credentialSubject missing")
	}
	if _, present := subject["id"]; present {
		t.Error("subject id was not migrated to sub")
	}
}

func TestSerializeJWTRejectsReservedCustomClaim(t *testing.T) {
	_, err := SerializeJWT(testCredential(), map[string]interface{}{"iss": "spoof"})
	if !errors.Is(err, ErrClaimsSerialization) {
		t.Errorf("error = %v, want ErrClaimsSerialization", err)
	}
}

func TestClaimsRoundTrip(t *testing.T) {
	cred := testCredential()
	payload, err := SerializeJWT(cred, map[string]interface{}{"custom": "x"})
	if err != nil {
		t.Fatalf("SerializeJWT failed: %v", err)
	}

	restored, custom, err := ParseJWTClaims(payload)
	if err != nil {
		t.Fatalf("ParseJWTClaims failed: %v", err)
	}
	if restored.Issuer != cred.Issuer || restored.ID != cred.ID {
		t.Errorf("restored = %+v", restored)
	}
	if len(restored.Subjects) != 1 || restored.Subjects[0].ID != cred.Subjects[0].ID {
		t.Errorf("subjects = %+v", restored.Subjects)
	}
	if !restored.IssuanceDate.Equal(*cred.IssuanceDate) {
		t.Errorf("issuanceDate = %v, want %v", restored.IssuanceDate, cred.IssuanceDate)
	}
	if !restored.ExpirationDate.Equal(*cred.ExpirationDate) {
		t.Errorf("expirationDate = %v", restored.ExpirationDate)
	}
	if custom["custom"] != "x" {
		t.Errorf("custom = %v", custom)
	}
}

func TestParseJWTClaimsMissingVc(t *testing.T) {
	if _, _, err := ParseJWTClaims([]byte(`{"iss":"did:example:issuer"}`)); !errors.Is(err, ErrClaimsSerialization) {
		t.Errorf("error = %v, want ErrClaimsSerialization", err)
	}
}

func signingSetup(t *testing.T) (*did.Document, *storage.Storage, string) {
	t.Helper()
	doc := did.NewDocument("did:example:issuer")
	store := storage.NewStorage(storage.NewMemKeyStore(), storage.NewMemKeyHandleStore())
	fragment, err := hybrid.GenerateMethod(
		context.Background(), doc, store, keys.MLDSA44Ed25519Sha512, "#sign-1", did.ScopeAssertionMethod)
	if err != nil {
		t.Fatalf("GenerateMethod failed: %v", err)
	}
	return doc, store, fragment
}

func TestCreateCredentialJWT(t *testing.T) {
	doc, store, fragment := signingSetup(t)

	jwt, err := CreateCredentialJWT(context.Background(), testCredential(), doc, store, fragment, nil, nil)
	if err != nil {
		t.Fatalf("CreateCredentialJWT failed: %v", err)
	}
	if strings.Count(jwt, ".") != 2 {
		t.Fatalf("not a compact JWT: %q", jwt)
	}

	composite := doc.ResolveMethod(fragment, "").Data.Composite
	payload, err := hybrid.Verify(jwt, composite, nil)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	restored, _, err := ParseJWTClaims(payload)
	if err != nil {
		t.Fatalf("ParseJWTClaims failed: %v", err)
	}
	if restored.Issuer != "did:example:issuer" {
		t.Errorf("issuer = %q", restored.Issuer)
	}
}

func TestCreateCredentialJWTRejectsDetached(t *testing.T) {
	doc, store, fragment := signingSetup(t)

	_, err := CreateCredentialJWT(context.Background(), testCredential(), doc, store, fragment,
		&hybrid.SignatureOptions{DetachedPayload: true}, nil)
	if err == nil || !strings.Contains(err.Error(), "detached") {
		t.Errorf("error = %v, want detached rejection", err)
	}
}

func TestCreateCredentialJWTRejectsB64False(t *testing.T) {
	doc, store, fragment := signingSetup(t)

	b64 := false
	_, err := CreateCredentialJWT(context.Background(), testCredential(), doc, store, fragment,
		&hybrid.SignatureOptions{B64: &b64}, nil)
	if err == nil || !strings.Contains(err.Error(), "b64") {
		t.Errorf("error = %v, want b64 rejection", err)
	}
}

func TestCreatePresentationJWT(t *testing.T) {
	doc, store, fragment := signingSetup(t)

	credJwt, err := CreateCredentialJWT(context.Background(), testCredential(), doc, store, fragment, nil, nil)
	if err != nil {
		t.Fatalf("CreateCredentialJWT failed: %v", err)
	}

	pres := &Presentation{
		Context:     []string{BaseContext},
		ID:          "https://example.org/presentations/7",
		Types:       []string{BasePresentationType},
		Holder:      "did:example:issuer",
		Credentials: []string{credJwt},
	}
	expires := time.Now().Add(time.Hour)
	jwt, err := CreatePresentationJWT(context.Background(), pres, doc, store, fragment,
		nil, &PresentationOptions{Audience: "did:example:verifier", ExpirationDate: &expires})
	if err != nil {
		t.Fatalf("CreatePresentationJWT failed: %v", err)
	}

	composite := doc.ResolveMethod(fragment, "").Data.Composite
	payload, err := hybrid.Verify(jwt, composite, nil)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	var claims map[string]interface{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		t.Fatalf("claims are not valid JSON: %v", err)
	}
	if claims["iss"] != "did:example:issuer" {
		t.Errorf("iss = %v", claims["iss"])
	}
	if claims["aud"] != "did:example:verifier" {
		t.Errorf("aud = %v", claims["aud"])
	}
	vp, ok := claims["vp"].(map[string]interface{})
	if !ok {
		t.Fatal("vp claim missing")
	}
	if _, present := vp["holder"]; present {
		t.Error("vp still contains holder")
	}
	vcs, ok := vp["verifiableCredential"].([]interface{})
	if !ok || len(vcs) != 1 || vcs[0] != credJwt {
		t.Errorf("verifiableCredential = %v", vp["verifiableCredential"])
	}
}

func TestPresentationRequiresHolder(t *testing.T) {
	pres := &Presentation{Context: []string{BaseContext}, Types: []string{BasePresentationType}}
	if _, err := SerializePresentationJWT(pres, nil); !errors.Is(err, ErrClaimsSerialization) {
		t.Errorf("error = %v, want ErrClaimsSerialization", err)
	}
}
