package revocation

import (
	"errors"
	"testing"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/credential"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
)

func TestBitmapSetContains(t *testing.T) {
	bitmap := NewBitmap()

	indices := []uint32{0, 1, 7, 8, 63, 64, 1000}
	for _, idx := range indices {
		if bitmap.Contains(idx) {
			t.Errorf("empty bitmap contains %d", idx)
		}
		bitmap.Set(idx)
		if !bitmap.Contains(idx) {
			t.Errorf("bitmap does not contain %d after Set", idx)
		}
	}

	bitmap.Unset(8)
	if bitmap.Contains(8) {
		t.Error("bitmap contains 8 after Unset")
	}
	if !bitmap.Contains(7) || !bitmap.Contains(63) {
		t.Error("Unset cleared unrelated indices")
	}
}

func TestBitmapSerializeRoundTrip(t *testing.T) {
	bitmap := NewBitmap()
	bitmap.Set(3)
	bitmap.Set(42)
	bitmap.Set(512)

	endpoint, err := bitmap.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	restored, err := Deserialize(endpoint)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	for _, idx := range []uint32{3, 42, 512} {
		if !restored.Contains(idx) {
			t.Errorf("restored bitmap is missing %d", idx)
		}
	}
	if restored.Contains(4) {
		t.Error("restored bitmap contains an index that was never set")
	}

	if _, err := Deserialize("https://not-a-data-url"); err == nil {
		t.Error("expected error for a non data-URL endpoint")
	}
}

func statusCredential(issuer string, index interface{}) *credential.Credential {
	return &credential.Credential{
		Context: []string{credential.BaseContext},
		Types:   []string{credential.BaseType},
		Issuer:  issuer,
		Subjects: []credential.Subject{
			{ID: "did:example:subject"},
		},
		Status: &credential.Status{
			ID:         issuer + "#revocation",
			Type:       ServiceType,
			Properties: map[string]interface{}{IndexProperty: index},
		},
	}
}

func TestCheckStatus(t *testing.T) {
	doc := did.NewDocument("did:example:issuer")
	bitmap := NewBitmap()
	bitmap.Set(5)
	svc, err := bitmap.ToService(did.URL{DID: doc.ID(), Fragment: "revocation"})
	if err != nil {
		t.Fatalf("ToService failed: %v", err)
	}
	doc.AddService(svc)
	issuers := []*did.Document{doc}

	// Revoked index.
	err = CheckStatus(statusCredential("did:example:issuer", float64(5)), issuers)
	if !errors.Is(err, ErrRevoked) {
		t.Errorf("error = %v, want ErrRevoked", err)
	}

	// Unrevoked index.
	if err := CheckStatus(statusCredential("did:example:issuer", float64(6)), issuers); err != nil {
		t.Errorf("unrevoked index rejected: %v", err)
	}

	// String-typed index.
	if err := CheckStatus(statusCredential("did:example:issuer", "6"), issuers); err != nil {
		t.Errorf("string index rejected: %v", err)
	}

	// No status at all.
	cred := statusCredential("did:example:issuer", float64(5))
	cred.Status = nil
	if err := CheckStatus(cred, issuers); err != nil {
		t.Errorf("credential without status rejected: %v", err)
	}

	// Missing index property.
	broken := statusCredential("did:example:issuer", float64(5))
	broken.Status.Properties = map[string]interface{}{}
	if err := CheckStatus(broken, issuers); err == nil {
		t.Error("expected error for a status without an index")
	}

	// Issuer document not in the set.
	other := statusCredential("did:example:other", float64(5))
	if err := CheckStatus(other, issuers); err == nil {
		t.Error("expected error when no document matches the status DID")
	}
}

func TestCheckStatusMissingService(t *testing.T) {
	doc := did.NewDocument("did:example:issuer")
	err := CheckStatus(statusCredential("did:example:issuer", float64(1)), []*did.Document{doc})
	if err == nil {
		t.Error("expected error for a missing revocation service")
	}
}
