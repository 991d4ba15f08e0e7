package revocation

import (
	"fmt"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/credential"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
)

// IndexProperty is the credentialStatus property naming the bitmap index
const IndexProperty = "revocationBitmapIndex"

// CheckStatus resolves a credential's RevocationBitmap2022 status against
// the issuer documents. A credential without a status passes. An issuer
// whose document cannot be located, a malformed status, or a set bitmap
// index fail.
func CheckStatus(cred *credential.Credential, issuers []*did.Document) error {
	status := cred.Status
	if status == nil {
		return nil
	}
	if status.Type != ServiceType {
		return fmt.Errorf("unsupported credentialStatus type %q", status.Type)
	}

	index, err := statusIndex(status)
	if err != nil {
		return err
	}

	serviceURL, err := did.ParseURL(status.ID)
	if err != nil {
		return fmt.Errorf("invalid credentialStatus id: %w", err)
	}

	var issuer *did.Document
	for _, doc := range issuers {
		if doc.ID() == serviceURL.DID {
			issuer = doc
			break
		}
	}
	if issuer == nil {
		return fmt.Errorf("no issuer document matches credentialStatus id %q", status.ID)
	}

	svc := issuer.ResolveService(status.ID)
	if svc == nil {
		return fmt.Errorf("revocation service %q not found in issuer document", status.ID)
	}
	bitmap, err := FromService(svc)
	if err != nil {
		return err
	}
	if bitmap.Contains(index) {
		return ErrRevoked
	}
	return nil
}

func statusIndex(status *credential.Status) (uint32, error) {
	raw, ok := status.Properties[IndexProperty]
	if !ok {
		return 0, fmt.Errorf("credentialStatus is missing %s", IndexProperty)
	}
	switch v := raw.(type) {
	case float64:
		if v < 0 || v != float64(uint32(v)) {
			return 0, fmt.Errorf("invalid %s: %v", IndexProperty, v)
		}
		return uint32(v), nil
	case string:
		var index uint32
		if _, err := fmt.Sscanf(v, "%d", &index); err != nil {
			return 0, fmt.Errorf("invalid %s: %q", IndexProperty, v)
		}
		return index, nil
	default:
		return 0, fmt.Errorf("invalid %s type %T", IndexProperty, raw)
	}
}
