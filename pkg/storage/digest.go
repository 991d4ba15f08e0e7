package storage

import (
	"encoding/json"
	"fmt"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/crypto"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
)

// MethodDigest is a stable digest over a verification method's canonical
// encoding, used as the lookup key for a KeyHandleStore
type MethodDigest string

// digestVersion tags the canonical encoding so it can evolve
const digestVersion byte = 0x01

// NewMethodDigest computes the digest of a verification method. Equal
// methods yield equal digests.
func NewMethodDigest(m *did.VerificationMethod) (MethodDigest, error) {
	if m == nil {
		return "", fmt.Errorf("cannot digest a nil method")
	}
	data, err := json.Marshal(m.Data)
	if err != nil {
		return "", fmt.Errorf("failed to encode method data: %w", err)
	}

	input := []byte{digestVersion}
	input = append(input, []byte(m.ID.String())...)
	input = append(input, 0x00)
	input = append(input, []byte(m.Controller.String())...)
	input = append(input, 0x00)
	input = append(input, []byte(m.Type)...)
	input = append(input, 0x00)
	input = append(input, data...)

	return MethodDigest(crypto.HashToBase64URL(input)), nil
}
