// Package revocation implements the RevocationBitmap2022 status scheme:
// a zlib-compressed bitset embedded in a DID document service endpoint.
package revocation

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/crypto"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
)

// ServiceType is the DID document service type carrying a revocation bitmap
const ServiceType = "RevocationBitmap2022"

// endpointPrefix is the data-URL prefix of the serialized bitmap
const endpointPrefix = "data:application/octet-stream;base64url,"

// ErrRevoked is returned when a credential's index is set in the bitmap
var ErrRevoked = errors.New("credential has been revoked")

// Bitmap is a set of revoked credential indices
type Bitmap struct {
	bits []byte
}

// NewBitmap creates an empty bitmap
func NewBitmap() *Bitmap {
	return &Bitmap{}
}

// Set marks index as revoked
func (b *Bitmap) Set(index uint32) {
	byteIdx := int(index / 8)
	if byteIdx >= len(b.bits) {
		grown := make([]byte, byteIdx+1)
		copy(grown, b.bits)
		b.bits = grown
	}
	b.bits[byteIdx] |= 1 << (7 - index%8)
}

// Unset clears index
func (b *Bitmap) Unset(index uint32) {
	byteIdx := int(index / 8)
	if byteIdx < len(b.bits) {
		b.bits[byteIdx] &^= 1 << (7 - index%8)
	}
}

// Contains reports whether index is revoked
func (b *Bitmap) Contains(index uint32) bool {
	byteIdx := int(index / 8)
	if byteIdx >= len(b.bits) {
		return false
	}
	return b.bits[byteIdx]&(1<<(7-index%8)) != 0
}

// Serialize compresses and encodes the bitmap into a data-URL endpoint
func (b *Bitmap) Serialize() (string, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(b.bits); err != nil {
		return "", fmt.Errorf("failed to compress bitmap: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to compress bitmap: %w", err)
	}
	return endpointPrefix + crypto.Base64URLEncode(buf.Bytes()), nil
}

// Deserialize decodes a data-URL endpoint back into a bitmap
func Deserialize(endpoint string) (*Bitmap, error) {
	encoded, ok := strings.CutPrefix(endpoint, endpointPrefix)
	if !ok {
		return nil, fmt.Errorf("unexpected revocation endpoint format")
	}
	compressed, err := crypto.Base64URLDecode(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode revocation endpoint: %w", err)
	}
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress bitmap: %w", err)
	}
	defer r.Close()
	bits, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress bitmap: %w", err)
	}
	return &Bitmap{bits: bits}, nil
}

// ToService renders the bitmap as a DID document service entry
func (b *Bitmap) ToService(id did.URL) (did.Service, error) {
	endpoint, err := b.Serialize()
	if err != nil {
		return did.Service{}, err
	}
	return did.Service{ID: id, Type: ServiceType, ServiceEndpoint: endpoint}, nil
}

// FromService decodes the bitmap out of a service entry
func FromService(svc *did.Service) (*Bitmap, error) {
	if svc.Type != ServiceType {
		return nil, fmt.Errorf("service %q is not a %s", svc.ID, ServiceType)
	}
	return Deserialize(svc.ServiceEndpoint)
}
