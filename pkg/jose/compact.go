package jose

import (
	"fmt"
	"strings"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/crypto"
)

// EncodingOptions selects the compact serialization variant
type EncodingOptions struct {
	// Detached omits the payload segment from the serialization
	Detached bool
}

// Encoder assembles the compact JWS serialization. The signing input is
// fixed at construction; Serialize appends the signature once computed.
type Encoder struct {
	protected      string
	payloadSegment string
	detached       bool
}

// NewEncoder prepares a compact JWS for the given payload and header.
// With b64=false the payload enters the signing input raw (RFC 7797); a
// raw payload carried in the compact serialization must not contain ".".
func NewEncoder(payload []byte, header *Header, opts EncodingOptions) (*Encoder, error) {
	headerJSON, err := header.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}

	var payloadSegment string
	if header.IsB64() {
		payloadSegment = crypto.Base64URLEncode(payload)
	} else {
		payloadSegment = string(payload)
		if !opts.Detached && strings.Contains(payloadSegment, ".") {
			return nil, fmt.Errorf("unencoded payload must not contain %q in the compact serialization", ".")
		}
	}

	return &Encoder{
		protected:      crypto.Base64URLEncode(headerJSON),
		payloadSegment: payloadSegment,
		detached:       opts.Detached,
	}, nil
}

// SigningInput returns BASE64URL(header) "." payload-segment
func (e *Encoder) SigningInput() []byte {
	return []byte(e.protected + "." + e.payloadSegment)
}

// Serialize produces the compact JWS for the given signature
func (e *Encoder) Serialize(signature []byte) string {
	sig := crypto.Base64URLEncode(signature)
	if e.detached {
		return e.protected + ".." + sig
	}
	return e.protected + "." + e.payloadSegment + "." + sig
}

// ParsedJws is a decoded compact JWS. The raw segments are retained so a
// verifier can reconstruct the exact signing input.
type ParsedJws struct {
	Header           *Header
	ProtectedSegment string
	PayloadSegment   string
	Signature        []byte
}

// ParseCompact splits and decodes a compact JWS serialization
func ParseCompact(s string) (*ParsedJws, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("compact JWS must have 3 segments, got %d", len(parts))
	}

	headerJSON, err := crypto.Base64URLDecode(parts[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode header segment: %w", err)
	}
	header := &Header{}
	if err := header.UnmarshalJSON(headerJSON); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	if _, err := ParseAlgorithm(string(header.Alg)); err != nil {
		return nil, err
	}

	signature, err := crypto.Base64URLDecode(parts[2])
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature segment: %w", err)
	}

	return &ParsedJws{
		Header:           header,
		ProtectedSegment: parts[0],
		PayloadSegment:   parts[1],
		Signature:        signature,
	}, nil
}

// IsDetached reports whether the payload segment is empty
func (p *ParsedJws) IsDetached() bool {
	return p.PayloadSegment == ""
}

// Payload returns the attached payload bytes, honoring b64
func (p *ParsedJws) Payload() ([]byte, error) {
	if p.IsDetached() {
		return nil, fmt.Errorf("JWS carries a detached payload")
	}
	if p.Header.IsB64() {
		return crypto.Base64URLDecode(p.PayloadSegment)
	}
	return []byte(p.PayloadSegment), nil
}

// SigningInput reconstructs the signed bytes. For a detached JWS the
// caller supplies the payload; for an attached one detachedPayload must
// be nil.
func (p *ParsedJws) SigningInput(detachedPayload []byte) ([]byte, error) {
	segment := p.PayloadSegment
	if p.IsDetached() {
		if detachedPayload == nil {
			return nil, fmt.Errorf("detached JWS requires the payload to verify")
		}
		if p.Header.IsB64() {
			segment = crypto.Base64URLEncode(detachedPayload)
		} else {
			segment = string(detachedPayload)
		}
	} else if detachedPayload != nil {
		return nil, fmt.Errorf("JWS carries an attached payload")
	}
	return []byte(p.ProtectedSegment + "." + segment), nil
}
