// Package jpt decodes and validates credentials issued as JSON Proof
// Tokens: JWP envelopes whose payload groups carry the VC JWT claim set.
package jpt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/crypto"
)

// Header is the JWP issuer protected header
type Header struct {
	Alg    string   `json:"alg"`
	Typ    string   `json:"typ,omitempty"`
	Kid    string   `json:"kid,omitempty"`
	Claims []string `json:"claims,omitempty"`
}

// DecodedJwp is a decoded issued JWP. Payload slots align with the
// header's claim names; a nil payload is undisclosed.
type DecodedJwp struct {
	header           *Header
	protectedSegment string
	payloadsSegment  string
	payloads         [][]byte
	proof            []byte
}

// Decode parses the three-segment JWP compact serialization
func Decode(compact string) (*DecodedJwp, error) {
	parts := strings.Split(compact, ".")
	if len(parts) != 3 {
		return nil, &DecodingError{Source: fmt.Errorf("compact JWP must have 3 segments, got %d", len(parts))}
	}

	headerJSON, err := crypto.Base64URLDecode(parts[0])
	if err != nil {
		return nil, &DecodingError{Source: fmt.Errorf("failed to decode protected header: %w", err)}
	}
	header := &Header{}
	if err := json.Unmarshal(headerJSON, header); err != nil {
		return nil, &DecodingError{Source: fmt.Errorf("failed to parse protected header: %w", err)}
	}
	if header.Alg == "" {
		return nil, &DecodingError{Source: fmt.Errorf("protected header is missing alg")}
	}

	segments := strings.Split(parts[1], "~")
	payloads := make([][]byte, len(segments))
	for i, segment := range segments {
		if segment == "" {
			continue // undisclosed payload
		}
		payload, err := crypto.Base64URLDecode(segment)
		if err != nil {
			return nil, &DecodingError{Source: fmt.Errorf("failed to decode payload %d: %w", i, err)}
		}
		payloads[i] = payload
	}

	if len(header.Claims) > 0 && len(header.Claims) != len(payloads) {
		return nil, &DecodingError{Source: fmt.Errorf(
			"header names %d claims but %d payloads are present", len(header.Claims), len(payloads))}
	}

	proof, err := crypto.Base64URLDecode(parts[2])
	if err != nil {
		return nil, &DecodingError{Source: fmt.Errorf("failed to decode proof: %w", err)}
	}
	if len(proof) == 0 {
		return nil, &DecodingError{Source: fmt.Errorf("missing proof")}
	}

	return &DecodedJwp{
		header:           header,
		protectedSegment: parts[0],
		payloadsSegment:  parts[1],
		payloads:         payloads,
		proof:            proof,
	}, nil
}

// Header returns the protected header
func (d *DecodedJwp) Header() *Header {
	return d.header
}

// Payloads returns the payload slots; nil entries are undisclosed
func (d *DecodedJwp) Payloads() [][]byte {
	return d.payloads
}

// Proof returns the raw proof bytes
func (d *DecodedJwp) Proof() []byte {
	return d.proof
}

// PresignatureInput returns the bytes the proof commits to: the protected
// segment and the payloads segment joined by "."
func (d *DecodedJwp) PresignatureInput() []byte {
	return []byte(d.protectedSegment + "." + d.payloadsSegment)
}

// ClaimsJSON zips the header's claim names with the disclosed payload
// values into one JSON object. Dotted claim names rebuild nested
// structure, so "vc.credentialSubject" lands under "vc".
func (d *DecodedJwp) ClaimsJSON() ([]byte, error) {
	if len(d.header.Claims) == 0 {
		return nil, fmt.Errorf("protected header carries no claim names")
	}
	root := map[string]interface{}{}
	for i, name := range d.header.Claims {
		if d.payloads[i] == nil {
			continue
		}
		var value interface{}
		if err := json.Unmarshal(d.payloads[i], &value); err != nil {
			return nil, fmt.Errorf("claim %q is not valid JSON: %w", name, err)
		}
		if err := setClaimPath(root, strings.Split(name, "."), value); err != nil {
			return nil, err
		}
	}
	return json.Marshal(root)
}

func setClaimPath(node map[string]interface{}, path []string, value interface{}) error {
	if len(path) == 1 {
		node[path[0]] = value
		return nil
	}
	child, ok := node[path[0]]
	if !ok {
		child = map[string]interface{}{}
		node[path[0]] = child
	}
	childMap, ok := child.(map[string]interface{})
	if !ok {
		return fmt.Errorf("claim path %q collides with a non-object value", path[0])
	}
	return setClaimPath(childMap, path[1:], value)
}

// Compact serializes an issued JWP from its parts. The prove callback
// receives the presignature input and returns the proof bytes.
func Compact(header *Header, payloads [][]byte, prove func(input []byte) ([]byte, error)) (string, error) {
	if len(header.Claims) != len(payloads) {
		return "", fmt.Errorf("header names %d claims but %d payloads were given", len(header.Claims), len(payloads))
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	protected := crypto.Base64URLEncode(headerJSON)

	segments := make([]string, len(payloads))
	for i, payload := range payloads {
		if payload == nil {
			continue
		}
		segments[i] = crypto.Base64URLEncode(payload)
	}
	payloadsSegment := strings.Join(segments, "~")

	proof, err := prove([]byte(protected + "." + payloadsSegment))
	if err != nil {
		return "", err
	}
	return protected + "." + payloadsSegment + "." + crypto.Base64URLEncode(proof), nil
}
