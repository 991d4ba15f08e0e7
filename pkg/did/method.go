package did

import (
	"encoding/json"
	"fmt"

	"github.com/multiformats/go-multibase"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/keys"
)

// MethodTypeComposite is the verification method type carrying a
// CompositePublicKey
const MethodTypeComposite = "CompositeSignaturePublicKey"

// MethodScope is the verification relationship a method is registered under
type MethodScope string

const (
	// ScopeVerificationMethod embeds the method without a relationship
	ScopeVerificationMethod MethodScope = "VerificationMethod"
	// ScopeAuthentication registers the method for authentication
	ScopeAuthentication MethodScope = "Authentication"
	// ScopeAssertionMethod registers the method for assertions
	ScopeAssertionMethod MethodScope = "AssertionMethod"
	// ScopeKeyAgreement registers the method for key agreement
	ScopeKeyAgreement MethodScope = "KeyAgreement"
	// ScopeCapabilityInvocation registers the method for capability invocation
	ScopeCapabilityInvocation MethodScope = "CapabilityInvocation"
	// ScopeCapabilityDelegation registers the method for capability delegation
	ScopeCapabilityDelegation MethodScope = "CapabilityDelegation"
)

// MethodData is the key material of a verification method. Exactly one of
// the fields is set.
type MethodData struct {
	PublicKeyJwk       *keys.JWK                `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string                   `json:"publicKeyMultibase,omitempty"`
	Composite          *keys.CompositePublicKey `json:"compositePublicKey,omitempty"`
}

// DecodeMultibase decodes the multibase-encoded key bytes
func (d *MethodData) DecodeMultibase() ([]byte, error) {
	if d.PublicKeyMultibase == "" {
		return nil, fmt.Errorf("method data is not multibase")
	}
	_, bytes, err := multibase.Decode(d.PublicKeyMultibase)
	if err != nil {
		return nil, fmt.Errorf("failed to decode multibase key: %w", err)
	}
	return bytes, nil
}

// VerificationMethod is an entry in a DID document associating key
// material with a DID URL
type VerificationMethod struct {
	ID         URL        `json:"id"`
	Type       string     `json:"type"`
	Controller DID        `json:"controller"`
	Data       MethodData `json:"-"`
}

// methodJSON is the W3C wire layout where the data variant is flattened
// next to the fixed fields
type methodJSON struct {
	ID                 URL                      `json:"id"`
	Type               string                   `json:"type"`
	Controller         DID                      `json:"controller"`
	PublicKeyJwk       *keys.JWK                `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string                   `json:"publicKeyMultibase,omitempty"`
	Composite          *keys.CompositePublicKey `json:"compositePublicKey,omitempty"`
}

// MarshalJSON flattens the method data into the method object
func (m VerificationMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(methodJSON{
		ID:                 m.ID,
		Type:               m.Type,
		Controller:         m.Controller,
		PublicKeyJwk:       m.Data.PublicKeyJwk,
		PublicKeyMultibase: m.Data.PublicKeyMultibase,
		Composite:          m.Data.Composite,
	})
}

// UnmarshalJSON reads the flattened wire layout
func (m *VerificationMethod) UnmarshalJSON(data []byte) error {
	var raw methodJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.ID = raw.ID
	m.Type = raw.Type
	m.Controller = raw.Controller
	m.Data = MethodData{
		PublicKeyJwk:       raw.PublicKeyJwk,
		PublicKeyMultibase: raw.PublicKeyMultibase,
		Composite:          raw.Composite,
	}
	return nil
}
