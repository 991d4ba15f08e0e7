// Package credential models W3C verifiable credentials and presentations
// and their JWT claim encoding.
package credential

import (
	"encoding/json"
	"fmt"
	"time"
)

// BaseContext is the first entry every credential context must carry
const BaseContext = "https://www.w3.org/2018/credentials/v1"

// BaseType is the type every credential must include
const BaseType = "VerifiableCredential"

// Subject is a credential subject: an optional id plus arbitrary claims
type Subject struct {
	ID         string
	Properties map[string]interface{}
}

// MarshalJSON flattens the subject properties next to the id
func (s Subject) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	for k, v := range s.Properties {
		out[k] = v
	}
	if s.ID != "" {
		out["id"] = s.ID
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits the id from the remaining claims
func (s *Subject) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if id, ok := raw["id"].(string); ok {
		s.ID = id
		delete(raw, "id")
	}
	s.Properties = raw
	return nil
}

// Status is a credentialStatus entry
type Status struct {
	ID         string
	Type       string
	Properties map[string]interface{}
}

// MarshalJSON flattens the status properties next to id and type
func (s Status) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	for k, v := range s.Properties {
		out[k] = v
	}
	out["id"] = s.ID
	out["type"] = s.Type
	return json.Marshal(out)
}

// UnmarshalJSON splits id and type from the remaining properties
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if id, ok := raw["id"].(string); ok {
		s.ID = id
		delete(raw, "id")
	}
	if typ, ok := raw["type"].(string); ok {
		s.Type = typ
		delete(raw, "type")
	}
	s.Properties = raw
	return nil
}

// Credential is a verifiable credential. Properties holds any fields
// outside the modeled ones.
type Credential struct {
	Context        []string
	ID             string
	Types          []string
	Issuer         string
	IssuanceDate   *time.Time
	ExpirationDate *time.Time
	Subjects       []Subject
	Status         *Status
	Properties     map[string]interface{}
}

type credentialJSON struct {
	Context        []string        `json:"@context"`
	ID             string          `json:"id,omitempty"`
	Types          []string        `json:"type"`
	Issuer         json.RawMessage `json:"issuer,omitempty"`
	IssuanceDate   string          `json:"issuanceDate,omitempty"`
	ExpirationDate string          `json:"expirationDate,omitempty"`
	Subject        json.RawMessage `json:"credentialSubject,omitempty"`
	Status         *Status         `json:"credentialStatus,omitempty"`
}

// MarshalJSON renders the credential in W3C layout: a single subject is
// emitted as an object, several as an array
func (c Credential) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	for k, v := range c.Properties {
		out[k] = v
	}
	out["@context"] = c.Context
	out["type"] = c.Types
	if c.ID != "" {
		out["id"] = c.ID
	}
	if c.Issuer != "" {
		out["issuer"] = c.Issuer
	}
	if c.IssuanceDate != nil {
		out["issuanceDate"] = c.IssuanceDate.UTC().Format(time.RFC3339)
	}
	if c.ExpirationDate != nil {
		out["expirationDate"] = c.ExpirationDate.UTC().Format(time.RFC3339)
	}
	switch len(c.Subjects) {
	case 0:
	case 1:
		out["credentialSubject"] = c.Subjects[0]
	default:
		out["credentialSubject"] = c.Subjects
	}
	if c.Status != nil {
		out["credentialStatus"] = c.Status
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the W3C layout, accepting an issuer given as a
// string or as an object with an id, and a subject given as an object or
// an array
func (c *Credential) UnmarshalJSON(data []byte) error {
	var known credentialJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range []string{"@context", "id", "type", "issuer", "issuanceDate", "expirationDate", "credentialSubject", "credentialStatus"} {
		delete(raw, k)
	}

	c.Context = known.Context
	c.ID = known.ID
	c.Types = known.Types
	c.Status = known.Status
	c.Properties = raw

	if len(known.Issuer) > 0 {
		issuer, err := parseIssuer(known.Issuer)
		if err != nil {
			return err
		}
		c.Issuer = issuer
	}

	if known.IssuanceDate != "" {
		t, err := time.Parse(time.RFC3339, known.IssuanceDate)
		if err != nil {
			return fmt.Errorf("invalid issuanceDate: %w", err)
		}
		c.IssuanceDate = &t
	}
	if known.ExpirationDate != "" {
		t, err := time.Parse(time.RFC3339, known.ExpirationDate)
		if err != nil {
			return fmt.Errorf("invalid expirationDate: %w", err)
		}
		c.ExpirationDate = &t
	}

	if len(known.Subject) > 0 {
		subjects, err := parseSubjects(known.Subject)
		if err != nil {
			return err
		}
		c.Subjects = subjects
	}
	return nil
}

func parseIssuer(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("invalid issuer: %w", err)
	}
	return obj.ID, nil
}

func parseSubjects(raw json.RawMessage) ([]Subject, error) {
	var one Subject
	if err := json.Unmarshal(raw, &one); err == nil {
		return []Subject{one}, nil
	}
	var many []Subject
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("invalid credentialSubject: %w", err)
	}
	return many, nil
}
