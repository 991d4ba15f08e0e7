package credential

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BasePresentationType is the type every presentation must include
const BasePresentationType = "VerifiablePresentation"

// Presentation is a verifiable presentation wrapping credential JWTs
type Presentation struct {
	Context     []string
	ID          string
	Types       []string
	Holder      string
	Credentials []string // compact credential JWTs
	Properties  map[string]interface{}
}

// MarshalJSON renders the presentation in W3C layout
func (p Presentation) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	for k, v := range p.Properties {
		out[k] = v
	}
	out["@context"] = p.Context
	out["type"] = p.Types
	if p.ID != "" {
		out["id"] = p.ID
	}
	if p.Holder != "" {
		out["holder"] = p.Holder
	}
	if len(p.Credentials) > 0 {
		out["verifiableCredential"] = p.Credentials
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the W3C layout back
func (p *Presentation) UnmarshalJSON(data []byte) error {
	var known struct {
		Context     []string `json:"@context"`
		ID          string   `json:"id"`
		Types       []string `json:"type"`
		Holder      string   `json:"holder"`
		Credentials []string `json:"verifiableCredential"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range []string{"@context", "id", "type", "holder", "verifiableCredential"} {
		delete(raw, k)
	}
	p.Context = known.Context
	p.ID = known.ID
	p.Types = known.Types
	p.Holder = known.Holder
	p.Credentials = known.Credentials
	p.Properties = raw
	return nil
}

// PresentationOptions carries the JWT-level claims of a presentation
type PresentationOptions struct {
	// Audience sets the aud claim when non-empty
	Audience string
	// ExpirationDate sets the exp claim when non-nil
	ExpirationDate *time.Time
	// IssuanceDate sets the nbf claim; nil means the current instant
	IssuanceDate *time.Time
}

// SerializePresentationJWT moves a presentation into the VP JWT claim
// shape: holder and id migrate to iss/jti, the rest stays under vp
func SerializePresentationJWT(pres *Presentation, options *PresentationOptions) ([]byte, error) {
	if options == nil {
		options = &PresentationOptions{}
	}
	if pres.Holder == "" {
		return nil, fmt.Errorf("%w: presentation is missing a holder", ErrClaimsSerialization)
	}

	data, err := json.Marshal(pres)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimsSerialization, err)
	}
	var vp map[string]interface{}
	if err := json.Unmarshal(data, &vp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimsSerialization, err)
	}

	claims := map[string]interface{}{}
	claims["iss"] = pres.Holder
	delete(vp, "holder")
	if pres.ID != "" {
		claims["jti"] = pres.ID
		delete(vp, "id")
	}
	if options.Audience != "" {
		claims["aud"] = options.Audience
	}
	issued := time.Now()
	if options.IssuanceDate != nil {
		issued = *options.IssuanceDate
	}
	claims["nbf"] = jwt.NewNumericDate(issued)
	if options.ExpirationDate != nil {
		claims["exp"] = jwt.NewNumericDate(*options.ExpirationDate)
	}
	claims["vp"] = vp

	return json.Marshal(claims)
}
