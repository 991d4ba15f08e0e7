package did

import "encoding/json"

// docJSON is the W3C wire layout with relationship arrays holding
// "#fragment" references
type docJSON struct {
	Context              []string             `json:"@context"`
	ID                   DID                  `json:"id"`
	Methods              []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication       []string             `json:"authentication,omitempty"`
	AssertionMethod      []string             `json:"assertionMethod,omitempty"`
	KeyAgreement         []string             `json:"keyAgreement,omitempty"`
	CapabilityInvocation []string             `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []string             `json:"capabilityDelegation,omitempty"`
	Services             []Service            `json:"service,omitempty"`
}

var relationScopes = []MethodScope{
	ScopeAuthentication,
	ScopeAssertionMethod,
	ScopeKeyAgreement,
	ScopeCapabilityInvocation,
	ScopeCapabilityDelegation,
}

func refs(frags []string) []string {
	out := make([]string, len(frags))
	for i, f := range frags {
		out[i] = "#" + f
	}
	return out
}

// MarshalJSON renders the document in W3C layout
func (d *Document) MarshalJSON() ([]byte, error) {
	out := docJSON{
		Context:              d.Context,
		ID:                   d.DocID,
		Methods:              d.Methods,
		Services:             d.Services,
		Authentication:       refs(d.relations[ScopeAuthentication]),
		AssertionMethod:      refs(d.relations[ScopeAssertionMethod]),
		KeyAgreement:         refs(d.relations[ScopeKeyAgreement]),
		CapabilityInvocation: refs(d.relations[ScopeCapabilityInvocation]),
		CapabilityDelegation: refs(d.relations[ScopeCapabilityDelegation]),
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the W3C layout back
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw docJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Context = raw.Context
	d.DocID = raw.ID
	d.Methods = raw.Methods
	d.Services = raw.Services
	d.relations = map[MethodScope][]string{}
	byScope := map[MethodScope][]string{
		ScopeAuthentication:       raw.Authentication,
		ScopeAssertionMethod:      raw.AssertionMethod,
		ScopeKeyAgreement:         raw.KeyAgreement,
		ScopeCapabilityInvocation: raw.CapabilityInvocation,
		ScopeCapabilityDelegation: raw.CapabilityDelegation,
	}
	for scope, entries := range byScope {
		for _, ref := range entries {
			if len(ref) > 1 && ref[0] == '#' {
				d.relations[scope] = append(d.relations[scope], ref[1:])
			}
		}
	}
	return nil
}
