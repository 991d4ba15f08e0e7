package jpt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/credential"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/revocation"
)

// ValidationUnit is a lazy check producing at most one validation error.
// Laziness lets the fail-fast policy skip expensive units, notably the
// status check.
type ValidationUnit func() error

// credentialSchema is the structural envelope every credential must
// satisfy before the semantic checks run
const credentialSchema = `{
	"type": "object",
	"required": ["@context", "type", "issuer", "credentialSubject"],
	"properties": {
		"@context": {"type": "array", "minItems": 1, "items": {"type": "string"}},
		"type": {"type": "array", "minItems": 1, "items": {"type": "string"}},
		"issuer": {"type": "string", "minLength": 1},
		"issuanceDate": {"type": "string"},
		"expirationDate": {"type": "string"},
		"credentialSubject": {
			"anyOf": [
				{"type": "object"},
				{"type": "array", "minItems": 1, "items": {"type": "object"}}
			]
		}
	}
}`

var compiledCredentialSchema = gojsonschema.NewStringLoader(credentialSchema)

// CheckIssuedOnOrBefore fails when the credential was issued after latest
func CheckIssuedOnOrBefore(cred *credential.Credential, latest time.Time) error {
	if cred.IssuanceDate == nil {
		return &StructureError{Source: fmt.Errorf("credential is missing issuanceDate")}
	}
	if cred.IssuanceDate.After(latest) {
		return &ValidityError{Message: "issuance date is later than allowed"}
	}
	return nil
}

// CheckExpiresOnOrAfter fails when the credential expires before earliest
func CheckExpiresOnOrAfter(cred *credential.Credential, earliest time.Time) error {
	if cred.ExpirationDate == nil {
		return nil
	}
	if cred.ExpirationDate.Before(earliest) {
		return &ValidityError{Message: "expiration date is earlier than allowed"}
	}
	return nil
}

// CheckStructure validates the credential's semantic shape: the JSON
// envelope, the base context and type, and a non-empty subject list
func CheckStructure(cred *credential.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return &StructureError{Source: err}
	}
	result, err := gojsonschema.Validate(compiledCredentialSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &StructureError{Source: err}
	}
	if !result.Valid() {
		return &StructureError{Source: fmt.Errorf("schema violation: %v", result.Errors())}
	}

	if len(cred.Context) == 0 || cred.Context[0] != credential.BaseContext {
		return &StructureError{Source: fmt.Errorf("first @context entry must be %q", credential.BaseContext)}
	}
	if !containsType(cred.Types, credential.BaseType) {
		return &StructureError{Source: fmt.Errorf("type must include %q", credential.BaseType)}
	}
	if len(cred.Subjects) == 0 {
		return &StructureError{Source: fmt.Errorf("credential has no subject")}
	}
	for _, subject := range cred.Subjects {
		if subject.ID == "" && len(subject.Properties) == 0 {
			return &StructureError{Source: fmt.Errorf("credential subject is empty")}
		}
	}
	return nil
}

func containsType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// CheckSubjectHolderRelationship enforces the holder/subject relation
func CheckSubjectHolderRelationship(cred *credential.Credential, holder string, relationship HolderRelationship) error {
	switch relationship {
	case Any:
		return nil
	case SubjectOnNonTransferable:
		if transferable, ok := cred.Properties["nonTransferable"].(bool); !ok || !transferable {
			return nil
		}
	case AlwaysSubject:
	}
	for _, subject := range cred.Subjects {
		if subject.ID != holder {
			return &ValidityError{Message: "the holder is not the subject of the credential"}
		}
	}
	return nil
}

// CheckStatus resolves the credential's revocation status against the
// issuer documents, honoring the configured StatusCheck mode
func CheckStatus(cred *credential.Credential, issuers []*did.Document, statusCheck StatusCheck) error {
	if statusCheck == StatusCheckSkipAll || cred.Status == nil {
		return nil
	}
	if cred.Status.Type != revocation.ServiceType && statusCheck == StatusCheckSkipUnsupported {
		return nil
	}
	if err := revocation.CheckStatus(cred, issuers); err != nil {
		return &RevocationError{Source: err}
	}
	return nil
}
