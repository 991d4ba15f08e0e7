package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrClaimsSerialization is returned when a credential or presentation
// cannot be moved into or out of the JWT claim shape
var ErrClaimsSerialization = errors.New("claims serialization error")

// registered claim names owned by the JWT encoding; custom claims must
// not collide with them
var reservedClaims = map[string]bool{
	"iss": true, "nbf": true, "exp": true, "jti": true, "sub": true, "vc": true, "vp": true, "aud": true,
}

// SerializeJWT moves a credential into the VC JWT claim shape: issuer,
// dates, id and single-subject id migrate to iss/nbf/exp/jti/sub, the
// rest stays under vc. Custom claims are merged at the top level.
func SerializeJWT(cred *Credential, customClaims map[string]interface{}) ([]byte, error) {
	data, err := json.Marshal(cred)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimsSerialization, err)
	}
	var vc map[string]interface{}
	if err := json.Unmarshal(data, &vc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimsSerialization, err)
	}

	claims := map[string]interface{}{}
	for k, v := range customClaims {
		if reservedClaims[k] {
			return nil, fmt.Errorf("%w: custom claim %q collides with a registered claim", ErrClaimsSerialization, k)
		}
		claims[k] = v
	}

	if cred.Issuer != "" {
		claims["iss"] = cred.Issuer
		delete(vc, "issuer")
	}
	if cred.IssuanceDate != nil {
		claims["nbf"] = jwt.NewNumericDate(*cred.IssuanceDate)
		delete(vc, "issuanceDate")
	}
	if cred.ExpirationDate != nil {
		claims["exp"] = jwt.NewNumericDate(*cred.ExpirationDate)
		delete(vc, "expirationDate")
	}
	if cred.ID != "" {
		claims["jti"] = cred.ID
		delete(vc, "id")
	}
	if len(cred.Subjects) == 1 && cred.Subjects[0].ID != "" {
		claims["sub"] = cred.Subjects[0].ID
		if subject, ok := vc["credentialSubject"].(map[string]interface{}); ok {
			delete(subject, "id")
		}
	}
	claims["vc"] = vc

	return json.Marshal(claims)
}

// ParseJWTClaims rebuilds a credential from the VC JWT claim shape and
// returns the claims outside the registered set as custom claims
func ParseJWTClaims(data []byte) (*Credential, map[string]interface{}, error) {
	var claims map[string]json.RawMessage
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrClaimsSerialization, err)
	}

	vcRaw, ok := claims["vc"]
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing vc claim", ErrClaimsSerialization)
	}
	var vc map[string]interface{}
	if err := json.Unmarshal(vcRaw, &vc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrClaimsSerialization, err)
	}

	if iss, err := takeString(claims, "iss"); err != nil {
		return nil, nil, err
	} else if iss != "" {
		vc["issuer"] = iss
	}
	if jti, err := takeString(claims, "jti"); err != nil {
		return nil, nil, err
	} else if jti != "" {
		vc["id"] = jti
	}

	sub, err := takeString(claims, "sub")
	if err != nil {
		return nil, nil, err
	}
	if sub != "" {
		if subject, ok := vc["credentialSubject"].(map[string]interface{}); ok {
			subject["id"] = sub
		} else if vc["credentialSubject"] == nil {
			vc["credentialSubject"] = map[string]interface{}{"id": sub}
		}
	}

	if t, err := takeDate(claims, "nbf"); err != nil {
		return nil, nil, err
	} else if t != nil {
		vc["issuanceDate"] = t.UTC().Format(time.RFC3339)
	}
	if t, err := takeDate(claims, "exp"); err != nil {
		return nil, nil, err
	} else if t != nil {
		vc["expirationDate"] = t.UTC().Format(time.RFC3339)
	}

	custom := map[string]interface{}{}
	for k, v := range claims {
		if k == "vc" || reservedClaims[k] {
			continue
		}
		var val interface{}
		if err := json.Unmarshal(v, &val); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrClaimsSerialization, err)
		}
		custom[k] = val
	}

	vcJSON, err := json.Marshal(vc)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrClaimsSerialization, err)
	}
	var cred Credential
	if err := json.Unmarshal(vcJSON, &cred); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrClaimsSerialization, err)
	}
	if len(custom) == 0 {
		custom = nil
	}
	return &cred, custom, nil
}

func takeString(claims map[string]json.RawMessage, key string) (string, error) {
	raw, ok := claims[key]
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: invalid %s claim", ErrClaimsSerialization, key)
	}
	return s, nil
}

func takeDate(claims map[string]json.RawMessage, key string) (*time.Time, error) {
	raw, ok := claims[key]
	if !ok {
		return nil, nil
	}
	var nd jwt.NumericDate
	if err := json.Unmarshal(raw, &nd); err != nil {
		return nil, fmt.Errorf("%w: invalid %s claim", ErrClaimsSerialization, key)
	}
	t := nd.Time
	return &t, nil
}
