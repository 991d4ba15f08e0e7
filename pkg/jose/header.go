package jose

import (
	"encoding/json"
	"fmt"
)

// Header is a JWS protected header. Custom parameters are serialized flat
// next to the registered ones.
type Header struct {
	Alg    Algorithm
	Kid    string
	Typ    string
	Cty    string
	B64    *bool
	Crit   []string
	URL    string
	Nonce  string
	Custom map[string]interface{}
}

var registeredHeaderParams = map[string]bool{
	"alg": true, "kid": true, "typ": true, "cty": true,
	"b64": true, "crit": true, "url": true, "nonce": true,
}

// MarshalJSON serializes the header with custom parameters flattened in.
// Map keys are emitted in sorted order, so equal headers encode equally.
func (h *Header) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	for k, v := range h.Custom {
		if registeredHeaderParams[k] {
			return nil, fmt.Errorf("custom header parameter %q collides with a registered one", k)
		}
		out[k] = v
	}
	if h.Alg == "" {
		return nil, fmt.Errorf("header is missing alg")
	}
	out["alg"] = h.Alg
	if h.Kid != "" {
		out["kid"] = h.Kid
	}
	if h.Typ != "" {
		out["typ"] = h.Typ
	}
	if h.Cty != "" {
		out["cty"] = h.Cty
	}
	if h.B64 != nil {
		out["b64"] = *h.B64
	}
	if len(h.Crit) > 0 {
		out["crit"] = h.Crit
	}
	if h.URL != "" {
		out["url"] = h.URL
	}
	if h.Nonce != "" {
		out["nonce"] = h.Nonce
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads registered parameters into their fields and keeps
// the rest in Custom
func (h *Header) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	take := func(key string, dst interface{}) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		delete(raw, key)
		return json.Unmarshal(v, dst)
	}

	var alg string
	if err := take("alg", &alg); err != nil {
		return fmt.Errorf("invalid alg: %w", err)
	}
	h.Alg = Algorithm(alg)
	if err := take("kid", &h.Kid); err != nil {
		return fmt.Errorf("invalid kid: %w", err)
	}
	if err := take("typ", &h.Typ); err != nil {
		return fmt.Errorf("invalid typ: %w", err)
	}
	if err := take("cty", &h.Cty); err != nil {
		return fmt.Errorf("invalid cty: %w", err)
	}
	if err := take("b64", &h.B64); err != nil {
		return fmt.Errorf("invalid b64: %w", err)
	}
	if err := take("crit", &h.Crit); err != nil {
		return fmt.Errorf("invalid crit: %w", err)
	}
	if err := take("url", &h.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if err := take("nonce", &h.Nonce); err != nil {
		return fmt.Errorf("invalid nonce: %w", err)
	}

	if len(raw) > 0 {
		h.Custom = map[string]interface{}{}
		for k, v := range raw {
			var val interface{}
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			h.Custom[k] = val
		}
	}
	return nil
}

// IsB64 reports the effective b64 value; absent means true per RFC 7797
func (h *Header) IsB64() bool {
	return h.B64 == nil || *h.B64
}
