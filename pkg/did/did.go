package did

import (
	"fmt"
	"strings"
)

// DID is a decentralized identifier of the form did:method:id
type DID string

// ParseDID parses and validates a DID string
func ParseDID(s string) (DID, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] != "did" || parts[1] == "" || parts[2] == "" {
		return "", fmt.Errorf("invalid DID: %q", s)
	}
	if strings.Contains(parts[2], "#") {
		return "", fmt.Errorf("invalid DID: %q contains a fragment", s)
	}
	return DID(s), nil
}

// Method returns the DID method name
func (d DID) Method() string {
	parts := strings.SplitN(string(d), ":", 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

// String returns the DID as a string
func (d DID) String() string {
	return string(d)
}

// ToURL returns the DID as a DID URL without a fragment
func (d DID) ToURL() URL {
	return URL{DID: d}
}

// URL is a DID URL: a DID plus an optional fragment pointing at a
// verification method or service
type URL struct {
	DID      DID
	Fragment string // without the leading "#"
}

// ParseURL parses a DID URL, with or without a fragment
func ParseURL(s string) (URL, error) {
	base, frag, found := strings.Cut(s, "#")
	d, err := ParseDID(base)
	if err != nil {
		return URL{}, err
	}
	if found && frag == "" {
		return URL{}, fmt.Errorf("invalid DID URL: %q has an empty fragment", s)
	}
	return URL{DID: d, Fragment: frag}, nil
}

// Join returns a new URL with the given fragment. A leading "#" on the
// fragment is accepted and stripped.
func (u URL) Join(fragment string) (URL, error) {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return URL{}, fmt.Errorf("cannot join an empty fragment")
	}
	if strings.Contains(fragment, "#") {
		return URL{}, fmt.Errorf("invalid fragment: %q", fragment)
	}
	return URL{DID: u.DID, Fragment: fragment}, nil
}

// String renders the DID URL
func (u URL) String() string {
	if u.Fragment == "" {
		return u.DID.String()
	}
	return u.DID.String() + "#" + u.Fragment
}

// IsEmpty reports whether the URL is the zero value
func (u URL) IsEmpty() bool {
	return u.DID == "" && u.Fragment == ""
}

// MarshalText renders the DID URL for JSON encoding
func (u URL) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText parses a DID URL from JSON encoding
func (u *URL) UnmarshalText(data []byte) error {
	parsed, err := ParseURL(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
