package did

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFragmentAlreadyExists is returned when inserting a method whose
// fragment is already taken in the document
var ErrFragmentAlreadyExists = errors.New("a method with this fragment already exists")

// Document is a DID document restricted to the capability set the signing
// and validation paths need: read id, insert method with scope, remove
// method, resolve method.
type Document struct {
	Context   []string
	DocID     DID
	Methods   []VerificationMethod
	Services  []Service
	relations map[MethodScope][]string
}

// Service represents a service endpoint in a DID document
type Service struct {
	ID              URL    `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// NewDocument creates a new DID document
func NewDocument(id DID) *Document {
	return &Document{
		Context:   []string{"https://www.w3.org/ns/did/v1"},
		DocID:     id,
		Methods:   []VerificationMethod{},
		relations: map[MethodScope][]string{},
	}
}

// ID returns the document's DID
func (d *Document) ID() DID {
	return d.DocID
}

// InsertMethod inserts a verification method under the given scope.
// The method's fragment must be unique in the document.
func (d *Document) InsertMethod(m VerificationMethod, scope MethodScope) error {
	if m.ID.Fragment == "" {
		return fmt.Errorf("verification method is missing a fragment")
	}
	for _, existing := range d.Methods {
		if existing.ID.Fragment == m.ID.Fragment {
			return ErrFragmentAlreadyExists
		}
	}
	d.Methods = append(d.Methods, m)
	if scope != "" && scope != ScopeVerificationMethod {
		if d.relations == nil {
			d.relations = map[MethodScope][]string{}
		}
		d.relations[scope] = append(d.relations[scope], m.ID.Fragment)
	}
	return nil
}

// RemoveMethod removes the method with the given id. It reports whether a
// method was removed.
func (d *Document) RemoveMethod(id URL) bool {
	if id.DID != "" && id.DID != d.DocID {
		return false
	}
	for i, m := range d.Methods {
		if m.ID.Fragment == id.Fragment {
			d.Methods = append(d.Methods[:i], d.Methods[i+1:]...)
			for scope, frags := range d.relations {
				kept := frags[:0]
				for _, f := range frags {
					if f != id.Fragment {
						kept = append(kept, f)
					}
				}
				d.relations[scope] = kept
			}
			return true
		}
	}
	return false
}

// ResolveMethod looks up a verification method. The query may be a bare
// fragment, a "#"-prefixed fragment, or a full DID URL. A non-default
// scope restricts the lookup to methods registered under that scope.
func (d *Document) ResolveMethod(query string, scope MethodScope) *VerificationMethod {
	fragment := query
	if strings.Contains(query, ":") {
		u, err := ParseURL(query)
		if err != nil || u.DID != d.DocID {
			return nil
		}
		fragment = u.Fragment
	}
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return nil
	}

	if scope != "" && scope != ScopeVerificationMethod {
		if !d.hasRelation(scope, fragment) {
			return nil
		}
	}
	for i := range d.Methods {
		if d.Methods[i].ID.Fragment == fragment {
			return &d.Methods[i]
		}
	}
	return nil
}

func (d *Document) hasRelation(scope MethodScope, fragment string) bool {
	for _, f := range d.relations[scope] {
		if f == fragment {
			return true
		}
	}
	return false
}

// ResolveService looks up a service by fragment or full DID URL
func (d *Document) ResolveService(query string) *Service {
	fragment := query
	if strings.Contains(query, ":") {
		u, err := ParseURL(query)
		if err != nil || u.DID != d.DocID {
			return nil
		}
		fragment = u.Fragment
	}
	fragment = strings.TrimPrefix(fragment, "#")
	for i := range d.Services {
		if d.Services[i].ID.Fragment == fragment {
			return &d.Services[i]
		}
	}
	return nil
}

// AddService adds a service endpoint
func (d *Document) AddService(svc Service) {
	d.Services = append(d.Services, svc)
}
