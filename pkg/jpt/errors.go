package jpt

import (
	"fmt"
	"strings"
)

// SignerContext distinguishes whose key material a resolution error
// refers to
type SignerContext int

const (
	// ContextIssuer marks errors about the issuer's method
	ContextIssuer SignerContext = iota
	// ContextHolder marks errors about the holder's method
	ContextHolder
)

func (c SignerContext) String() string {
	if c == ContextHolder {
		return "holder"
	}
	return "issuer"
}

// DecodingError wraps a failure to decode the JWP compact serialization
type DecodingError struct {
	Source error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("JWP decoding error: %v", e.Source)
}

func (e *DecodingError) Unwrap() error { return e.Source }

// ProofVerificationError wraps a failure to verify the JWP proof
type ProofVerificationError struct {
	Source error
}

func (e *ProofVerificationError) Error() string {
	return fmt.Sprintf("JWP proof verification error: %v", e.Source)
}

func (e *ProofVerificationError) Unwrap() error { return e.Source }

// MethodDataLookupError reports a failure to resolve the verification
// method or extract its key material
type MethodDataLookupError struct {
	Source  error
	Message string
	Signer  SignerContext
}

func (e *MethodDataLookupError) Error() string {
	if e.Source != nil {
		return fmt.Sprintf("%s method data lookup: %s: %v", e.Signer, e.Message, e.Source)
	}
	return fmt.Sprintf("%s method data lookup: %s", e.Signer, e.Message)
}

func (e *MethodDataLookupError) Unwrap() error { return e.Source }

// DocumentMismatchError reports that no provided document matches the
// DID the method id points into
type DocumentMismatchError struct {
	Signer SignerContext
}

func (e *DocumentMismatchError) Error() string {
	return fmt.Sprintf("no document matches the %s's DID", e.Signer)
}

// IdentifierMismatchError reports that the credential names a different
// DID than the method that proved it
type IdentifierMismatchError struct {
	Signer SignerContext
}

func (e *IdentifierMismatchError) Error() string {
	return fmt.Sprintf("the %s named in the credential does not match the proving method's DID", e.Signer)
}

// StructureError wraps a semantic-shape failure of the credential
type StructureError struct {
	Source error
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("credential structure: %v", e.Source)
}

func (e *StructureError) Unwrap() error { return e.Source }

// ValidityError reports a date-bound violation
type ValidityError struct {
	Message string
}

func (e *ValidityError) Error() string { return e.Message }

// RevocationError wraps a failed status check
type RevocationError struct {
	Source error
}

func (e *RevocationError) Error() string {
	return fmt.Sprintf("status check failed: %v", e.Source)
}

func (e *RevocationError) Unwrap() error { return e.Source }

// CompoundValidationError aggregates every error collected by a
// validation run
type CompoundValidationError struct {
	Errors []error
}

func (e *CompoundValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("credential validation failed: [%s]", strings.Join(msgs, "; "))
}
