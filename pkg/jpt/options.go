package jpt

import (
	"time"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
)

// FailFast selects the error aggregation policy of a validation run
type FailFast int

const (
	// FirstError stops at the first failing validation unit
	FirstError FailFast = iota
	// AllErrors runs every unit and collects every failure
	AllErrors
)

// StatusCheck selects how the credentialStatus is treated
type StatusCheck int

const (
	// StatusCheckSkipAll disables status validation
	StatusCheckSkipAll StatusCheck = iota
	// StatusCheckSkipUnsupported validates only known status types
	StatusCheckSkipUnsupported
	// StatusCheckStrict fails on unsupported status types
	StatusCheckStrict
)

// HolderRelationship constrains how the holder must relate to the
// credential subjects
type HolderRelationship int

const (
	// AlwaysSubject requires the holder to be the subject of every credential
	AlwaysSubject HolderRelationship = iota
	// SubjectOnNonTransferable requires it only for nonTransferable credentials
	SubjectOnNonTransferable
	// Any places no constraint on the holder
	Any
)

// SubjectHolderRelationship names the holder and the required relation
type SubjectHolderRelationship struct {
	Holder       string
	Relationship HolderRelationship
}

// VerificationOptions steer the proof phase
type VerificationOptions struct {
	// MethodID overrides the kid-derived method id when non-empty
	MethodID string
	// MethodScope restricts the method lookup when non-empty
	MethodScope did.MethodScope
}

// ValidationOptions steer a validation run. Omitted date bounds default
// to the current instant.
type ValidationOptions struct {
	Verification              VerificationOptions
	EarliestExpiryDate        *time.Time
	LatestIssuanceDate        *time.Time
	SubjectHolderRelationship *SubjectHolderRelationship
	Status                    StatusCheck
}
