// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

// Package anchor implements trust-on-first-use anchoring of alias to
// key id bindings. A binding's anchor is a clear-signed artifact whose
// plaintext is the key id; the first use of a binding creates the
// anchor after operator consent, every later use verifies it.
package anchor

import "fmt"

// Rejection reasons. Each failed check in the verifier and the refused
// consent in the creator map to exactly one reason.
const (
	ReasonVerification     = "verification error"
	ReasonContentMismatch  = "content mismatch"
	ReasonSignatureCount   = "wrong signature count"
	ReasonInvalidSignature = "invalid signature"
	ReasonNoFingerprint    = "no fingerprint"
	ReasonMissingKey       = "missing signing key"
	ReasonWrongSigner      = "wrong signer"
	ReasonConsentRefused   = "consent refused"
)

// RejectionError is a definitive negative trust decision: the binding
// failed one of the anchor checks or the operator refused consent, as
// opposed to an environment failure.
type RejectionError struct {
	Alias  string
	Reason string
	Detail string
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("alias %q rejected: %s", e.Alias, e.Reason)
	}
	return fmt.Sprintf("alias %q rejected: %s: %s", e.Alias, e.Reason, e.Detail)
}

// Decision is the outcome of the trust gate for one alias binding.
type Decision int

const (
	// Trusted means the binding passed: the policy is disabled or a
	// verified anchor exists.
	Trusted Decision = iota
	// NewlyAnchored means no anchor existed and one was created after
	// operator consent.
	NewlyAnchored
)

// Outcome reports a positive trust decision.
type Outcome struct {
	Decision Decision
	// Digest is the artifact digest, set when Decision is NewlyAnchored.
	Digest string
}

// Service ties the store, verifier and creator into the per-alias
// trust gate. It holds no state across calls.
type Service struct {
	store    *Store
	verifier *Verifier
	creator  *Creator
	enabled  bool
}

// NewService creates the trust gate. When the signing policy is
// disabled the store, verifier and creator may be nil; Decide never
// touches them.
func NewService(store *Store, verifier *Verifier, creator *Creator, enabled bool) *Service {
	return &Service{
		store:    store,
		verifier: verifier,
		creator:  creator,
		enabled:  enabled,
	}
}

// Decide runs the trust gate for one alias binding. With the policy
// disabled every binding is trusted without touching the filesystem.
// Otherwise an existing anchor is verified and a missing one is
// created after consent. Any error aborts the caller's run.
func (s *Service) Decide(alias, keyID string) (*Outcome, error) {
	if !s.enabled {
		return &Outcome{Decision: Trusted}, nil
	}

	if err := validateAlias(alias); err != nil {
		return nil, err
	}

	if s.store.Exists(alias) {
		signed, err := s.store.Read(alias)
		if err != nil {
			return nil, err
		}
		if err := s.verifier.Verify(alias, signed, keyID); err != nil {
			return nil, err
		}
		return &Outcome{Decision: Trusted}, nil
	}

	res, err := s.creator.Create(alias, keyID)
	if err != nil {
		return nil, err
	}
	return &Outcome{Decision: NewlyAnchored, Digest: res.Digest}, nil
}
