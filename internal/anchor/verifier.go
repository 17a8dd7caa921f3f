// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

package anchor

import (
	"fmt"
	"strings"
	"unicode"
)

// Verifier checks a stored anchor artifact against the key id its alias
// resolves to and against the policy's designated signing key.
type Verifier struct {
	engine Engine
	key    string
}

// NewVerifier creates a Verifier that accepts anchors signed by the key
// resolved from signingKey.
func NewVerifier(engine Engine, signingKey string) *Verifier {
	return &Verifier{
		engine: engine,
		key:    signingKey,
	}
}

// Verify checks the clear-signed artifact for alias against keyID. A
// nil return means the anchor is trusted. Each check failure is a
// *RejectionError with a distinct reason; the first failure wins.
func (v *Verifier) Verify(alias string, signed []byte, keyID string) error {
	ver, err := v.engine.VerifyOpaque(signed)
	if err != nil {
		return &RejectionError{Alias: alias, Reason: ReasonVerification, Detail: err.Error()}
	}

	plaintext := strings.TrimRightFunc(string(ver.Plaintext), unicode.IsSpace)
	if plaintext != keyID {
		return &RejectionError{
			Alias:  alias,
			Reason: ReasonContentMismatch,
			Detail: fmt.Sprintf("signed key id %q does not match %q", plaintext, keyID),
		}
	}

	if n := len(ver.Signatures); n != 1 {
		return &RejectionError{
			Alias:  alias,
			Reason: ReasonSignatureCount,
			Detail: fmt.Sprintf("expected exactly 1 signature, got %d", n),
		}
	}
	sig := ver.Signatures[0]

	if !sig.Valid {
		return &RejectionError{Alias: alias, Reason: ReasonInvalidSignature}
	}

	if sig.Fingerprint == "" {
		return &RejectionError{Alias: alias, Reason: ReasonNoFingerprint}
	}

	key, err := v.engine.LookupKey(v.key)
	if err != nil {
		return &RejectionError{Alias: alias, Reason: ReasonMissingKey, Detail: err.Error()}
	}

	if !fingerprintMatches(key, sig.Fingerprint) {
		return &RejectionError{
			Alias:  alias,
			Reason: ReasonWrongSigner,
			Detail: fmt.Sprintf("signed by %s, expected %s", sig.Fingerprint, key.Fingerprint),
		}
	}
	return nil
}

// fingerprintMatches reports whether fp is the key's primary
// fingerprint or one of its subkey fingerprints. Engines differ in hex
// casing, so the comparison is case-insensitive.
func fingerprintMatches(key *KeyInfo, fp string) bool {
	if strings.EqualFold(key.Fingerprint, fp) {
		return true
	}
	for _, sub := range key.SubkeyFingerprints {
		if strings.EqualFold(sub, fp) {
			return true
		}
	}
	return false
}
