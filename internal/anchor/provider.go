// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

package anchor

// Engine is the OpenPGP capability provider the anchor workflow runs
// against. The production implementation lives in internal/pgp; tests
// substitute stubs to drive branches a real keyring cannot produce.
type Engine interface {
	// LookupKey resolves id (a fingerprint, key id or user id fragment)
	// to exactly one key in the engine's keyring.
	LookupKey(id string) (*KeyInfo, error)

	// SignClear clear-signs plaintext with the key resolved from id and
	// returns the ASCII-armored artifact.
	SignClear(id string, plaintext []byte) ([]byte, error)

	// VerifyOpaque decodes a clear-signed artifact and reports its
	// plaintext and signatures. Undecodable input is an error; signature
	// validity is reported per signature, never as an error.
	VerifyOpaque(signed []byte) (*Verification, error)
}

// KeyInfo describes a resolved key by its primary fingerprint and the
// fingerprints of its subkeys, upper-case hex.
type KeyInfo struct {
	Fingerprint        string
	SubkeyFingerprints []string
}

// Verification is the decoded form of a clear-signed artifact.
type Verification struct {
	// Plaintext is the signed text with the armor stripped.
	Plaintext []byte
	// Signatures lists every signature attached to the artifact.
	Signatures []Signature
}

// Signature is one signature on a clear-signed artifact.
type Signature struct {
	// Valid reports whether the signature checks out against the keyring.
	Valid bool
	// Fingerprint identifies the signing (sub)key, upper-case hex.
	// Empty when the signer cannot be resolved.
	Fingerprint string
}
