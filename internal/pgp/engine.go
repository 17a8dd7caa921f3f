// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

// Package pgp provides the OpenPGP engine behind the anchor workflow:
// keyring loading, flexible key lookup, clear-signing and clear-signed
// verification, built on ProtonMail/go-crypto.
package pgp

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/jkcclemens/gpg-alias/internal/anchor"
)

// DefaultKeyringFile is the keyring file name looked up in the config
// directory when no keyring is configured.
const DefaultKeyringFile = "keyring.asc"

const keyringEnv = "GPG_ALIAS_KEYRING"

// Engine implements anchor.Engine over a loaded OpenPGP keyring.
type Engine struct {
	keyring openpgp.EntityList

	// prompt supplies the passphrase for a locked signing key.
	prompt PassphraseFunc
}

// NewEngine creates an Engine over an already parsed keyring. Locked
// signing keys are unlocked through the terminal.
func NewEngine(keyring openpgp.EntityList) *Engine {
	return &Engine{
		keyring: keyring,
		prompt:  TerminalPassphrase,
	}
}

// NewEngineFromFiles loads the given keyring files and returns an
// Engine over their combined keys.
func NewEngineFromFiles(paths []string) (*Engine, error) {
	keyring, err := LoadKeyring(paths)
	if err != nil {
		return nil, err
	}
	return NewEngine(keyring), nil
}

// KeyringPaths resolves which keyring files to load. The
// GPG_ALIAS_KEYRING environment variable (a path list) wins, then the
// configured list, then the fallback file.
func KeyringPaths(configured []string, fallback string) []string {
	if env := os.Getenv(keyringEnv); env != "" {
		return filepath.SplitList(env)
	}
	if len(configured) > 0 {
		return configured
	}
	return []string{fallback}
}

// LoadKeyring reads and parses keyring files, armored or binary.
func LoadKeyring(paths []string) (openpgp.EntityList, error) {
	var keyring openpgp.EntityList
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read keyring %s: %w", path, err)
		}
		entities, err := parseKeyring(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse keyring %s: %w", path, err)
		}
		keyring = append(keyring, entities...)
	}
	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}
	return keyring, nil
}

func parseKeyring(data []byte) (openpgp.EntityList, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("-----BEGIN PGP")) {
		return openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	}
	return openpgp.ReadKeyRing(bytes.NewReader(data))
}

// LookupKey resolves id to exactly one key. Hex ids (optionally 0x
// prefixed) match a fingerprint or key id suffix of the primary key or
// any subkey; anything else matches case-insensitively against user
// identity names. Zero or multiple matches are errors.
func (e *Engine) LookupKey(id string) (*anchor.KeyInfo, error) {
	entity, err := e.lookupEntity(id)
	if err != nil {
		return nil, err
	}

	info := &anchor.KeyInfo{
		Fingerprint: fingerprintHex(entity.PrimaryKey.Fingerprint),
	}
	for _, sub := range entity.Subkeys {
		info.SubkeyFingerprints = append(info.SubkeyFingerprints, fingerprintHex(sub.PublicKey.Fingerprint))
	}
	return info, nil
}

// SignClear clear-signs plaintext with the key resolved from id and
// returns the armored artifact.
func (e *Engine) SignClear(id string, plaintext []byte) ([]byte, error) {
	entity, err := e.lookupEntity(id)
	if err != nil {
		return nil, err
	}

	signer, err := e.signingKey(entity)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := clearsign.Encode(&buf, signer, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start clear signing: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("failed to write signed text: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish clear signing: %w", err)
	}
	return buf.Bytes(), nil
}

// VerifyOpaque decodes a clear-signed artifact and checks every
// attached signature against the keyring.
func (e *Engine) VerifyOpaque(signed []byte) (*anchor.Verification, error) {
	block, _ := clearsign.Decode(signed)
	if block == nil {
		return nil, fmt.Errorf("input is not a clear-signed message")
	}

	sigs, err := signaturePackets(block)
	if err != nil {
		return nil, err
	}
	if len(sigs) == 0 {
		return nil, fmt.Errorf("clear-signed message carries no signature")
	}

	ver := &anchor.Verification{Plaintext: block.Plaintext}
	for _, sig := range sigs {
		ver.Signatures = append(ver.Signatures, e.checkSignature(block.Bytes, sig))
	}
	return ver, nil
}

// signaturePackets enumerates the signature packets in the armored tail
// of a clear-signed block.
func signaturePackets(block *clearsign.Block) ([]*packet.Signature, error) {
	var sigs []*packet.Signature
	reader := packet.NewReader(block.ArmoredSignature.Body)
	for {
		p, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read signature packet: %w", err)
		}
		sig, ok := p.(*packet.Signature)
		if !ok {
			return nil, fmt.Errorf("unexpected %T packet in signature block", p)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// checkSignature validates one signature packet against the canonical
// signed text. Re-checking the packet as a detached signature keeps the
// library in charge of text canonicalization, expiry and revocation.
func (e *Engine) checkSignature(signedText []byte, sig *packet.Signature) anchor.Signature {
	out := anchor.Signature{Fingerprint: e.signerFingerprint(sig)}

	var raw bytes.Buffer
	if err := sig.Serialize(&raw); err != nil {
		return out
	}

	signer, err := openpgp.CheckDetachedSignature(e.keyring, bytes.NewReader(signedText), &raw, nil)
	if err == nil && signer != nil {
		out.Valid = true
	}
	return out
}

// signerFingerprint prefers the issuer fingerprint subpacket and falls
// back to the keyring key matched by issuer key id.
func (e *Engine) signerFingerprint(sig *packet.Signature) string {
	if len(sig.IssuerFingerprint) > 0 {
		return fingerprintHex(sig.IssuerFingerprint)
	}
	if sig.IssuerKeyId != nil {
		for _, key := range e.keyring.KeysById(*sig.IssuerKeyId) {
			return fingerprintHex(key.PublicKey.Fingerprint)
		}
	}
	return ""
}

// signingKey selects the entity's signing key, preferring a signing
// subkey over the primary key, and unlocks it if necessary.
func (e *Engine) signingKey(entity *openpgp.Entity) (*packet.PrivateKey, error) {
	key, ok := entity.SigningKey(time.Now())
	if !ok || key.PrivateKey == nil {
		return nil, fmt.Errorf("key %s has no usable signing key", fingerprintHex(entity.PrimaryKey.Fingerprint))
	}

	priv := key.PrivateKey
	if priv.Encrypted {
		if e.prompt == nil {
			return nil, fmt.Errorf("key %s is locked and no passphrase prompt is available", fingerprintHex(key.PublicKey.Fingerprint))
		}
		passphrase, err := e.prompt(fingerprintHex(key.PublicKey.Fingerprint))
		if err != nil {
			return nil, err
		}
		if err := priv.Decrypt(passphrase); err != nil {
			return nil, fmt.Errorf("failed to unlock key: %w", err)
		}
	}
	return priv, nil
}

func (e *Engine) lookupEntity(id string) (*openpgp.Entity, error) {
	if id == "" {
		return nil, fmt.Errorf("key id must not be empty")
	}

	var matches []*openpgp.Entity
	if hexID, ok := normalizeHexID(id); ok {
		matches = e.matchHex(hexID)
	}
	if len(matches) == 0 {
		matches = e.matchIdentity(id)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no key found for %q", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("key id %q is ambiguous: matches %d keys", id, len(matches))
	}
}

// normalizeHexID strips an optional 0x prefix and upper-cases id,
// reporting whether it can be a hex fingerprint or key id.
func normalizeHexID(id string) (string, bool) {
	s := strings.TrimPrefix(strings.TrimPrefix(id, "0x"), "0X")
	if len(s) < 8 || len(s)%2 != 0 {
		return "", false
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", false
	}
	return strings.ToUpper(s), true
}

func (e *Engine) matchHex(hexID string) []*openpgp.Entity {
	var matches []*openpgp.Entity
	for _, entity := range e.keyring {
		if entityMatchesHex(entity, hexID) {
			matches = append(matches, entity)
		}
	}
	return matches
}

func entityMatchesHex(entity *openpgp.Entity, hexID string) bool {
	if keyMatchesHex(entity.PrimaryKey, hexID) {
		return true
	}
	for _, sub := range entity.Subkeys {
		if keyMatchesHex(sub.PublicKey, hexID) {
			return true
		}
	}
	return false
}

func keyMatchesHex(key *packet.PublicKey, hexID string) bool {
	return strings.HasSuffix(fingerprintHex(key.Fingerprint), hexID) ||
		strings.HasSuffix(keyIDHex(key.KeyId), hexID)
}

func (e *Engine) matchIdentity(id string) []*openpgp.Entity {
	query := strings.ToLower(id)
	var matches []*openpgp.Entity
	for _, entity := range e.keyring {
		for _, ident := range entity.Identities {
			if strings.Contains(strings.ToLower(ident.Name), query) {
				matches = append(matches, entity)
				break
			}
		}
	}
	return matches
}

func fingerprintHex(fp []byte) string {
	return strings.ToUpper(hex.EncodeToString(fp))
}

func keyIDHex(id uint64) string {
	return fmt.Sprintf("%016X", id)
}
