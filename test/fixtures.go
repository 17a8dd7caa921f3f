// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

//go:build e2e

package test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	. "github.com/onsi/gomega"
)

// Fixtures manages test data and temporary directories
type Fixtures struct {
	tempDir string
}

// NewFixtures creates a new test fixtures instance
func NewFixtures() *Fixtures {
	tempDir, err := os.MkdirTemp("", "gpg-alias-test-*")
	Expect(err).NotTo(HaveOccurred())

	return &Fixtures{
		tempDir: tempDir,
	}
}

// Cleanup removes all temporary test files
func (f *Fixtures) Cleanup() {
	if f.tempDir != "" {
		os.RemoveAll(f.tempDir)
	}
}

// Env is an isolated environment for one test: its own config dir, data
// dir, and keyring with two freshly generated keys.
type Env struct {
	ConfigDir string
	DataDir   string
	Keyring   string

	// Signer is the designated signing key, Other is a second key on
	// the same keyring for wrong-signer scenarios.
	Signer *openpgp.Entity
	Other  *openpgp.Entity
}

// NewEnv creates an isolated environment with generated keys.
func (f *Fixtures) NewEnv() *Env {
	root, err := os.MkdirTemp(f.tempDir, "env-*")
	Expect(err).NotTo(HaveOccurred())

	env := &Env{
		ConfigDir: filepath.Join(root, "config"),
		DataDir:   filepath.Join(root, "data"),
		Keyring:   filepath.Join(root, "keyring.asc"),
		Signer:    generateKey("Signer", "signer@example.com"),
		Other:     generateKey("Other", "other@example.com"),
	}
	Expect(os.MkdirAll(env.ConfigDir, 0o700)).To(Succeed())
	Expect(os.MkdirAll(env.DataDir, 0o700)).To(Succeed())

	env.writeKeyring()
	return env
}

func generateKey(name, email string) *openpgp.Entity {
	entity, err := openpgp.NewEntity(name, "", email, &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	Expect(err).NotTo(HaveOccurred())
	return entity
}

// writeKeyring stores both private keys in one armored file.
func (e *Env) writeKeyring() {
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	Expect(err).NotTo(HaveOccurred())
	Expect(e.Signer.SerializePrivate(w, nil)).To(Succeed())
	Expect(e.Other.SerializePrivate(w, nil)).To(Succeed())
	Expect(w.Close()).To(Succeed())
	Expect(os.WriteFile(e.Keyring, buf.Bytes(), 0o600)).To(Succeed())
}

// WriteConfig writes the config file for this environment.
func (e *Env) WriteConfig(enabled bool, signingKey string, aliases map[string]string) {
	var b strings.Builder
	fmt.Fprintf(&b, "signing:\n")
	fmt.Fprintf(&b, "  enabled: %t\n", enabled)
	if signingKey != "" {
		fmt.Fprintf(&b, "  key: %q\n", signingKey)
	}
	if len(aliases) == 0 {
		fmt.Fprintf(&b, "aliases: {}\n")
	} else {
		fmt.Fprintf(&b, "aliases:\n")
		names := make([]string, 0, len(aliases))
		for name := range aliases {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  %s: %q\n", name, aliases[name])
		}
	}

	path := filepath.Join(e.ConfigDir, "gpg-alias.yaml")
	Expect(os.WriteFile(path, []byte(b.String()), 0o600)).To(Succeed())
}

// ClearSign produces a clear-signed artifact over text with the given
// entity's primary key.
func (e *Env) ClearSign(entity *openpgp.Entity, text string) []byte {
	return e.ClearSignKey(entity.PrivateKey, text)
}

// ClearSignKey clear-signs text with one specific private key.
func (e *Env) ClearSignKey(key *packet.PrivateKey, text string) []byte {
	var buf bytes.Buffer
	w, err := clearsign.Encode(&buf, key, nil)
	Expect(err).NotTo(HaveOccurred())
	_, err = w.Write([]byte(text))
	Expect(err).NotTo(HaveOccurred())
	Expect(w.Close()).To(Succeed())
	return buf.Bytes()
}

// ClearSignMulti clear-signs text with several keys, producing an
// artifact with one signature per key.
func (e *Env) ClearSignMulti(text string, entities ...*openpgp.Entity) []byte {
	keys := make([]*packet.PrivateKey, 0, len(entities))
	for _, entity := range entities {
		keys = append(keys, entity.PrivateKey)
	}

	var buf bytes.Buffer
	w, err := clearsign.EncodeMulti(&buf, keys, nil)
	Expect(err).NotTo(HaveOccurred())
	_, err = w.Write([]byte(text))
	Expect(err).NotTo(HaveOccurred())
	Expect(w.Close()).To(Succeed())
	return buf.Bytes()
}

// AddSigningSubkey adds a signing subkey to the designated signer,
// rewrites the keyring, and returns the subkey's private key.
func (e *Env) AddSigningSubkey() *packet.PrivateKey {
	Expect(e.Signer.AddSigningSubkey(&packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})).To(Succeed())
	e.writeKeyring()
	sub := e.Signer.Subkeys[len(e.Signer.Subkeys)-1]
	return sub.PrivateKey
}

// WriteAnchor places an artifact in the data directory directly,
// bypassing the binary.
func (e *Env) WriteAnchor(alias string, artifact []byte) {
	path := e.AnchorPath(alias)
	Expect(os.WriteFile(path, artifact, 0o600)).To(Succeed())
}

// AnchorPath returns where the anchor for an alias is stored.
func (e *Env) AnchorPath(alias string) string {
	return filepath.Join(e.DataDir, alias+".asc")
}

// AnchorExists reports whether an anchor file exists for the alias.
func (e *Env) AnchorExists(alias string) bool {
	_, err := os.Stat(e.AnchorPath(alias))
	return err == nil
}

// ReadAnchor returns the stored artifact for the alias.
func (e *Env) ReadAnchor(alias string) []byte {
	data, err := os.ReadFile(e.AnchorPath(alias))
	Expect(err).NotTo(HaveOccurred())
	return data
}
