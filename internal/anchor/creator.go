// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

package anchor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/opencontainers/go-digest"
)

// CreateResult holds the result of anchoring an alias.
type CreateResult struct {
	// Digest is the sha256 digest of the stored artifact, for out of
	// band comparison between machines.
	Digest string
}

// Creator anchors a previously unseen alias binding after explicit
// operator consent.
type Creator struct {
	engine Engine
	store  *Store
	key    string

	// in and out carry the consent dialog. They default to os.Stdin
	// and os.Stderr so resolved key ids on stdout stay clean.
	in  io.Reader
	out io.Writer

	// reader wraps in once so answers buffered ahead of one prompt
	// survive for the next, as in a sign-all run.
	reader *bufio.Reader
}

// NewCreator creates a Creator that signs anchors with the key resolved
// from signingKey.
func NewCreator(engine Engine, store *Store, signingKey string) *Creator {
	return &Creator{
		engine: engine,
		store:  store,
		key:    signingKey,
		in:     os.Stdin,
		out:    os.Stderr,
	}
}

// Create asks the operator to confirm the previously unseen binding,
// then clear-signs the key id and stores the artifact. A refused
// consent is a *RejectionError; everything after consent is fatal on
// failure.
func (c *Creator) Create(alias, keyID string) (*CreateResult, error) {
	if !c.confirm(alias, keyID) {
		return nil, &RejectionError{Alias: alias, Reason: ReasonConsentRefused}
	}

	if _, err := c.engine.LookupKey(c.key); err != nil {
		return nil, fmt.Errorf("failed to look up signing key %q: %w", c.key, err)
	}

	artifact, err := c.engine.SignClear(c.key, []byte(keyID))
	if err != nil {
		return nil, fmt.Errorf("failed to sign anchor for %q: %w", alias, err)
	}

	if err := c.store.EnsureDir(); err != nil {
		return nil, err
	}
	if err := c.store.Write(alias, artifact); err != nil {
		return nil, err
	}

	return &CreateResult{
		Digest: digest.FromBytes(artifact).String(),
	}, nil
}

// confirm shows the first-use warning and reads the operator's answer.
// Anything but an affirmative line refuses, including read errors.
func (c *Creator) confirm(alias, keyID string) bool {
	fmt.Fprintf(c.out, "No trust anchor found for alias %q.\n", alias)
	fmt.Fprintf(c.out, "If this is the first use of the alias, verify the binding out of band:\n")
	fmt.Fprintf(c.out, "  %s -> %s\n", alias, keyID)
	fmt.Fprintf(c.out, "Is this correct? (y/N): ")

	if c.reader == nil {
		c.reader = bufio.NewReader(c.in)
	}
	response, err := c.reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
