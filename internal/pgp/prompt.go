// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

package pgp

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// PassphraseFunc asks the operator for the passphrase of the key with
// the given fingerprint.
type PassphraseFunc func(fingerprint string) ([]byte, error)

// TerminalPassphrase prompts on stderr and reads the passphrase from
// the terminal without echo.
func TerminalPassphrase(fingerprint string) ([]byte, error) {
	fmt.Fprintf(os.Stderr, "Passphrase for key %s: ", fingerprint)
	passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return passphrase, nil
}
