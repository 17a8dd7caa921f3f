// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jkcclemens/gpg-alias/internal/anchor"
	"github.com/jkcclemens/gpg-alias/internal/config"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [<alias>...]",
	Short: "Verify trust anchors without prompting",
	Long: `Check verifies the trust anchor of every configured alias, or only
the named ones, and reports the result per alias.

Unlike plain resolution, check never creates anchors and never prompts:
an alias without an anchor is reported as a failure. This makes it safe
to run from scripts or cron.

Examples:
  # Check every configured alias
  gpg-alias check

  # Check two specific aliases
  gpg-alias check work backup`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, args)
	},
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.Signing.Enabled {
		return errors.New("signing is disabled; nothing to check")
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	store, err := anchor.NewDefaultStore()
	if err != nil {
		return err
	}
	verifier := anchor.NewVerifier(engine, cfg.Signing.Key)

	aliases := args
	if len(aliases) == 0 {
		aliases = cfg.AliasNames()
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, alias := range aliases {
		if err := checkAlias(cfg, store, verifier, alias); err != nil {
			fmt.Fprintf(out, "%s: %v\n", alias, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "%s: ok\n", alias)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d aliases failed verification", failed, len(aliases))
	}
	return nil
}

func checkAlias(cfg *config.Config, store *anchor.Store, verifier *anchor.Verifier, alias string) error {
	keyID, err := cfg.Resolve(alias)
	if err != nil {
		return err
	}
	if !store.Exists(alias) {
		return fmt.Errorf("no trust anchor found for %q", alias)
	}
	signed, err := store.Read(alias)
	if err != nil {
		return err
	}
	return verifier.Verify(alias, signed, keyID)
}
