// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jkcclemens/gpg-alias/internal/anchor"
	"github.com/jkcclemens/gpg-alias/internal/config"
	"github.com/jkcclemens/gpg-alias/internal/pgp"
)

var (
	// Version information. These are set via ldflags during build.
	version = "dev"
	commit  = "none"
)

const (
	RecipientsFlag      = "recipients"
	RecipientsShortFlag = "r"

	SignAllFlag      = "sign-all"
	SignAllShortFlag = "s"

	OutputFlag      = "output"
	OutputShortFlag = "o"

	ForceFlag      = "force"
	ForceShortFlag = "f"
)

type RootOpts struct {
	recipients bool
	signAll    bool
}

var rootOpts RootOpts

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gpg-alias [flags] <alias>...",
	Short: "Resolve OpenPGP key aliases with trust-on-first-use anchoring",
	Long: `gpg-alias resolves short aliases to OpenPGP key ids.

Aliases are read from the config file. When signing is enabled, every
resolution is checked against a clear-signed trust anchor created on
first use: a missing anchor asks you to confirm the binding before it
is signed, and an anchor that no longer matches the configured key id
rejects the resolution.

Examples:
  # Resolve a single alias
  gpg-alias work

  # Encrypt to two aliases
  gpg --encrypt $(gpg-alias -r work backup) secrets.txt

  # Anchor every configured alias
  gpg-alias --sign-all`,
	SilenceUsage: true,
	Version:      version,
	Args: func(cmd *cobra.Command, args []string) error {
		if rootOpts.signAll {
			if len(args) > 0 {
				return errors.New("--sign-all does not take alias arguments")
			}
			return nil
		}
		if len(args) == 0 {
			return errors.New("requires at least one alias argument")
		}
		return nil
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		path, created, err := config.Bootstrap()
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote default config to %s\n", path)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResolve(cmd, args)
	},
}

func init() {
	// Customize version output template
	rootCmd.SetVersionTemplate(fmt.Sprintf("gpg-alias version %s (commit: %s)\n", version, commit))

	flag := rootCmd.Flags()
	flag.BoolVarP(&rootOpts.recipients, RecipientsFlag, RecipientsShortFlag, false, "Print each key id as a gpg recipient argument (-r <key id>)")
	flag.BoolVarP(&rootOpts.signAll, SignAllFlag, SignAllShortFlag, false, "Anchor every configured alias, then exit")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	trust, err := newTrustService(cfg)
	if err != nil {
		return err
	}

	if rootOpts.signAll {
		return anchorAll(cmd, cfg, trust)
	}

	out := cmd.OutOrStdout()
	for i, alias := range args {
		keyID, err := cfg.Resolve(alias)
		if err != nil {
			return err
		}
		if err := anchorAlias(cmd, trust, alias, keyID); err != nil {
			return err
		}

		// Recipient output stays on one line with no trailing newline
		// so it can be spliced into a gpg invocation.
		if rootOpts.recipients {
			if i > 0 {
				fmt.Fprint(out, " ")
			}
			fmt.Fprintf(out, "-r %s", keyID)
		} else {
			fmt.Fprintln(out, keyID)
		}
	}
	return nil
}

// anchorAll runs the anchoring side effect for every configured alias
// without printing key ids.
func anchorAll(cmd *cobra.Command, cfg *config.Config, trust *anchor.Service) error {
	for _, alias := range cfg.AliasNames() {
		keyID, err := cfg.Resolve(alias)
		if err != nil {
			return err
		}
		if err := anchorAlias(cmd, trust, alias, keyID); err != nil {
			return err
		}
	}
	return nil
}

func anchorAlias(cmd *cobra.Command, trust *anchor.Service, alias, keyID string) error {
	outcome, err := trust.Decide(alias, keyID)
	if err != nil {
		return err
	}
	if outcome.Decision == anchor.NewlyAnchored {
		fmt.Fprintf(cmd.ErrOrStderr(), "Anchored %s -> %s (anchor digest: %s)\n", alias, keyID, outcome.Digest)
	}
	return nil
}

// newTrustService wires the anchor service for the loaded config. With
// signing disabled the keyring is never opened and the data directory
// is never touched.
func newTrustService(cfg *config.Config) (*anchor.Service, error) {
	if !cfg.Signing.Enabled {
		return anchor.NewService(nil, nil, nil, false), nil
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}

	store, err := anchor.NewDefaultStore()
	if err != nil {
		return nil, err
	}

	verifier := anchor.NewVerifier(engine, cfg.Signing.Key)
	creator := anchor.NewCreator(engine, store, cfg.Signing.Key)
	return anchor.NewService(store, verifier, creator, true), nil
}

func newEngine(cfg *config.Config) (*pgp.Engine, error) {
	configDir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	paths := pgp.KeyringPaths(cfg.Signing.Keyring, filepath.Join(configDir, pgp.DefaultKeyringFile))
	return pgp.NewEngineFromFiles(paths)
}
