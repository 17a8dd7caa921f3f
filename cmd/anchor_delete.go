// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jkcclemens/gpg-alias/internal/anchor"
)

type AnchorDeleteOpts struct {
	force bool
}

var anchorDeleteOpts AnchorDeleteOpts

func init() {
	anchorCmd.AddCommand(anchorDeleteCmd)

	flag := anchorDeleteCmd.Flags()
	flag.BoolVarP(&anchorDeleteOpts.force, ForceFlag, ForceShortFlag, false, "Skip confirmation prompt")
}

// anchorDeleteCmd represents the anchor delete command
var anchorDeleteCmd = &cobra.Command{
	Use:   "delete <alias>",
	Short: "Delete the trust anchor for an alias",
	Long: `Delete removes the trust anchor for an alias.

The next resolution of the alias will prompt for consent and create a
fresh anchor. This is the intended way to re-bind an alias after its
key id changed in the config.

By default, a confirmation prompt is shown before deletion. Use the
--force flag to skip confirmation.

Examples:
  # Delete an anchor with confirmation
  gpg-alias anchor delete work

  # Delete without confirmation
  gpg-alias anchor delete work --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnchorDelete(args[0])
	},
}

func runAnchorDelete(alias string) error {
	store, err := anchor.NewDefaultStore()
	if err != nil {
		return err
	}
	path, err := store.Path(alias)
	if err != nil {
		return err
	}

	if !anchorDeleteOpts.force {
		if !confirmAnchorDeletion(alias, path) {
			fmt.Println("Deletion cancelled")
			return nil
		}
	}

	if err := store.Remove(alias); err != nil {
		return err
	}

	fmt.Printf("Deleted trust anchor for %q\n", alias)
	return nil
}

// confirmAnchorDeletion shows a confirmation prompt and returns true if
// the user confirms. The prompt goes to stderr so stdout stays clean
// for scripted use.
func confirmAnchorDeletion(alias, path string) bool {
	fmt.Fprintf(os.Stderr, "Delete trust anchor for %q (%s)? (y/N): ", alias, path)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
