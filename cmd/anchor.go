// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

package cmd

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(anchorCmd)
}

// anchorCmd represents the anchor command group
var anchorCmd = &cobra.Command{
	Use:   "anchor",
	Short: "Manage trust anchors",
	Long: `Manage the clear-signed trust anchors behind alias resolution.

Anchors are stored one file per alias in the data directory. An anchor
is never updated in place: to re-bind an alias to a new key id, delete
the stale anchor and resolve the alias again to confirm the new
binding.

Examples:
  # Show where the anchor for an alias lives
  gpg-alias anchor path work

  # Drop a stale anchor so the next resolution re-prompts
  gpg-alias anchor delete work`,
}
