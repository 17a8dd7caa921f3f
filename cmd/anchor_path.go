// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jkcclemens/gpg-alias/internal/anchor"
)

func init() {
	anchorCmd.AddCommand(anchorPathCmd)
}

// anchorPathCmd represents the anchor path command
var anchorPathCmd = &cobra.Command{
	Use:   "path <alias>",
	Short: "Print the file system path of an alias's trust anchor",
	Long: `Path prints the path the trust anchor for an alias is stored at.

The path is derived from the alias alone and is printed whether or not
an anchor exists there yet.

Examples:
  # Inspect an anchor
  cat $(gpg-alias anchor path work)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnchorPath(args[0])
	},
}

func runAnchorPath(alias string) error {
	store, err := anchor.NewDefaultStore()
	if err != nil {
		return err
	}
	path, err := store.Path(alias)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
