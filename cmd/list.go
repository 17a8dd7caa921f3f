// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jkcclemens/gpg-alias/internal/anchor"
	"github.com/jkcclemens/gpg-alias/internal/config"
)

type ListOpts struct {
	output string
}

var listOpts ListOpts

// AliasInfo describes one alias row in list output.
type AliasInfo struct {
	Alias    string `json:"alias" yaml:"alias"`
	KeyID    string `json:"keyId,omitempty" yaml:"keyId,omitempty"`
	Anchored bool   `json:"anchored" yaml:"anchored"`
	Digest   string `json:"digest,omitempty" yaml:"digest,omitempty"`
}

func init() {
	rootCmd.AddCommand(listCmd)

	flag := listCmd.Flags()
	flag.StringVarP(&listOpts.output, OutputFlag, OutputShortFlag, "table", "Output format (table, json, yaml)")
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured aliases and their trust anchors",
	Long: `List shows every configured alias, the key id it resolves to, and
whether a trust anchor exists for it.

Anchors found in the data directory without a matching alias in the
config are listed too, with no key id: these are stale bindings left
behind after an alias was removed or renamed.

Output formats:
  - table: Human-readable table format (default)
  - json:  JSON format
  - yaml:  YAML format

Examples:
  # List all aliases in table format
  gpg-alias list

  # List in JSON format
  gpg-alias list -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList()
	},
}

func runList() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := anchor.NewDefaultStore()
	if err != nil {
		return err
	}

	infos, err := collectAliasInfos(cfg, store)
	if err != nil {
		return err
	}

	switch listOpts.output {
	case "table":
		return printTable(infos)
	case "json":
		return printJSON(infos)
	case "yaml":
		return printYAML(infos)
	default:
		return fmt.Errorf("unsupported output format: %s (supported: table, json, yaml)", listOpts.output)
	}
}

func collectAliasInfos(cfg *config.Config, store *anchor.Store) ([]AliasInfo, error) {
	var infos []AliasInfo
	seen := make(map[string]bool)

	for _, alias := range cfg.AliasNames() {
		keyID, err := cfg.Resolve(alias)
		if err != nil {
			return nil, err
		}

		info := AliasInfo{Alias: alias, KeyID: keyID}
		if store.Exists(alias) {
			info.Anchored = true
			artifact, err := store.Read(alias)
			if err != nil {
				return nil, err
			}
			info.Digest = digest.FromBytes(artifact).String()
		}
		infos = append(infos, info)
		seen[alias] = true
	}

	anchored, err := store.List()
	if err != nil {
		return nil, err
	}
	for _, alias := range anchored {
		if seen[alias] {
			continue
		}
		artifact, err := store.Read(alias)
		if err != nil {
			return nil, err
		}
		infos = append(infos, AliasInfo{
			Alias:    alias,
			Anchored: true,
			Digest:   digest.FromBytes(artifact).String(),
		})
	}

	return infos, nil
}

func printTable(infos []AliasInfo) error {
	if len(infos) == 0 {
		fmt.Println("No aliases configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ALIAS\tKEY ID\tANCHORED\tDIGEST")

	for _, info := range infos {
		keyID := info.KeyID
		if keyID == "" {
			keyID = "-"
		}
		anchored := "no"
		if info.Anchored {
			anchored = "yes"
		}
		dig := info.Digest
		if dig == "" {
			dig = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Alias, keyID, anchored, dig)
	}

	return w.Flush()
}

func printJSON(infos []AliasInfo) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(infos)
}

func printYAML(infos []AliasInfo) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	return encoder.Encode(infos)
}
