package cmd

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List the configured networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\tNAME\tCHAIN ID\tURL")
		for _, name := range slices.Sorted(maps.Keys(cfg.Networks)) {
			n := cfg.Networks[name]

			marker := ""
			if name == cfg.Network {
				marker = "*"
			}

			url := n.URL
			if name == cfg.Network && cfg.APIURL != "" {
				url = "$API_URL"
			}
			if url == "" {
				url = "-"
			}

			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", marker, name, n.ChainID, url)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(networksCmd)
}
