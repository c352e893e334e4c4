package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func StatsCmd() *cobra.Command {
	var (
		entityType string
		entityID   string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count and size of active attachments by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.AttachmentService.Stats(cmd.Context(), entityType, entityID)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "CATEGORY\tCOUNT\tBYTES\t")
			for _, c := range stats.ByCategory {
				fmt.Fprintf(tw, "%s\t%d\t%d\t\n", c.Category, c.Count, c.TotalSizeBytes)
			}
			fmt.Fprintf(tw, "total\t%d\t%d\t\n", stats.Total, stats.TotalSize)
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&entityType, "entity-type", "", "limit to one entity type")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "limit to one entity id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
