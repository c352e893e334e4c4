package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func PurgeCmd() *cobra.Command {
	var ids []string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Hard delete attachments: remove their files and records permanently",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			for _, id := range ids {
				err := a.AttachmentService.HardDelete(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("purge %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", id)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&ids, "id", nil, "attachment id to purge (repeatable)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
