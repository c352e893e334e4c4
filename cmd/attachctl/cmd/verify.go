package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/medsport/attachments/internal/service"
	"github.com/spf13/cobra"
)

func VerifyCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Rehash stored files and compare against recorded digests and sizes",
		Long: "Checks one attachment (--id) or every stored attachment. Records uploaded without a\n" +
			"digest get one recorded. Exits non-zero if any file is missing or differs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			ids := []string{id}
			if id == "" {
				ids, err = a.AttachmentService.IDs(ctx)
				if err != nil {
					return err
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tRESULT\tSIZE\tSHA256")

			var failed int
			for _, attachmentID := range ids {
				res, err := a.AttachmentService.Verify(ctx, attachmentID)
				switch {
				case errors.Is(err, service.ErrFileMissing):
					failed++
					fmt.Fprintf(tw, "%s\tMISSING\t-\t-\n", attachmentID)
					continue
				case err != nil:
					return fmt.Errorf("verify %s: %w", attachmentID, err)
				}

				result := "ok"
				switch {
				case !res.OK:
					failed++
					result = "MISMATCH"
				case res.Backfilled:
					result = "backfilled"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", res.ID, result, res.ActualSize, res.ActualSHA256)
			}
			tw.Flush()

			fmt.Fprintf(cmd.OutOrStdout(), "\n%d checked, %d failed\n", len(ids), failed)
			if failed > 0 {
				return fmt.Errorf("%d attachments failed verification", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "verify a single attachment")
	return cmd
}
