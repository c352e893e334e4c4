package cmd

import (
	"fmt"
	"time"

	"github.com/medsport/attachments/internal/service"
	"github.com/spf13/cobra"
)

func TokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token with JWT_SECRET for local and scripted access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			token, err := service.NewAuthService(cfg.JWTSecret).GenerateJWT(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "user id to act as")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
