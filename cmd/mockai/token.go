package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/mockai/internal/auth"
	"github.com/suPer8Hu/mockai/internal/config"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		secret  string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token accepted in place of API_KEY",
		Long: "Signs an HS256 token with JWT_SECRET. The server accepts it on /v1 " +
			"routes when the same secret is configured. --ttl 0 mints a token that never expires.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = config.Load().JWTSecret
			}
			tok, err := auth.SignJWT(subject, secret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "cli", "token subject, logged as the client name")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (overrides JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
