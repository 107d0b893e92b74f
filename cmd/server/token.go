package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/maxviazov/author-feed-service/internal/auth"
)

// newTokenCmd mints a bearer token for local development against the configured secret.
func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		author   string
		username string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT for an author",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(author)
			if err != nil {
				return fmt.Errorf("--author must be a UUID: %w", err)
			}
			cfg, _, err := bootstrap(opts)
			if err != nil {
				return err
			}
			iss, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = time.Duration(cfg.Auth.TokenTTL) * time.Minute
			}
			tok, err := iss.Issue(id, username, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&author, "author", "", "author id placed in the subject claim")
	fs.StringVar(&username, "username", "", "optional username claim")
	fs.DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl minutes)")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}
