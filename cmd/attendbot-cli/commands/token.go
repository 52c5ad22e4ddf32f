package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"attendbot/internal/auth"
)

var (
	tokenSubject *string
	tokenTTL     *time.Duration
)

func init() {
	tokenSubject = tokenCmd.Flags().String("subject", "", "Who the token is issued to.")
	tokenTTL = tokenCmd.Flags().Duration("ttl", 24*time.Hour, "How long the token stays valid.")
	_ = tokenCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token --subject <name> [--ttl 24h]",
	Short: "Issues a bearer token for POST /api/scrape signed with API_SIGNING_KEY.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.APISigningKey == "" {
			return errors.New("API_SIGNING_KEY is not set")
		}
		token, exp, err := auth.Issue(*tokenSubject, cfg.APITokenIssuer, cfg.APISigningKey, *tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.Format(time.RFC3339))
		return nil
	},
}
