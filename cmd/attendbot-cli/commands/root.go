package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"attendbot/internal/config"
)

var cfg config.App

var rootCmd = &cobra.Command{
	Use:   "attendbot-cli",
	Short: "attendbot-cli runs attendance scrapes and issues API tokens from the terminal.",
}

func ExecuteContext(ctx context.Context, c config.App) {
	cfg = c
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
