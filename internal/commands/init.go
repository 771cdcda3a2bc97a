package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hiveledger-dev/hiveledger/internal/config"
)

func newInitCommand() *cobra.Command {
	var account string
	var token string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter hiveledger.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, account, token)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Hive account name (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&token, "token", "", "side-chain token symbol (required)")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func runInit(cmd *cobra.Command, dir, account, token string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	path := filepath.Join(dir, "hiveledger.yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	cfg := config.Default()
	cfg.Account = account
	cfg.Token = token
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s for @%s (%s, year %d)\n", path, account, token, cfg.Year)
	return nil
}
