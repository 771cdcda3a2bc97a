package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hiveledger-dev/hiveledger/internal/buildinfo"
	"github.com/hiveledger-dev/hiveledger/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "hiveledger",
		Short:   "Hive account history to tax ledger CSV exports",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newEnrichCommand())

	return rootCmd
}

// configFlags are the settings every pipeline command accepts; flags override
// the config file, which overrides built-in defaults.
type configFlags struct {
	configPath string
	account    string
	year       int
	from       string
	to         string
	token      string
	dust       string
	outDir     string
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "path to hiveledger.yaml")
	cmd.Flags().StringVar(&f.account, "account", "", "Hive account name")
	cmd.Flags().IntVar(&f.year, "year", 0, "tax year to export")
	cmd.Flags().StringVar(&f.from, "from", "", "window start (YYYY-MM-DD, overrides --year)")
	cmd.Flags().StringVar(&f.to, "to", "", "window end (YYYY-MM-DD, exclusive)")
	cmd.Flags().StringVar(&f.token, "token", "", "side-chain token symbol to reconcile")
	cmd.Flags().StringVar(&f.dust, "dust", "", "dust threshold in HIVE")
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "directory for ledger CSV files")
}

// resolve builds the effective configuration: file, then environment, then
// explicit flags, then validation.
func (f *configFlags) resolve() (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	config.EnvLoad()
	cfg.ApplyEnv()

	if f.account != "" {
		cfg.Account = f.account
	}
	if f.year != 0 {
		cfg.Year = f.year
	}
	if f.from != "" {
		cfg.From = f.from
	}
	if f.to != "" {
		cfg.To = f.to
	}
	if f.token != "" {
		cfg.Token = f.token
	}
	if f.dust != "" {
		cfg.DustThreshold = f.dust
	}
	if f.outDir != "" {
		cfg.OutDir = f.outDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
