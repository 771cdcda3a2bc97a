package commands

import (
	"github.com/spf13/cobra"

	"github.com/hiveledger-dev/hiveledger/internal/logging"
	"github.com/hiveledger-dev/hiveledger/internal/run"
)

func newEnrichCommand() *cobra.Command {
	var flags configFlags
	var fromRaw string

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Rebuild the ledgers from a saved raw snapshot",
		Long: "Rebuild the ledgers from a snapshot written by export --save-raw. " +
			"The account history API is not contacted; side-chain detail and " +
			"conversion-rate lookups still run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve()
			if err != nil {
				return err
			}

			log := logging.New(cfg.Log)
			runner := run.New(cfg, log)

			summary, err := runner.EnrichFromRaw(cmd.Context(), fromRaw)
			if err != nil {
				return err
			}

			printSummary(cmd, summary)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&fromRaw, "from-raw", "", "path to a raw operations snapshot (required)")
	_ = cmd.MarkFlagRequired("from-raw")

	return cmd
}
