package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hiveledger-dev/hiveledger/internal/logging"
	"github.com/hiveledger-dev/hiveledger/internal/model"
	"github.com/hiveledger-dev/hiveledger/internal/run"
)

func newExportCommand() *cobra.Command {
	var flags configFlags
	var saveRaw string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Walk account history and write the tax ledger CSVs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve()
			if err != nil {
				return err
			}

			log := logging.New(cfg.Log)
			runner := run.New(cfg, log)

			summary, err := runner.Export(cmd.Context(), saveRaw)
			if err != nil {
				return err
			}

			printSummary(cmd, summary)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&saveRaw, "save-raw", "", "also save the raw operations to this file")

	return cmd
}

func printSummary(cmd *cobra.Command, s *run.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Account:        %s\n", s.Account)
	fmt.Fprintf(out, "Operations:     %d\n", s.Found)
	categories := make([]string, 0, len(s.ByCategory))
	for category := range s.ByCategory {
		categories = append(categories, string(category))
	}
	sort.Strings(categories)
	for _, category := range categories {
		fmt.Fprintf(out, "  %-18s %d\n", category+":", s.ByCategory[model.Category(category)])
	}
	fmt.Fprintf(out, "Detail lookups: %d (%d failed)\n", s.DetailsFetched, s.DetailsFailed)
	fmt.Fprintf(out, "Fills:          %d\n", s.Fills)
	fmt.Fprintf(out, "Warnings:       %d\n", s.Warnings)
	fmt.Fprintf(out, "Ledger:         %s (%d rows)\n", s.RegularPath, s.RegularRows)
	fmt.Fprintf(out, "Dust ledger:    %s (%d rows)\n", s.DustPath, s.DustRows)
	if s.RawPath != "" {
		fmt.Fprintf(out, "Raw snapshot:   %s\n", s.RawPath)
	}
}
