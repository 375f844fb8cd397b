package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vstaneva/familyvcf2fasta/internal/config"
	"github.com/vstaneva/familyvcf2fasta/internal/duckdb"
	"github.com/vstaneva/familyvcf2fasta/internal/output"
)

func newHistoryCmd(a *app) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List stored phasing runs or show one run",
		Long: `History reads the run store configured under store.path. Without an
argument it lists every run, newest first; with a run id it shows the files
the run read and its per-variant votes.`,
		Example: `  familyvcf2fasta history
  familyvcf2fasta history 5f0c2a4e-...
  familyvcf2fasta history 5f0c2a4e-... --delete`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fam, err := a.family()
			if err != nil {
				return err
			}
			if fam.Store.Path == "" {
				return &config.ConfigurationError{Key: "store.path", Message: "not set"}
			}
			if err := config.CheckInputs(map[string]string{"store.path": fam.Store.Path}); err != nil {
				return err
			}

			store, err := duckdb.Open(fam.Store.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			sw := output.NewSummaryWriter(cmd.OutOrStdout())

			if len(args) == 0 {
				if remove {
					return fmt.Errorf("--delete needs a run id")
				}
				runs, err := store.Runs(ctx)
				if err != nil {
					return err
				}
				return sw.WriteRuns(runs)
			}

			runID := args[0]
			if remove {
				if err := store.DeleteRun(ctx, runID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", runID)
				return nil
			}

			inputs, err := store.Inputs(ctx, runID)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no run %q in %s", runID, fam.Store.Path)
			}
			votes, err := store.Votes(ctx, runID)
			if err != nil {
				return err
			}

			if err := sw.WriteInputs(inputs); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return sw.WriteVotes(votes)
		},
	}

	cmd.Flags().BoolVar(&remove, "delete", false, "Delete the given run")
	return cmd
}
