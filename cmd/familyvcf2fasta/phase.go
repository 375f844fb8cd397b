package main

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vstaneva/familyvcf2fasta/internal/config"
	"github.com/vstaneva/familyvcf2fasta/internal/duckdb"
	"github.com/vstaneva/familyvcf2fasta/internal/output"
	"github.com/vstaneva/familyvcf2fasta/internal/phase"
	"github.com/vstaneva/familyvcf2fasta/internal/window"
)

func newPhaseCmd(a *app) *cobra.Command {
	var showVotes bool

	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Write the phaser's decisions back into the child's VCF",
		Long: `Phase rebuilds the child's aligned haplotypes, tallies the phase string
produced by the phaser against them and rewrites the genotype of every
decided heterozygous variant in the child's VCF.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fam, err := a.family()
			if err != nil {
				return err
			}
			if err := fam.ValidatePhase(); err != nil {
				return err
			}
			if err := fam.ValidateBuild([]config.Member{fam.Child}); err != nil {
				return err
			}

			w, ref, err := loadWindow(fam, a.logger)
			if err != nil {
				return err
			}
			child, err := buildMember(fam, fam.Child, w, ref, a.logger)
			if err != nil {
				return err
			}
			res, err := phaseChild(cmd.Context(), fam, w, child, a.logger)
			if err != nil {
				return err
			}
			return printPhase(cmd.OutOrStdout(), res, showVotes)
		},
	}

	cmd.Flags().BoolVar(&showVotes, "votes", false, "List every decided variant")
	return cmd
}

// phaseResult is the outcome of writing a phase back into the child's VCF.
type phaseResult struct {
	report *phase.Report
	output string // rewritten VCF
	runID  string // empty unless the run was stored
}

// phaseChild tallies the phase string against the child's alignment and
// rewrites the child's VCF.
func phaseChild(ctx context.Context, fam *config.Family, w window.Window, child *memberBuild, logger *zap.Logger) (*phaseResult, error) {
	phasePath := fam.PhaseOutput()
	if err := config.CheckInputs(map[string]string{"phaser.output": phasePath}); err != nil {
		return nil, err
	}
	phaseString, err := phase.Load(phasePath)
	if err != nil {
		return nil, err
	}

	a := child.alignment
	tally, err := phase.Count(phaseString, a.Provenance[0], a.Provenance[1])
	if err != nil {
		return nil, err
	}

	out := fam.Child.PhasedVCF
	if out == "" {
		out = phase.PhasedPath(fam.Child.VCF)
	}
	rw := phase.NewRewriter(tally)
	rw.SetLogger(logger.With(zap.String("member", config.Child)))
	report, err := rw.RewriteFile(fam.Child.VCF, out)
	if err != nil {
		return nil, err
	}
	report.HetApplied = child.builder.Result().HetApplied

	logger.Info("phase written",
		zap.String("output", out),
		zap.Int("decided", report.Decided()),
		zap.Int("correct", report.Correct),
		zap.Int("incorrect", report.Incorrect))

	res := &phaseResult{report: report, output: out}
	if fam.Store.Path != "" {
		res.runID, err = recordRun(ctx, fam, w, report)
		if err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
		logger.Info("run recorded", zap.String("run_id", res.runID), zap.String("store", fam.Store.Path))
	}
	return res, nil
}

// recordRun stores the run, the fingerprints of the files it read and its
// votes.
func recordRun(ctx context.Context, fam *config.Family, w window.Window, report *phase.Report) (string, error) {
	inputs, err := duckdb.StatInputs("common", map[string]string{
		"reference": fam.Common.Reference,
		"window":    fam.Common.Window,
		"phase":     fam.PhaseOutput(),
	})
	if err != nil {
		return "", err
	}
	for _, m := range fam.Members() {
		if m.VCF == "" || m.VCF == "-" {
			continue
		}
		in, err := duckdb.StatInputs(m.Name, map[string]string{"vcf": m.VCF})
		if err != nil {
			return "", err
		}
		inputs = append(inputs, in...)
	}

	store, err := duckdb.Open(fam.Store.Path)
	if err != nil {
		return "", err
	}
	defer store.Close()

	run := duckdb.NewRun(w, fam.Phaser.Mode, report)
	if err := store.RecordRun(ctx, run, inputs, report.Votes); err != nil {
		return "", err
	}
	return run.ID, nil
}

func printPhase(out io.Writer, res *phaseResult, showVotes bool) error {
	fmt.Fprintf(out, "Phased VCF: %s\n", res.output)
	if res.runID != "" {
		fmt.Fprintf(out, "Run: %s\n", res.runID)
	}

	sw := output.NewSummaryWriter(out)
	if err := sw.WriteReport(res.report); err != nil {
		return err
	}
	if !showVotes || len(res.report.Votes) == 0 {
		return nil
	}
	votes := slices.Clone(res.report.Votes)
	slices.SortFunc(votes, func(x, y phase.Vote) int { return int(x.ID) - int(y.ID) })
	return sw.WriteVotes(votes)
}
