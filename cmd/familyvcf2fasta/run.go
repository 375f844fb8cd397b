package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vstaneva/familyvcf2fasta/internal/config"
	"github.com/vstaneva/familyvcf2fasta/internal/phaser"
)

func newRunCmd(a *app) *cobra.Command {
	var showVotes bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build all haplotypes, run the phaser and phase the child",
		Long: `Run executes the whole pipeline: it builds the six haplotype FASTA files,
invokes the phaser on them once they are all written, and writes the phase
string it produces back into the child's VCF.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fam, err := a.family()
			if err != nil {
				return err
			}
			if err := fam.ValidateRun(); err != nil {
				return err
			}
			res, builds, err := runPipeline(cmd.Context(), fam, a.logger)
			if err != nil {
				return err
			}
			return printRun(cmd.OutOrStdout(), builds, res, showVotes)
		},
	}

	cmd.Flags().BoolVar(&showVotes, "votes", false, "List every decided variant")
	return cmd
}

// runPipeline builds every member, runs the phaser over the six FASTA files
// and phases the child.
func runPipeline(ctx context.Context, fam *config.Family, logger *zap.Logger) (*phaseResult, []*memberBuild, error) {
	w, ref, err := loadWindow(fam, logger)
	if err != nil {
		return nil, nil, err
	}

	// The phaser must only see complete files: buildFamily returns after
	// every member's FASTA files are renamed into place.
	builds, err := buildFamily(ctx, fam, fam.Members(), w, ref, logger)
	if err != nil {
		return nil, nil, err
	}

	r := phaser.NewRunner(fam.Phaser.Binary)
	r.Mode = fam.Phaser.Mode
	r.Dir = fam.Phaser.Workdir
	r.Output = fam.PhaseOutput()
	r.CaptureStdout = fam.Phaser.CaptureStdout
	r.SetLogger(logger)
	if err := r.Run(ctx, fam.PhaserInputs()); err != nil {
		return nil, nil, err
	}

	var child *memberBuild
	for i, m := range fam.Members() {
		if m.Name == config.Child {
			child = builds[i]
		}
	}
	if child == nil {
		return nil, nil, fmt.Errorf("child was not built")
	}

	res, err := phaseChild(ctx, fam, w, child, logger)
	if err != nil {
		return nil, nil, err
	}
	return res, builds, nil
}

func printRun(out io.Writer, builds []*memberBuild, res *phaseResult, showVotes bool) error {
	if err := printBuilds(out, builds, false); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return printPhase(out, res, showVotes)
}
