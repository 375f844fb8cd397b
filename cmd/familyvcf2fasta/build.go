package main

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vstaneva/familyvcf2fasta/internal/config"
	"github.com/vstaneva/familyvcf2fasta/internal/duckdb"
	"github.com/vstaneva/familyvcf2fasta/internal/haplotype"
	"github.com/vstaneva/familyvcf2fasta/internal/output"
	"github.com/vstaneva/familyvcf2fasta/internal/reference"
	"github.com/vstaneva/familyvcf2fasta/internal/vcf"
	"github.com/vstaneva/familyvcf2fasta/internal/window"
)

func newBuildCmd(a *app) *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the gapped haplotype FASTA files of the family",
		Long: `Build reconstructs two haplotypes per member from the reference window and
the member's VCF, aligns them with gaps and writes them to the member's
fasta1 and fasta2 files.`,
		Example: `  familyvcf2fasta build
  familyvcf2fasta build --member child --member mother`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fam, err := a.family()
			if err != nil {
				return err
			}
			members, err := selectMembers(fam, only)
			if err != nil {
				return err
			}
			if err := fam.ValidateBuild(members); err != nil {
				return err
			}

			w, ref, err := loadWindow(fam, a.logger)
			if err != nil {
				return err
			}
			builds, err := buildFamily(cmd.Context(), fam, members, w, ref, a.logger)
			if err != nil {
				return err
			}
			return printBuilds(cmd.OutOrStdout(), builds, a.verbose)
		},
	}

	cmd.Flags().StringSliceVarP(&only, "member", "m", nil, "Build only these members: mother, father, child (default all)")
	return cmd
}

// memberBuild is one member's reconstructed and aligned haplotypes.
type memberBuild struct {
	builder   *haplotype.Builder
	alignment *haplotype.Alignment
	summary   output.MemberSummary
}

func selectMembers(fam *config.Family, names []string) ([]config.Member, error) {
	if len(names) == 0 {
		return fam.Members(), nil
	}
	var members []config.Member
	for _, m := range fam.Members() {
		if slices.Contains(names, m.Name) {
			members = append(members, m)
		}
	}
	for _, n := range names {
		if n != config.Mother && n != config.Father && n != config.Child {
			return nil, fmt.Errorf("unknown member %q (want mother, father or child)", n)
		}
	}
	return members, nil
}

// loadWindow reads the window descriptor and the reference bases it covers.
// With store.window_cache set, the bases are served from the cache while the
// reference file is unchanged.
func loadWindow(fam *config.Family, logger *zap.Logger) (window.Window, []byte, error) {
	if err := config.CheckInputs(map[string]string{
		"common.reference": fam.Common.Reference,
		"common.window":    fam.Common.Window,
	}); err != nil {
		return window.Window{}, nil, err
	}

	w, err := window.Load(fam.Common.Window)
	if err != nil {
		return window.Window{}, nil, &config.ConfigurationError{Key: "common.window", Message: err.Error()}
	}

	if fam.Store.WindowCache == "" {
		ref, err := reference.LoadWindow(fam.Common.Reference, w)
		return w, ref, err
	}

	fp, err := duckdb.StatFile(fam.Common.Reference)
	if err != nil {
		return w, nil, fmt.Errorf("stat reference: %w", err)
	}
	wc := duckdb.NewWindowCache(fam.Store.WindowCache)
	if wc.Valid(w, fp) {
		ref, err := wc.Load(w)
		if err == nil {
			logger.Debug("reference window served from cache", zap.String("window", w.String()))
			return w, ref, nil
		}
		logger.Warn("discarding unreadable window cache", zap.Error(err))
		wc.Clear(w)
	}

	ref, err := reference.LoadWindow(fam.Common.Reference, w)
	if err != nil {
		return w, nil, err
	}
	if err := wc.Write(w, ref, fp); err != nil {
		logger.Warn("could not cache reference window", zap.Error(err))
	}
	return w, ref, nil
}

// buildMember streams m's admissible variants into a fresh builder and
// aligns the result.
func buildMember(fam *config.Family, m config.Member, w window.Window, ref []byte, logger *zap.Logger) (*memberBuild, error) {
	log := logger.With(zap.String("member", m.Name))

	parser, err := vcf.NewParser(m.VCF)
	if err != nil {
		return nil, err
	}
	defer parser.Close()
	parser.SetLenient(fam.Run.Lenient)
	parser.SetLogger(log)

	b := haplotype.NewBuilder(w, ref)
	b.SetLogger(log)
	f := vcf.NewFilter(w)
	f.SetLogger(log)

	stats, err := f.Scan(parser, func(v *vcf.Variant) error {
		_, err := b.Apply(v)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}

	a, err := b.Align()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}

	if n := parser.Skipped(); n > 0 {
		log.Warn("malformed records skipped", zap.Int("count", n))
	}

	res := b.Result()
	log.Info("haplotypes built",
		zap.Int("admitted", stats.Admitted),
		zap.Int("het", res.HetApplied),
		zap.Int("hom", res.HomApplied),
		zap.Int("dropped", len(res.Dropped)),
		zap.Int("columns", a.Len()))

	return &memberBuild{
		builder:   b,
		alignment: a,
		summary: output.MemberSummary{
			Member:  m.Name,
			Filter:  stats,
			Build:   res,
			Columns: a.Len(),
		},
	}, nil
}

// buildFamily builds members concurrently, at most run.workers at a time, and
// writes each member's two FASTA files. Members share no state besides the
// read-only reference bases.
func buildFamily(ctx context.Context, fam *config.Family, members []config.Member, w window.Window, ref []byte, logger *zap.Logger) ([]*memberBuild, error) {
	inputs := make(map[string]string, len(members))
	for _, m := range members {
		inputs[m.Name+".vcf_file"] = m.VCF
	}
	if err := config.CheckInputs(inputs); err != nil {
		return nil, err
	}

	builds := make([]*memberBuild, len(members))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fam.Run.Workers)

	for i, m := range members {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mb, err := buildMember(fam, m, w, ref, logger)
			if err != nil {
				return err
			}
			if err := output.WriteAlignment(m.Fastas(), mb.alignment, fam.Common.Assembly, w, m.VCF); err != nil {
				return fmt.Errorf("%s: %w", m.Name, err)
			}
			builds[i] = mb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return builds, nil
}

func printBuilds(out io.Writer, builds []*memberBuild, details bool) error {
	summaries := make([]output.MemberSummary, len(builds))
	for i, b := range builds {
		summaries[i] = b.summary
	}

	sw := output.NewSummaryWriter(out)
	if err := sw.WriteMembers(summaries); err != nil {
		return err
	}
	if !details {
		return nil
	}
	for _, s := range summaries {
		if err := sw.WriteSkipReasons(s); err != nil {
			return err
		}
	}
	return nil
}
