package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vstaneva/familyvcf2fasta/internal/fileio"
	"github.com/vstaneva/familyvcf2fasta/internal/regions"
	"github.com/vstaneva/familyvcf2fasta/internal/window"
)

func newRegionsCmd(a *app) *cobra.Command {
	var (
		span      int64
		minCount  int
		outFile   string
		windowOut string
		hitsDir   string
	)

	cmd := &cobra.Command{
		Use:   "regions <vcf-file>",
		Short: "Find windows dense in heterozygous indels",
		Long: `Regions writes every heterozygous indel of a VCF tagged with WI, the number
of heterozygous indels within the preceding span on the same chromosome, and
reports the densest window. Such windows make good phasing targets.`,
		Example: `  familyvcf2fasta regions child.vcf -o child.indels.vcf
  familyvcf2fasta regions child.vcf --window-out chr21.posinfo
  familyvcf2fasta regions child.vcf --min 5 --hits-dir windows/`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if span < 1 {
				return fmt.Errorf("--span must be positive, got %d", span)
			}

			in, err := fileio.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			out := cmd.OutOrStdout()
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			finder := regions.NewFinder()
			finder.Span = span
			finder.MinCount = minCount
			finder.SetLogger(a.logger)

			res, err := finder.Scan(in, out)
			if err != nil {
				return err
			}

			if windowOut != "" && res.Best.Count > 0 {
				if err := writeDescriptor(windowOut, res.Best.Window()); err != nil {
					return err
				}
			}
			if hitsDir != "" {
				for _, h := range res.Hits {
					w := h.Window()
					name := fmt.Sprintf("%s_%d_%d.posinfo", window.NormalizeChrom(w.Chrom), w.Start, w.End)
					if err := writeDescriptor(filepath.Join(hitsDir, name), w); err != nil {
						return err
					}
				}
			}

			// The VCF may be on stdout, so the summary goes to stderr.
			return printRegions(cmd.ErrOrStderr(), res)
		},
	}

	cmd.Flags().Int64Var(&span, "span", regions.DefaultSpan, "Window width in bases")
	cmd.Flags().IntVar(&minCount, "min", 0, "Report windows holding at least this many indels")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Annotated VCF output (default: stdout)")
	cmd.Flags().StringVar(&windowOut, "window-out", "", "Write the densest window as a window descriptor")
	cmd.Flags().StringVar(&hitsDir, "hits-dir", "", "Write a window descriptor per reported window into this directory")
	return cmd
}

func writeDescriptor(path string, w window.Window) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create descriptor directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create window descriptor: %w", err)
	}
	if err := window.Write(f, w); err != nil {
		f.Close()
		return fmt.Errorf("write window descriptor: %w", err)
	}
	return f.Close()
}

func printRegions(out io.Writer, res *regions.Result) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Heterozygous indels:\t%d\n", res.Indels)
	if res.Best.Count > 0 {
		fmt.Fprintf(tw, "Densest window:\t%s\t(%d indels)\n", res.Best.Window(), res.Best.Count)
	}
	if len(res.Hits) > 0 {
		fmt.Fprintf(tw, "Reported windows:\t%d\n", len(res.Hits))
	}
	return tw.Flush()
}
