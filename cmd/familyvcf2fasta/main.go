// Package main provides the familyvcf2fasta command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vstaneva/familyvcf2fasta/internal/config"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// skipConfig marks commands that run without reading the family config.
const skipConfig = "skip-config"

// app carries the state shared by all subcommands.
type app struct {
	cfgFile string
	verbose bool
	v       *viper.Viper
	logger  *zap.Logger
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	a := &app{v: viper.New(), logger: zap.NewNop()}
	root := newRootCmd(a)
	root.SetArgs(args)

	err := root.Execute()
	_ = a.logger.Sync()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ce *config.ConfigurationError
	if errors.As(err, &ce) {
		fmt.Fprintf(os.Stderr, "Hint: check %s in %s or create one with: familyvcf2fasta config init\n", ce.Key, a.configName())
		return ExitUsage
	}
	return ExitError
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "familyvcf2fasta",
		Short: "Trio haplotype reconstruction and phasing",
		Long: `familyvcf2fasta builds two gapped haplotype sequences per member of a
mother/father/child trio from a reference window and each member's variants,
runs an external phaser over the six sequences and writes the phase it
decides back into the child's VCF.`,
		Example: `  familyvcf2fasta config init               # write family.yaml
  familyvcf2fasta run                       # build, phase and rewrite
  familyvcf2fasta build --member child      # rebuild one member's FASTA files
  familyvcf2fasta regions child.vcf --min 5 # find windows dense in het indels`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(a.verbose)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			a.logger = logger
			if cmd.Annotations[skipConfig] != "" {
				return nil
			}
			return config.Init(a.v, a.cfgFile)
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "Family config file (default ./"+config.DefaultFile+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(newBuildCmd(a))
	root.AddCommand(newPhaseCmd(a))
	root.AddCommand(newRunCmd(a))
	root.AddCommand(newRegionsCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "familyvcf2fasta version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// newLogger builds a production logger, or a development one when verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopmentConfig().Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// family loads the family config.
func (a *app) family() (*config.Family, error) {
	return config.Load(a.v)
}

func (a *app) configName() string {
	if used := a.v.ConfigFileUsed(); used != "" {
		return used
	}
	return config.DefaultFile
}
