// Package config loads the family configuration: the shared reference and
// window, the three members' inputs and outputs, and the phaser settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. FAMILYVCF2FASTA_COMMON_REFERENCE.
const EnvPrefix = "FAMILYVCF2FASTA"

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "family.yaml"

// Member roles in a trio.
const (
	Mother = "mother"
	Father = "father"
	Child  = "child"
)

// Common holds the inputs shared by all members.
type Common struct {
	Reference string `mapstructure:"reference"`
	Window    string `mapstructure:"window"`
	Assembly  string `mapstructure:"assembly"`
}

// Member holds one individual's variant file and haplotype FASTA outputs.
type Member struct {
	Name      string `mapstructure:"-"`
	VCF       string `mapstructure:"vcf_file"`
	Fasta1    string `mapstructure:"fasta1"`
	Fasta2    string `mapstructure:"fasta2"`
	PhasedVCF string `mapstructure:"phased_vcf"`
}

// Fastas returns the member's two FASTA paths.
func (m Member) Fastas() [2]string {
	return [2]string{m.Fasta1, m.Fasta2}
}

// Phaser configures the external phasing engine.
type Phaser struct {
	Binary        string `mapstructure:"binary"`
	Mode          string `mapstructure:"mode"`
	Output        string `mapstructure:"output"`
	Workdir       string `mapstructure:"workdir"`
	CaptureStdout bool   `mapstructure:"capture_stdout"`
}

// Store configures the run history database and the reference window cache.
type Store struct {
	Path        string `mapstructure:"path"`
	WindowCache string `mapstructure:"window_cache"`
}

// Run holds execution settings.
type Run struct {
	Workers int  `mapstructure:"workers"`
	Lenient bool `mapstructure:"lenient"`
}

// Family is the complete configuration of one trio.
type Family struct {
	Common Common `mapstructure:"common"`
	Mother Member `mapstructure:"mother"`
	Father Member `mapstructure:"father"`
	Child  Member `mapstructure:"child"`
	Phaser Phaser `mapstructure:"phaser"`
	Store  Store  `mapstructure:"store"`
	Run    Run    `mapstructure:"run"`
}

// Members returns mother, father and child in the order the phaser takes
// their FASTA files.
func (f *Family) Members() []Member {
	return []Member{f.Mother, f.Father, f.Child}
}

// PhaserInputs returns the six FASTA paths in phaser argument order.
func (f *Family) PhaserInputs() []string {
	var paths []string
	for _, m := range f.Members() {
		paths = append(paths, m.Fasta1, m.Fasta2)
	}
	return paths
}

// ConfigurationError reports a missing or invalid configuration value.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Message)
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("common.assembly", "hg19")
	v.SetDefault("phaser.binary", "mfc_similarity_phaser")
	v.SetDefault("phaser.workdir", ".")
	v.SetDefault("phaser.output", "phase.txt")
	v.SetDefault("phaser.capture_stdout", true)
	v.SetDefault("run.workers", 1)
	v.SetDefault("run.lenient", false)
}

// Init points v at the config file and environment. An empty path looks for
// family.yaml in the working directory; a missing default file is not an
// error, a missing explicit one is.
func Init(v *viper.Viper, path string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigFile(DefaultFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return &ConfigurationError{Key: "config", Message: err.Error()}
	}
	return nil
}

// Load decodes v into a Family. Relative paths are resolved against the
// directory of the config file in use.
func Load(v *viper.Viper) (*Family, error) {
	var f Family
	if err := v.Unmarshal(&f); err != nil {
		return nil, &ConfigurationError{Key: "config", Message: err.Error()}
	}
	f.Mother.Name, f.Father.Name, f.Child.Name = Mother, Father, Child

	base := ""
	if used := v.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			base = filepath.Dir(used)
		}
	}
	f.resolve(base)
	return &f, nil
}

func (f *Family) resolve(base string) {
	if base == "" || base == "." {
		return
	}
	for _, p := range []*string{
		&f.Common.Reference, &f.Common.Window,
		&f.Mother.VCF, &f.Mother.Fasta1, &f.Mother.Fasta2,
		&f.Father.VCF, &f.Father.Fasta1, &f.Father.Fasta2,
		&f.Child.VCF, &f.Child.Fasta1, &f.Child.Fasta2, &f.Child.PhasedVCF,
		&f.Phaser.Workdir, &f.Store.Path, &f.Store.WindowCache,
	} {
		if *p != "" && *p != "-" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	// a bare binary name is looked up in PATH
	if b := f.Phaser.Binary; strings.ContainsRune(b, filepath.Separator) && !filepath.IsAbs(b) {
		f.Phaser.Binary = filepath.Join(base, b)
	}
}

// PhaseOutput returns the path of the phase string file.
func (f *Family) PhaseOutput() string {
	if filepath.IsAbs(f.Phaser.Output) {
		return f.Phaser.Output
	}
	return filepath.Join(f.Phaser.Workdir, f.Phaser.Output)
}

// ValidateBuild checks the keys needed to build haplotypes for members.
func (f *Family) ValidateBuild(members []Member) error {
	if err := required("common.reference", f.Common.Reference); err != nil {
		return err
	}
	if err := required("common.window", f.Common.Window); err != nil {
		return err
	}
	for _, m := range members {
		if err := required(m.Name+".vcf_file", m.VCF); err != nil {
			return err
		}
		if err := required(m.Name+".fasta1", m.Fasta1); err != nil {
			return err
		}
		if err := required(m.Name+".fasta2", m.Fasta2); err != nil {
			return err
		}
		if m.Fasta1 == m.Fasta2 {
			return &ConfigurationError{Key: m.Name + ".fasta2", Message: "must differ from fasta1"}
		}
	}
	if f.Run.Workers < 1 {
		return &ConfigurationError{Key: "run.workers", Message: fmt.Sprintf("must be at least 1, got %d", f.Run.Workers)}
	}
	return nil
}

// ValidatePhase checks the keys needed to phase the child.
func (f *Family) ValidatePhase() error {
	if err := required("child.vcf_file", f.Child.VCF); err != nil {
		return err
	}
	if err := required("phaser.output", f.Phaser.Output); err != nil {
		return err
	}
	return nil
}

// ValidateRun checks every key of a full pipeline run.
func (f *Family) ValidateRun() error {
	if err := f.ValidateBuild(f.Members()); err != nil {
		return err
	}
	if err := required("phaser.binary", f.Phaser.Binary); err != nil {
		return err
	}
	return f.ValidatePhase()
}

// CheckInputs verifies that the listed input files exist.
func CheckInputs(keyed map[string]string) error {
	for key, path := range keyed {
		if path == "-" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return &ConfigurationError{Key: key, Message: err.Error()}
		}
	}
	return nil
}

func required(key, val string) error {
	if strings.TrimSpace(val) == "" {
		return &ConfigurationError{Key: key, Message: "not set"}
	}
	return nil
}
