// Package main provides the vibe-rank command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/vibe-rank/internal/prioritize"
	"github.com/inodb/vibe-rank/internal/rank"
	"github.com/inodb/vibe-rank/internal/report"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// defaultMatrix is the expression matrix shipped next to the binary, relative
// to the installation root.
const defaultMatrix = "data/merge_immunotherapy.expression.gz"

var errNoGeneSet = errors.New("no gene set")

// flagKeys maps root command flags to config keys.
var flagKeys = map[string]string{
	"matrix":           "matrix",
	"output":           "output",
	"db":               "db",
	"workers":          "workers",
	"format":           "format",
	"verbose":          "verbose",
	"p-threshold":      "thresholds.p",
	"q-threshold":      "thresholds.q",
	"null-threshold":   "thresholds.null",
	"fold-threshold":   "thresholds.fold",
	"count-threshold":  "thresholds.count",
	"median-threshold": "thresholds.median",
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	viper.Reset()

	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, errNoGeneSet) {
			fmt.Fprintln(stderr, "Please input a gene set")
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "vibe-rank [flags] <gene-set>",
		Short: "Rank genes by consistent expression change",
		Long: `Rank the genes of a gene set by a consistent shift of expression across samples.

Each gene is tested with a two-sided Wilcoxon signed-rank test against zero,
p-values are corrected with Benjamini-Hochberg, and significant genes are
split into a Negative and a Positive group. Statistics are written to
<prefix>.stat.xlsx and the ranked genes to <prefix>.xlsx.`,
		Example: `  vibe-rank genes.txt
  vibe-rank --matrix expression.tsv.gz --output results/run1 genes.txt
  vibe-rank --format tsv --p-threshold 0.01 --db runs.duckdb genes.txt`,
		Args:          cobra.MaximumNArgs(1),
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd.Flags()); err != nil {
				return err
			}
			if len(args) == 0 {
				return errNoGeneSet
			}
			if _, err := os.Stat(args[0]); err != nil {
				return errNoGeneSet
			}
			return runRank(cmd.Context(), args[0], cmd.ErrOrStderr())
		},
	}
	cmd.SetVersionTemplate("vibe-rank version {{.Version}}\n")

	th := rank.DefaultThresholds()
	f := cmd.Flags()
	f.StringP("matrix", "m", "", "Expression matrix (TSV, optionally gzipped; default: <install>/"+defaultMatrix+")")
	f.StringP("output", "o", "", "Output prefix (default: <gene-set>.rank)")
	f.String("db", "", "Record the run in this DuckDB database")
	f.IntP("workers", "w", 0, "Number of row-testing workers (0 = all CPUs)")
	f.StringP("format", "f", string(report.FormatXLSX), "Report format: xlsx, tsv")
	f.Float64("p-threshold", th.PValue, "Maximum p-value (exclusive)")
	f.Float64("q-threshold", th.FDR, "Maximum FDR (exclusive)")
	f.Float64("null-threshold", th.NullFraction, "Maximum fraction of missing values per gene")
	f.Float64("fold-threshold", th.Fold, "Absolute value a sample must exceed to count toward a direction")
	f.Int("count-threshold", th.Count, "Minimum excess of samples in the dominant direction")
	f.Float64("median-threshold", th.Median, "Absolute median a gene must exceed")
	f.BoolP("verbose", "v", false, "Enable debug logging")

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.vibe-rank.yaml)")

	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLookupCmd())

	return cmd
}

// bindFlags binds the root command flags to their config keys so that flags
// override the environment, which overrides the config file.
func bindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// initConfig reads the config file and environment. A missing default config
// file is not an error.
func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".vibe-rank")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VIBE_RANK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func runRank(ctx context.Context, geneSet string, stderr io.Writer) error {
	logger := newLogger(stderr, viper.GetBool("verbose"))
	defer logger.Sync()

	format, err := report.ParseFormat(viper.GetString("format"))
	if err != nil {
		return err
	}

	matrixPath := viper.GetString("matrix")
	if matrixPath == "" {
		matrixPath, err = installedMatrix()
		if err != nil {
			return err
		}
	}

	cfg := prioritize.Config{
		GeneSetPath:  geneSet,
		MatrixPath:   matrixPath,
		OutputPrefix: viper.GetString("output"),
		Format:       format,
		Workers:      viper.GetInt("workers"),
		DBPath:       viper.GetString("db"),
		Thresholds: rank.Thresholds{
			PValue:       viper.GetFloat64("thresholds.p"),
			FDR:          viper.GetFloat64("thresholds.q"),
			NullFraction: viper.GetFloat64("thresholds.null"),
			Fold:         viper.GetFloat64("thresholds.fold"),
			Count:        viper.GetInt("thresholds.count"),
			Median:       viper.GetFloat64("thresholds.median"),
		},
	}

	logger.Debug("starting run",
		zap.String("gene_set", cfg.GeneSetPath),
		zap.String("matrix", cfg.MatrixPath),
		zap.String("format", string(cfg.Format)),
		zap.Any("thresholds", cfg.Thresholds))

	p := prioritize.New(cfg)
	p.SetLogger(logger)

	_, err = p.Run(ctx)
	return err
}

// installedMatrix returns the default matrix path: data/ under the directory
// above the one holding the executable.
func installedMatrix() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(filepath.Dir(exe)), defaultMatrix), nil
}

// newLogger builds a console logger writing to w.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}
