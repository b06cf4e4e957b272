// Command fcm trains finite-context models on text, audio and images and
// uses them to measure similarity, rank corpora and generate sequences.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/egonelbre/exp-fcm/config"
	"github.com/egonelbre/exp-fcm/source"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Model flags, applied over the configuration when set
	flagOrder       int
	flagAlpha       float64
	flagUnit        string
	flagMaxContexts int
	flagWorkers     int
	flagTopK        int
	flagCompressor  string
	flagMode        string
	flagThreshold   float64
	flagLevels      int
	flagGamma       float64
	flagMarker      string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fcm",
	Short: "Finite-context models and information distances",
	Long: `fcm estimates the statistical structure of symbol sequences with adaptive
order-k context models.

Models trained on a reference are used to measure how much new information
another sequence carries (normalized relative compression), to rank corpora of
text, audio and images, and to generate new text. Compression based distances
(NCD) are available with gz, bz2, xz, zstd, lzma and an arithmetic coder.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}
		unit, _ := source.ParseUnit(cfg.Model.Unit)
		cfg.Model.Unit = string(unit)

		logger.Debug("configuration",
			zap.Int("order", cfg.Model.Order),
			zap.Float64("alpha", cfg.Model.Alpha),
			zap.String("unit", cfg.Model.Unit),
			zap.String("mode", string(cfg.Compare.Mode)),
			zap.String("compressor", cfg.Compare.Compressor))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// applyFlags overrides configuration values with explicitly set flags.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("order") {
		cfg.Model.Order = flagOrder
	}
	if flags.Changed("alpha") {
		cfg.Model.Alpha = flagAlpha
	}
	if flags.Changed("unit") {
		cfg.Model.Unit = flagUnit
	}
	if flags.Changed("max-contexts") {
		cfg.Model.MaxContexts = flagMaxContexts
	}
	if flags.Changed("workers") {
		cfg.Compare.Workers = flagWorkers
	}
	if flags.Changed("top") {
		cfg.Compare.TopK = flagTopK
	}
	if flags.Changed("compressor") {
		cfg.Compare.Compressor = flagCompressor
	}
	if flags.Changed("mode") {
		cfg.Compare.Mode = config.Mode(flagMode)
	}
	if flags.Changed("threshold") {
		cfg.Compare.Threshold = flagThreshold
	}
	if flags.Changed("marker") {
		cfg.Compare.Marker = flagMarker
	}
	if flags.Changed("levels") {
		cfg.Image.Levels = flagLevels
		cfg.Audio.Levels = flagLevels
	}
	if flags.Changed("gamma") {
		cfg.Image.Gamma = flagGamma
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	pf.StringVar(&configPath, "config", "fcm.yaml", "Configuration file")
	pf.IntVarP(&flagOrder, "order", "k", 0, "Context order")
	pf.Float64VarP(&flagAlpha, "alpha", "a", 0, "Smoothing parameter")
	pf.StringVarP(&flagUnit, "unit", "u", "", "Text symbols: char, word or byte")
	pf.IntVar(&flagMaxContexts, "max-contexts", 0, "Stop adding contexts after this many (0 is unbounded)")
	pf.IntVarP(&flagWorkers, "workers", "j", 0, "Candidates scored concurrently")
	pf.IntVarP(&flagTopK, "top", "n", 0, "Number of results to print")
	pf.StringVarP(&flagCompressor, "compressor", "c", "", "NCD compressor: ac, bz2, gz, lzma, xz, zstd")
	pf.StringVarP(&flagMode, "mode", "m", "", "Similarity metric: nrc or ncd")
	pf.Float64Var(&flagThreshold, "threshold", 0, "Score below which candidates are analyzed")
	pf.StringVar(&flagMarker, "marker", "", "Record marker of corpus files")
	pf.IntVarP(&flagLevels, "levels", "q", 0, "Quantization levels for audio and images")
	pf.Float64Var(&flagGamma, "gamma", 0, "Forgetting factor of the image mixture")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(ncdCmd)
	rootCmd.AddCommand(audioCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(profileCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
