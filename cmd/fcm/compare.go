package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/egonelbre/exp-fcm/config"
	"github.com/egonelbre/exp-fcm/corpus"
	"github.com/egonelbre/exp-fcm/fcm"
	"github.com/egonelbre/exp-fcm/ncd"
	"github.com/egonelbre/exp-fcm/source"
)

// loadCorpus reads a corpus file or every file of a directory.
func loadCorpus(path string) ([]corpus.Record[string], error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		records, errs := corpus.ScanDir(path, nil, source.ReadText, logger)
		if len(errs) > 0 {
			logger.Warn("some corpus files were skipped", zap.Int("skipped", len(errs)))
		}
		return records, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return corpus.Parse(f, cfg.MarkerRune())
}

func comparator[T any]() corpus.Comparator[T] {
	return corpus.Comparator[T]{
		Workers: cfg.Compare.Workers,
		TopK:    cfg.Compare.TopK,
		Log:     logger,
	}
}

// nrcScore scores records under a trained model.
func nrcScore[S comparable](u textUnit[S], m *fcm.Model[S]) corpus.ScoreFunc[string] {
	return func(rec corpus.Record[string]) (float64, error) {
		return m.NRC(u.split(rec.Data)), nil
	}
}

// ncdScore scores records by their compression distance to query.
func ncdScore(query []byte) (corpus.ScoreFunc[string], error) {
	o, err := ncd.Lookup(cfg.Compare.Compressor)
	if err != nil {
		return nil, err
	}
	q, err := ncd.NewQuery(o, query)
	if err != nil {
		return nil, err
	}
	return func(rec corpus.Record[string]) (float64, error) {
		return q.Distance([]byte(rec.Data))
	}, nil
}

// queryScore builds the configured metric for the query at path.
func queryScore[S comparable](u textUnit[S], path string) (corpus.ScoreFunc[string], string, error) {
	if cfg.Compare.Mode == config.NCD {
		if isModelFile(path) {
			return nil, "", fmt.Errorf("ncd mode compares raw data, got model %s", path)
		}
		data, err := source.ReadBytes(path)
		if err != nil {
			return nil, "", err
		}
		score, err := ncdScore(data)
		return score, "ncd-" + cfg.Compare.Compressor, err
	}

	m, _, err := queryModel(u, path)
	if err != nil {
		return nil, "", err
	}
	return nrcScore(u, m), "nrc", nil
}

var rankCmd = &cobra.Command{
	Use:   "rank QUERY CORPUS",
	Short: "Rank corpus records by similarity to QUERY",
	Long: `Scores every record of CORPUS against QUERY and prints the most similar
records first. CORPUS is either a file of records separated by marker lines
(default '@') or a directory of text files. QUERY is a text file or, in nrc
mode, a saved model.`,
	Args: cobra.ExactArgs(2),
	RunE: textCommand(runRank[rune], runRank[string], runRank[byte]),
}

func runRank[S comparable](cmd *cobra.Command, args []string, u textUnit[S]) error {
	score, metric, err := queryScore(u, args[0])
	if err != nil {
		return err
	}
	records, err := loadCorpus(args[1])
	if err != nil {
		return err
	}

	results, err := comparator[string]().Rank(contextOrBackground(cmd), records, score)
	if err != nil {
		return err
	}
	printResults(cmd.OutOrStdout(), metric, results)
	return nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze QUERY CORPUS",
	Short: "Cross-compare the corpus records most similar to QUERY",
	Long: `Ranks CORPUS against QUERY like rank, keeps the records scoring below
--threshold and trains a model on each of them to score the others, printing
the resulting similarity matrix.`,
	Args: cobra.ExactArgs(2),
	RunE: textCommand(runAnalyze[rune], runAnalyze[string], runAnalyze[byte]),
}

func runAnalyze[S comparable](cmd *cobra.Command, args []string, u textUnit[S]) error {
	score, metric, err := queryScore(u, args[0])
	if err != nil {
		return err
	}
	records, err := loadCorpus(args[1])
	if err != nil {
		return err
	}

	all := comparator[string]()
	all.TopK = 0
	results, err := all.Rank(contextOrBackground(cmd), records, score)
	if err != nil {
		return err
	}
	kept := corpus.Filter(results, cfg.Compare.Threshold)
	if cfg.Compare.TopK > 0 && len(kept) > cfg.Compare.TopK {
		kept = kept[:cfg.Compare.TopK]
	}
	logger.Info("selected records for analysis",
		zap.Float64("threshold", cfg.Compare.Threshold),
		zap.Int("selected", len(kept)))

	out := cmd.OutOrStdout()
	printResults(out, metric, kept)
	if len(kept) < 2 {
		fmt.Fprintln(out, "fewer than two records below the threshold")
		return nil
	}

	train := func(rec corpus.Record[string]) (corpus.ScoreFunc[string], error) {
		m, err := newModel(u, cfg.Model.Order)
		if err != nil {
			return nil, err
		}
		m.TrainAll(u.split(rec.Data))
		return nrcScore(u, m), nil
	}
	matrix, err := comparator[string]().Analyze(contextOrBackground(cmd), corpus.Select(records, kept), train)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	printMatrix(out, matrix)
	return nil
}

var ncdModel bool

var ncdCmd = &cobra.Command{
	Use:   "ncd X Y",
	Short: "Print the normalized compression distance between two files",
	Long: `Compresses X, Y and their concatenation with --compressor and prints
NCD(X, Y). With --model the compressed size is replaced by the adaptive code
length of a context model of the configured order and unit.`,
	Args: cobra.ExactArgs(2),
	RunE: textCommand(runNCD[rune], runNCD[string], runNCD[byte]),
}

func runNCD[S comparable](cmd *cobra.Command, args []string, u textUnit[S]) error {
	var d float64
	if ncdModel {
		x, err := readSymbols(u, args[0])
		if err != nil {
			return err
		}
		y, err := readSymbols(u, args[1])
		if err != nil {
			return err
		}
		d, err = ncd.ModelDistance(x, y, cfg.Model.Order, cfg.Model.Alpha, u.codec)
		if err != nil {
			return err
		}
	} else {
		x, err := source.ReadBytes(args[0])
		if err != nil {
			return err
		}
		y, err := source.ReadBytes(args[1])
		if err != nil {
			return err
		}
		o, err := ncd.Lookup(cfg.Compare.Compressor)
		if err != nil {
			return err
		}
		d, err = ncd.Distance(o, x, y)
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%.6f\n", d)
	return nil
}

func init() {
	ncdCmd.Flags().BoolVar(&ncdModel, "model", false, "Use a context model instead of a compressor")
}

// contextOrBackground guards against commands executed without a context.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
