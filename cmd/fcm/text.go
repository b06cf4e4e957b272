package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/egonelbre/exp-fcm/chart"
	"github.com/egonelbre/exp-fcm/fcm"
	"github.com/egonelbre/exp-fcm/generate"
	"github.com/egonelbre/exp-fcm/source"
)

// textUnit describes how text is turned into symbols of type S.
type textUnit[S comparable] struct {
	codec    fcm.Codec[S]
	split    func(string) []S
	join     func([]S) string
	fallback []S
}

var (
	charUnit = textUnit[rune]{
		codec:    fcm.Runes,
		split:    source.Runes,
		join:     func(s []rune) string { return string(s) },
		fallback: []rune{' '},
	}
	wordUnit = textUnit[string]{
		codec: fcm.Words,
		split: source.Words,
		join:  func(s []string) string { return strings.Join(s, " ") },
	}
	byteUnit = textUnit[byte]{
		codec: fcm.Bytes,
		split: func(s string) []byte { return []byte(s) },
		join:  func(s []byte) string { return string(s) },
	}
)

type textRun[S comparable] func(cmd *cobra.Command, args []string, u textUnit[S]) error

// textCommand runs the instantiation of a command that matches the
// configured unit.
func textCommand(char textRun[rune], word textRun[string], raw textRun[byte]) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		switch source.Unit(cfg.Model.Unit) {
		case source.Word:
			return word(cmd, args, wordUnit)
		case source.Byte:
			return raw(cmd, args, byteUnit)
		default:
			return char(cmd, args, charUnit)
		}
	}
}

func newModel[S comparable](u textUnit[S], order int) (*fcm.Model[S], error) {
	var opts []fcm.Option
	if cfg.Model.MaxContexts > 0 {
		opts = append(opts, fcm.WithMaxContexts(cfg.Model.MaxContexts))
	}
	return fcm.New(order, cfg.Model.Alpha, u.codec, opts...)
}

// isModelFile reports whether path names a saved model rather than text.
func isModelFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".fcm", ".pb":
		return true
	}
	return false
}

// trainText trains a fresh model on the text file at path.
func trainText[S comparable](u textUnit[S], path string, order int) (*fcm.Model[S], []S, error) {
	text, err := source.ReadText(path)
	if err != nil {
		return nil, nil, err
	}
	m, err := newModel(u, order)
	if err != nil {
		return nil, nil, err
	}
	seq := u.split(text)
	m.TrainAll(seq)
	logger.Info("trained model",
		zap.String("path", path),
		zap.Int("order", order),
		zap.Int("symbols", len(seq)),
		zap.Int("contexts", m.Contexts()))
	return m, seq, nil
}

// queryModel loads a saved model or trains one on a text file. The training
// sequence is returned for text files.
func queryModel[S comparable](u textUnit[S], path string) (*fcm.Model[S], []S, error) {
	if !isModelFile(path) {
		return trainText(u, path, cfg.Model.Order)
	}
	m, err := fcm.Load(path, u.codec)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("loaded model",
		zap.String("path", path),
		zap.Int("order", m.Order()),
		zap.Int("contexts", m.Contexts()))
	return m, nil, nil
}

func readSymbols[S comparable](u textUnit[S], path string) ([]S, error) {
	text, err := source.ReadText(path)
	if err != nil {
		return nil, err
	}
	return u.split(text), nil
}

var infoCmd = &cobra.Command{
	Use:   "info QUERY [TARGET]",
	Short: "Print model statistics and the information content of a sequence",
	Long: `Trains a model on QUERY (or loads it when QUERY is a saved model) and
prints the information content of TARGET under it. Without TARGET the
training text itself is scored.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: textCommand(runInfo[rune], runInfo[string], runInfo[byte]),
}

func runInfo[S comparable](cmd *cobra.Command, args []string, u textUnit[S]) error {
	m, seq, err := queryModel(u, args[0])
	if err != nil {
		return err
	}
	target := args[0]
	if len(args) == 2 {
		target = args[1]
		if seq, err = readSymbols(u, target); err != nil {
			return err
		}
	} else if seq == nil {
		return fmt.Errorf("%s is a model, a TARGET text is required", args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "order:       %d\n", m.Order())
	fmt.Fprintf(out, "alpha:       %g\n", m.Alpha())
	fmt.Fprintf(out, "alphabet:    %d\n", m.AlphabetSize())
	fmt.Fprintf(out, "contexts:    %d\n", m.Contexts())
	fmt.Fprintf(out, "target:      %s\n", target)
	fmt.Fprintf(out, "symbols:     %d\n", len(seq))
	fmt.Fprintf(out, "bits:        %.3f\n", m.InformationContent(seq))
	fmt.Fprintf(out, "bits/symbol: %.5f\n", m.AverageInformation(seq))
	fmt.Fprintf(out, "nrc:         %.5f\n", m.NRC(seq))
	return nil
}

var trainOutput string

var trainCmd = &cobra.Command{
	Use:   "train TEXT",
	Short: "Train a model and save it as JSON (.json) or binary (.fcm)",
	Args:  cobra.ExactArgs(1),
	RunE:  textCommand(runTrain[rune], runTrain[string], runTrain[byte]),
}

func runTrain[S comparable](cmd *cobra.Command, args []string, u textUnit[S]) error {
	m, _, err := trainText(u, args[0], cfg.Model.Order)
	if err != nil {
		return err
	}
	if err := fcm.Save(trainOutput, m); err != nil {
		return err
	}
	logger.Info("saved model", zap.String("path", trainOutput))
	return nil
}

var (
	generatePrior  string
	generateLength int
	generateSeed   int64
	generateStages []string
)

var generateCmd = &cobra.Command{
	Use:   "generate QUERY",
	Short: "Generate text by sampling a model",
	Long: `Samples new text from a model trained on QUERY (or loaded from a saved
model). With --stage order@from, several orders are trained on QUERY and each
takes over once the output holds "from" symbols, e.g.

	fcm generate book.txt --stage 1@0 --stage 3@3 --stage 5@5`,
	Args: cobra.ExactArgs(1),
	RunE: textCommand(runGenerate[rune], runGenerate[string], runGenerate[byte]),
}

func runGenerate[S comparable](cmd *cobra.Command, args []string, u textUnit[S]) error {
	length := cfg.Generate.Length
	if cmd.Flags().Changed("length") {
		length = generateLength
	}
	seed := cfg.Generate.Seed
	if cmd.Flags().Changed("seed") {
		seed = generateSeed
	}
	rng := newRand(seed)
	prior := u.split(generatePrior)

	var opts []generate.Option[S]
	if len(u.fallback) > 0 {
		opts = append(opts, generate.WithFallback(u.fallback[0]))
	}

	var out []S
	if len(generateStages) == 0 {
		m, _, err := queryModel(u, args[0])
		if err != nil {
			return err
		}
		g, err := generate.New(m, rng, opts...)
		if err != nil {
			return err
		}
		out = g.Generate(prior, length)
	} else {
		if isModelFile(args[0]) {
			return fmt.Errorf("--stage trains models of several orders and needs a text file, got %s", args[0])
		}
		stages, err := parseStages(generateStages)
		if err != nil {
			return err
		}
		var multi []generate.Stage[S]
		for _, st := range stages {
			m, _, err := trainText(u, args[0], st.order)
			if err != nil {
				return err
			}
			multi = append(multi, generate.Stage[S]{Model: m, From: st.from})
		}
		g, err := generate.NewMulti(multi, rng, opts...)
		if err != nil {
			return err
		}
		out = g.Generate(prior, length)
	}

	fmt.Fprintln(cmd.OutOrStdout(), u.join(out))
	return nil
}

var profileOutput string

var profileCmd = &cobra.Command{
	Use:   "profile QUERY TARGET...",
	Short: "Draw the complexity profile of each TARGET under the QUERY model",
	Args:  cobra.MinimumNArgs(2),
	RunE:  textCommand(runProfile[rune], runProfile[string], runProfile[byte]),
}

func runProfile[S comparable](cmd *cobra.Command, args []string, u textUnit[S]) error {
	m, _, err := queryModel(u, args[0])
	if err != nil {
		return err
	}

	var series []chart.Series
	for _, path := range args[1:] {
		seq, err := readSymbols(u, path)
		if err != nil {
			return err
		}
		series = append(series, chart.Series{Name: filepath.Base(path), Values: m.Profile(seq)})
		logger.Debug("profiled", zap.String("path", path), zap.Int("positions", len(seq)))
	}
	return writeChart(profileOutput, series)
}

func init() {
	trainCmd.Flags().StringVarP(&trainOutput, "output", "o", "model.json", "Model file (.json or .fcm)")

	generateCmd.Flags().StringVarP(&generatePrior, "prior", "p", "", "Text the output starts with")
	generateCmd.Flags().IntVarP(&generateLength, "length", "l", 0, "Number of symbols to generate")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "Random seed")
	generateCmd.Flags().StringArrayVar(&generateStages, "stage", nil, "Model stage as order@from (repeatable)")

	profileCmd.Flags().StringVarP(&profileOutput, "output", "o", "profile.png", "PNG file")
}
