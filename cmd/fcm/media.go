package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/egonelbre/exp-fcm/config"
	"github.com/egonelbre/exp-fcm/corpus"
	"github.com/egonelbre/exp-fcm/fcm"
	"github.com/egonelbre/exp-fcm/ncd"
	"github.com/egonelbre/exp-fcm/quant"
	"github.com/egonelbre/exp-fcm/source"
	"github.com/egonelbre/exp-fcm/spatial"
)

var (
	audioExts = []string{".wav"}
	imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}
)

// readAudio decodes a WAV file into quantized samples.
func readAudio(path string) ([]int, error) {
	a, err := source.ReadWAV(path)
	if err != nil {
		return nil, err
	}
	return quant.Samples(a.Samples, cfg.Audio.Levels), nil
}

// readGrid decodes an image into a grid of quantized intensities.
func readGrid(path string) (*spatial.Grid, error) {
	img, err := source.ReadImage(path)
	if err != nil {
		return nil, err
	}
	return spatial.FromImage(img, cfg.Image.Levels)
}

// levelBytes stores one quantized level per byte for the compressors.
func levelBytes(levels []int) []byte {
	data := make([]byte, len(levels))
	for i, v := range levels {
		data[i] = byte(v)
	}
	return data
}

// oracleScore scores records by the compression distance of their bytes
// to query.
func oracleScore[T any](query []byte, data func(T) []byte) (corpus.ScoreFunc[T], error) {
	o, err := ncd.Lookup(cfg.Compare.Compressor)
	if err != nil {
		return nil, err
	}
	q, err := ncd.NewQuery(o, query)
	if err != nil {
		return nil, err
	}
	return func(rec corpus.Record[T]) (float64, error) {
		return q.Distance(data(rec.Data))
	}, nil
}

func scanMedia[T any](cmd *cobra.Command, dir string, exts []string, load func(string) (T, error), score corpus.ScoreFunc[T], metric string) error {
	records, errs := corpus.ScanDir(dir, exts, load, logger)
	if len(errs) > 0 {
		logger.Warn("some files were skipped", zap.Int("skipped", len(errs)))
	}
	if len(records) == 0 {
		return fmt.Errorf("no readable files in %s", dir)
	}

	results, err := comparator[T]().Rank(contextOrBackground(cmd), records, score)
	if err != nil {
		return err
	}
	printResults(cmd.OutOrStdout(), metric, results)
	return nil
}

var audioCmd = &cobra.Command{
	Use:   "audio QUERY DIR",
	Short: "Rank the WAV files of DIR by similarity to QUERY",
	Long: `Quantizes the samples of every WAV file into --levels buckets. In nrc mode
a model of the configured order is trained on QUERY and each file is scored
by bits / (samples * log2(levels)); in ncd mode the quantized samples are
compared with the configured compressor.`,
	Args: cobra.ExactArgs(2),
	RunE: runAudio,
}

func runAudio(cmd *cobra.Command, args []string) error {
	query, err := readAudio(args[0])
	if err != nil {
		return err
	}
	levels := cfg.Audio.Levels

	var (
		score  corpus.ScoreFunc[[]int]
		metric string
	)
	if cfg.Compare.Mode == config.NCD {
		score, err = oracleScore(levelBytes(query), levelBytes)
		if err != nil {
			return err
		}
		metric = "ncd-" + cfg.Compare.Compressor
	} else {
		m, err := fcm.New(cfg.Model.Order, cfg.Model.Alpha, fcm.Levels)
		if err != nil {
			return err
		}
		m.TrainAll(query)
		logger.Info("trained audio model",
			zap.Int("samples", len(query)),
			zap.Int("levels", levels),
			zap.Int("contexts", m.Contexts()))

		score = func(rec corpus.Record[[]int]) (float64, error) {
			return quant.NRC(m.InformationContent(rec.Data), len(rec.Data), levels), nil
		}
		metric = "nrc"
	}
	return scanMedia(cmd, args[1], audioExts, readAudio, score, metric)
}

var imageCmd = &cobra.Command{
	Use:   "image QUERY DIR",
	Short: "Rank the images of DIR by similarity to QUERY",
	Long: `Converts every image to gray levels quantized into --levels buckets. In
nrc mode a mixture of causal neighborhood models (orders 2, 4 and 6 by
default) is trained on QUERY and each image is scored by
bits / (pixels * log2(levels)); in ncd mode the quantized pixels are compared
with the configured compressor.`,
	Args: cobra.ExactArgs(2),
	RunE: runImage,
}

func runImage(cmd *cobra.Command, args []string) error {
	query, err := readGrid(args[0])
	if err != nil {
		return err
	}

	var (
		score  corpus.ScoreFunc[*spatial.Grid]
		metric string
	)
	if cfg.Compare.Mode == config.NCD {
		score, err = oracleScore(query.Bytes(), (*spatial.Grid).Bytes)
		if err != nil {
			return err
		}
		metric = "ncd-" + cfg.Compare.Compressor
	} else {
		mix, err := spatial.NewMixture(cfg.Model.Alpha, cfg.Image.Gamma, cfg.Image.Orders...)
		if err != nil {
			return err
		}
		mix.Train(query)
		logger.Info("trained image mixture",
			zap.Ints("orders", mix.Orders()),
			zap.Float64("gamma", mix.Gamma()),
			zap.Int("pixels", query.Len()))

		score = func(rec corpus.Record[*spatial.Grid]) (float64, error) {
			return mix.NRC(rec.Data), nil
		}
		metric = "nrc"
	}
	return scanMedia(cmd, args[1], imageExts, readGrid, score, metric)
}
