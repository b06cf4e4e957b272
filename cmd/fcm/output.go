package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/egonelbre/exp-fcm/chart"
	"github.com/egonelbre/exp-fcm/corpus"
)

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

type stageFlag struct {
	order int
	from  int
}

// parseStages parses order@from pairs.
func parseStages(values []string) ([]stageFlag, error) {
	stages := make([]stageFlag, 0, len(values))
	for _, v := range values {
		order, from, ok := strings.Cut(v, "@")
		if !ok {
			from = "0"
		}
		o, err := strconv.Atoi(order)
		if err != nil {
			return nil, fmt.Errorf("stage %q: invalid order: %w", v, err)
		}
		f, err := strconv.Atoi(from)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("stage %q: invalid start %q", v, from)
		}
		stages = append(stages, stageFlag{order: o, from: f})
	}
	return stages, nil
}

func printResults(w io.Writer, metric string, results []corpus.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\t%s\tname\n", metric)
	for i, r := range results {
		fmt.Fprintf(tw, "%d\t%.5f\t%s\n", i+1, r.Score, r.Name)
	}
	_ = tw.Flush()
}

func printMatrix(w io.Writer, m *corpus.Matrix) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "model \\ target\t")
	for j := range m.Names {
		fmt.Fprintf(tw, "%d\t", j+1)
	}
	fmt.Fprintln(tw)
	for i, row := range m.Scores {
		fmt.Fprintf(tw, "%d %s\t", i+1, m.Names[i])
		for j, s := range row {
			if i == j {
				fmt.Fprint(tw, "-\t")
				continue
			}
			fmt.Fprintf(tw, "%.4f\t", s)
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}

func writeChart(path string, series []chart.Series) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := chart.WritePNG(f, series, chart.DefaultOptions()); err != nil {
		return err
	}
	logger.Info("wrote chart", zap.String("path", path), zap.Int("panels", len(series)))
	return nil
}
