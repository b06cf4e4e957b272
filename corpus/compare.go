package corpus

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is the score of one corpus record. Lower scores are more similar.
type Result struct {
	// Index is the position of the record among the candidates.
	Index int
	Name  string
	Score float64
}

// ScoreFunc computes the metric of a single record.
type ScoreFunc[T any] func(rec Record[T]) (float64, error)

// Comparator scores every record of a corpus and ranks the results.
type Comparator[T any] struct {
	// Workers limits the number of records scored concurrently.
	// Zero or one scores sequentially.
	Workers int
	// TopK limits the number of returned results, zero or less returns all.
	TopK int
	Log  *zap.Logger
}

func (c Comparator[T]) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func (c Comparator[T]) limit() int {
	if c.Workers <= 1 {
		return 1
	}
	return c.Workers
}

// Rank scores all candidates and returns them sorted ascending by score.
// Equal scores keep corpus order. The first scoring error stops the pool
// and is returned.
func (c Comparator[T]) Rank(ctx context.Context, candidates []Record[T], score ScoreFunc[T]) ([]Result, error) {
	scores, err := c.scoreAll(ctx, candidates, score)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(candidates))
	for i, rec := range candidates {
		results[i] = Result{Index: i, Name: rec.Name, Score: scores[i]}
	}
	Sort(results)

	if c.TopK > 0 && len(results) > c.TopK {
		results = results[:c.TopK]
	}
	c.logger().Info("ranked corpus",
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(results)))
	return results, nil
}

func (c Comparator[T]) scoreAll(ctx context.Context, candidates []Record[T], score ScoreFunc[T]) ([]float64, error) {
	log := c.logger()
	scores := make([]float64, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit())
	for i, rec := range candidates {
		i, rec := i, rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := score(rec)
			if err != nil {
				return fmt.Errorf("%s: %w", rec.Name, err)
			}
			scores[i] = s
			log.Debug("scored record", zap.String("name", rec.Name), zap.Float64("score", s))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}

// Sort orders results ascending by score, keeping the order of equal
// scores. NaN scores sort last.
func Sort(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return less(results[i].Score, results[j].Score)
	})
}

func less(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a < b
}

// Filter returns the results whose score is below threshold, in order.
func Filter(results []Result, threshold float64) []Result {
	var kept []Result
	for _, r := range results {
		if r.Score < threshold {
			kept = append(kept, r)
		}
	}
	return kept
}

// Select returns the candidates referenced by results, in result order.
func Select[T any](candidates []Record[T], results []Result) []Record[T] {
	subset := make([]Record[T], 0, len(results))
	for _, r := range results {
		subset = append(subset, candidates[r.Index])
	}
	return subset
}

// Matrix holds all-pairs scores: Scores[i][j] is the score of record j
// under the model trained on record i. The diagonal is left at zero.
type Matrix struct {
	Names  []string
	Scores [][]float64
}

// Analyze trains one model per record of subset and scores every other
// record against it. train returns the scoring function backed by the
// trained model; models are trained concurrently up to Workers.
func (c Comparator[T]) Analyze(ctx context.Context, subset []Record[T], train func(Record[T]) (ScoreFunc[T], error)) (*Matrix, error) {
	log := c.logger()
	m := &Matrix{
		Names:  make([]string, len(subset)),
		Scores: make([][]float64, len(subset)),
	}
	for i, rec := range subset {
		m.Names[i] = rec.Name
		m.Scores[i] = make([]float64, len(subset))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit())
	for i, rec := range subset {
		i, rec := i, rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			score, err := train(rec)
			if err != nil {
				return fmt.Errorf("train %s: %w", rec.Name, err)
			}
			for j, other := range subset {
				if i == j {
					continue
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				s, err := score(other)
				if err != nil {
					return fmt.Errorf("%s against %s: %w", other.Name, rec.Name, err)
				}
				m.Scores[i][j] = s
			}
			log.Debug("analyzed record", zap.String("name", rec.Name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
