// Package engine runs a grounding model over a dataset and reports
// quality metrics.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/visgator-ml/visgator/internal/boxes"
	"github.com/visgator-ml/visgator/internal/config"
	"github.com/visgator-ml/visgator/internal/dataset"
	"github.com/visgator-ml/visgator/internal/device"
	"github.com/visgator-ml/visgator/internal/metrics"
)

// Model localizes the region each caption refers to. Forward returns one
// predicted box per sample, in any coordinate format.
type Model interface {
	Name() string
	Forward(ctx context.Context, b *dataset.Batch) (*boxes.Boxes, error)
}

// Evaluator drives a model over a dataset and accumulates metrics.
type Evaluator struct {
	cfg     config.Config
	model   Model
	data    dataset.Dataset
	tok     *dataset.Tokenizer
	metrics *metrics.Collection
	log     zerolog.Logger
}

// New builds an evaluator. The tokenizer may be nil for caption-free
// models.
func New(cfg config.Config, model Model, data dataset.Dataset, tok *dataset.Tokenizer, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		cfg:     cfg,
		model:   model,
		data:    data,
		tok:     tok,
		metrics: metrics.DefaultCollection(),
		log:     log.With().Str("model", model.Name()).Logger(),
	}
}

// collated is one prefetched unit of work.
type collated struct {
	batch   *dataset.Batch
	targets *boxes.Boxes
}

// Run evaluates the whole dataset and returns the final metric values.
// Batches are collated ahead of the forward pass on a separate goroutine.
func (e *Evaluator) Run(ctx context.Context) (map[string]float64, error) {
	n := e.data.Len()
	if n == 0 {
		return nil, fmt.Errorf("engine: dataset is empty")
	}

	dev, err := e.cfg.ResolveDevice()
	if err != nil {
		return nil, err
	}
	e.log.Info().
		Stringer("device", dev).
		Int("samples", n).
		Int("batch_size", e.cfg.Eval.BatchSize).
		Msg("starting evaluation")

	e.metrics.Reset()
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	work := make(chan collated, e.cfg.Eval.Prefetch)

	g.Go(func() error {
		defer close(work)
		return e.prefetch(ctx, dev, work)
	})

	var done int
	g.Go(func() error {
		for c := range work {
			pred, err := e.model.Forward(ctx, c.batch)
			if err != nil {
				return fmt.Errorf("engine: forward: %w", err)
			}

			pred = pred.ToXYXY().Normalize()
			target := c.targets.ToXYXY().Normalize()
			if err := e.metrics.Update(pred, target); err != nil {
				return err
			}

			done += c.batch.Len()
			e.log.Debug().Int("done", done).Int("total", n).Msg("batch evaluated")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := e.metrics.Compute()
	elapsed := time.Since(start)
	summary := e.log.Info().
		Dur("elapsed", elapsed).
		Float64("samples_per_sec", float64(n)/elapsed.Seconds())
	for name, value := range results {
		summary = summary.Float64(name, value)
	}
	summary.Msg("evaluation finished")

	return results, nil
}

// prefetch loads, collates and ships batches until the dataset is
// exhausted or ctx is cancelled.
func (e *Evaluator) prefetch(ctx context.Context, dev device.Device, work chan<- collated) error {
	n := e.data.Len()
	size := e.cfg.Eval.BatchSize

	for lo := 0; lo < n; lo += size {
		if err := ctx.Err(); err != nil {
			return err
		}

		hi := min(lo+size, n)
		samples := make([]dataset.Sample, 0, hi-lo)
		for i := lo; i < hi; i++ {
			s, err := e.data.Sample(i)
			if err != nil {
				return fmt.Errorf("engine: load sample %d: %w", i, err)
			}
			samples = append(samples, s)
		}

		b, targets, err := dataset.Collate(samples, e.tok)
		if err != nil {
			return fmt.Errorf("engine: collate [%d, %d): %w", lo, hi, err)
		}

		select {
		case work <- collated{batch: b.To(dev), targets: targets.To(dev)}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
