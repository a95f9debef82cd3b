// Package metrics accumulates grounding quality measures over an
// evaluation run.
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/visgator-ml/visgator/internal/boxes"
)

// Metric accumulates a scalar over (prediction, target) box pairs.
type Metric interface {
	Name() string
	Update(pred, target *boxes.Boxes) error
	Compute() float64
	Reset()
}

// IoU tracks the mean intersection-over-union.
type IoU struct {
	values []float64
}

// NewIoU returns an empty IoU tracker.
func NewIoU() *IoU { return &IoU{} }

// Name returns the metric name.
func (m *IoU) Name() string { return "IoU" }

// Update appends the pairwise IoU of one batch.
func (m *IoU) Update(pred, target *boxes.Boxes) error {
	v, err := boxes.IoU(pred, target)
	if err != nil {
		return err
	}
	m.values = append(m.values, v...)
	return nil
}

// Compute returns the mean over every pair seen so far.
func (m *IoU) Compute() float64 {
	if len(m.values) == 0 {
		return 0
	}
	return stat.Mean(m.values, nil)
}

// Reset discards the accumulated values.
func (m *IoU) Reset() { m.values = nil }

// GIoU tracks the mean generalized IoU.
type GIoU struct {
	values []float64
}

// NewGIoU returns an empty GIoU tracker.
func NewGIoU() *GIoU { return &GIoU{} }

// Name returns the metric name.
func (m *GIoU) Name() string { return "GIoU" }

// Update appends the pairwise GIoU of one batch.
func (m *GIoU) Update(pred, target *boxes.Boxes) error {
	v, err := boxes.GIoU(pred, target)
	if err != nil {
		return err
	}
	m.values = append(m.values, v...)
	return nil
}

// Compute returns the mean over every pair seen so far.
func (m *GIoU) Compute() float64 {
	if len(m.values) == 0 {
		return 0
	}
	return stat.Mean(m.values, nil)
}

// Reset discards the accumulated values.
func (m *GIoU) Reset() { m.values = nil }

// Accuracy tracks the fraction of pairs whose IoU reaches a threshold.
type Accuracy struct {
	threshold float64
	hits      int
	total     int
}

// NewAccuracy returns an accuracy tracker at the given IoU threshold.
func NewAccuracy(threshold float64) *Accuracy {
	return &Accuracy{threshold: threshold}
}

// Name returns the metric name, e.g. "Accuracy@50".
func (m *Accuracy) Name() string {
	return fmt.Sprintf("Accuracy@%d", int(m.threshold*100))
}

// Update counts the pairs at or above the threshold.
func (m *Accuracy) Update(pred, target *boxes.Boxes) error {
	v, err := boxes.IoU(pred, target)
	if err != nil {
		return err
	}
	for _, iou := range v {
		if iou >= m.threshold {
			m.hits++
		}
	}
	m.total += len(v)
	return nil
}

// Compute returns the hit fraction.
func (m *Accuracy) Compute() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.hits) / float64(m.total)
}

// Reset discards the accumulated counts.
func (m *Accuracy) Reset() {
	m.hits, m.total = 0, 0
}

// Collection is a named set of metrics updated together.
type Collection struct {
	metrics []Metric
}

// DefaultCollection mirrors the standard grounding evaluation set.
func DefaultCollection() *Collection {
	return NewCollection(
		NewIoU(),
		NewGIoU(),
		NewAccuracy(0.5),
		NewAccuracy(0.75),
		NewAccuracy(0.9),
	)
}

// NewCollection groups the given metrics.
func NewCollection(metrics ...Metric) *Collection {
	return &Collection{metrics: metrics}
}

// Update feeds one batch of pairs to every metric.
func (c *Collection) Update(pred, target *boxes.Boxes) error {
	for _, m := range c.metrics {
		if err := m.Update(pred, target); err != nil {
			return fmt.Errorf("metrics: %s: %w", m.Name(), err)
		}
	}
	return nil
}

// Compute returns each metric's current value by name.
func (c *Collection) Compute() map[string]float64 {
	out := make(map[string]float64, len(c.metrics))
	for _, m := range c.metrics {
		out[m.Name()] = m.Compute()
	}
	return out
}

// Reset resets every metric.
func (c *Collection) Reset() {
	for _, m := range c.metrics {
		m.Reset()
	}
}
