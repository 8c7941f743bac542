package search3

import (
	"fmt"
	"math"
)

// BatchConfig is the batching policy: how much of the device memory budget a
// batch may use, the target batch size as a fraction of the total beam
// count, and the beam count below which batching is disabled entirely.
// These are configurable policy defaults, not semantic invariants.
type BatchConfig struct {
	// MemoryUsageLimit is the usable fraction of device memory, in (0, 1].
	MemoryUsageLimit float64
	// BatchSizeRatio is the nominal batch size as a fraction of the total
	// beam count, in (0, 1].
	BatchSizeRatio float64
	// MinBeamsForBatch disables batching below this total beam count; all
	// beams then form a single batch.
	MinBeamsForBatch int
}

// DefaultBatchConfig returns the process-wide default batching policy.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MemoryUsageLimit: 0.65,
		BatchSizeRatio:   0.22,
		MinBeamsForBatch: 10,
	}
}

// Validate checks the policy bounds.
func (c BatchConfig) Validate() error {
	if c.MemoryUsageLimit <= 0 || c.MemoryUsageLimit > 1 {
		return fmt.Errorf("%w: memory usage limit %g outside (0, 1]", ErrInvalidParameters, c.MemoryUsageLimit)
	}
	if c.BatchSizeRatio <= 0 || c.BatchSizeRatio > 1 {
		return fmt.Errorf("%w: batch size ratio %g outside (0, 1]", ErrInvalidParameters, c.BatchSizeRatio)
	}
	if c.MinBeamsForBatch < 0 {
		return fmt.Errorf("%w: min beams for batch %d", ErrInvalidParameters, c.MinBeamsForBatch)
	}
	return nil
}

// MemoryModel carries the device memory facts the planner clamps against.
// Zero values mean the information is unavailable and the memory clamp is
// skipped.
type MemoryModel struct {
	// PerBeamBytes is the estimated device footprint of one beam across all
	// batch buffers.
	PerBeamBytes int64
	// AvailableBytes is the total device memory budget.
	AvailableBytes int64
}

// PlanBatches partitions totalBeams into an ordered sequence of batch sizes.
// The sizes sum exactly to totalBeams, every size is at least 1, and beam
// order is preserved across batches. Deterministic for identical inputs.
func PlanBatches(totalBeams int, cfg BatchConfig, mem MemoryModel) ([]int, error) {
	if totalBeams <= 0 {
		return nil, fmt.Errorf("%w: total beams %d", ErrInvalidParameters, totalBeams)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Small workloads skip batching: per-batch overhead would dominate.
	if totalBeams < cfg.MinBeamsForBatch {
		return []int{totalBeams}, nil
	}

	size := int(math.Round(float64(totalBeams) * cfg.BatchSizeRatio))
	if size < 1 {
		size = 1
	}
	if size > totalBeams {
		size = totalBeams
	}

	if mem.PerBeamBytes > 0 && mem.AvailableBytes > 0 {
		budget := cfg.MemoryUsageLimit * float64(mem.AvailableBytes)
		maxBeams := int(budget / float64(mem.PerBeamBytes))
		if maxBeams < 1 {
			maxBeams = 1
		}
		if size > maxBeams {
			size = maxBeams
		}
	}

	sizes := make([]int, 0, totalBeams/size+1)
	for remaining := totalBeams; remaining > 0; remaining -= size {
		n := size
		if n > remaining {
			n = remaining
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}
