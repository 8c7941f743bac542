package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlexLan73/GPUWorkLib-sub001/internal/device"
	"github.com/AlexLan73/GPUWorkLib-sub001/internal/search3"
)

// SearchConfig represents the root configuration for the spectral search
// pipeline. Fields omitted from the JSON file retain their default values,
// so partial configs are safe.
type SearchConfig struct {
	// Batch planner params
	MemoryUsageLimit *float64 `json:"memory_usage_limit,omitempty"`
	BatchSizeRatio   *float64 `json:"batch_size_ratio,omitempty"`
	MinBeamsForBatch *int     `json:"min_beams_for_batch,omitempty"`

	// Kernel source resolution
	KernelPaths []string `json:"kernel_paths,omitempty"`
	KernelFile  *string  `json:"kernel_file,omitempty"`

	// Signal params
	SampleIntervalSec *float64 `json:"sample_interval_sec,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptySearchConfig returns a SearchConfig with all fields set to nil.
func EmptySearchConfig() *SearchConfig {
	return &SearchConfig{}
}

// LoadSearchConfig loads a SearchConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadSearchConfig(path string) (*SearchConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptySearchConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *SearchConfig) Validate() error {
	if c.MemoryUsageLimit != nil {
		if *c.MemoryUsageLimit <= 0 || *c.MemoryUsageLimit > 1 {
			return fmt.Errorf("memory_usage_limit must be in (0, 1], got %f", *c.MemoryUsageLimit)
		}
	}

	if c.BatchSizeRatio != nil {
		if *c.BatchSizeRatio <= 0 || *c.BatchSizeRatio > 1 {
			return fmt.Errorf("batch_size_ratio must be in (0, 1], got %f", *c.BatchSizeRatio)
		}
	}

	if c.MinBeamsForBatch != nil {
		if *c.MinBeamsForBatch < 1 {
			return fmt.Errorf("min_beams_for_batch must be positive, got %d", *c.MinBeamsForBatch)
		}
	}

	if c.SampleIntervalSec != nil {
		if *c.SampleIntervalSec <= 0 {
			return fmt.Errorf("sample_interval_sec must be positive, got %f", *c.SampleIntervalSec)
		}
	}

	if c.KernelFile != nil && *c.KernelFile == "" {
		return fmt.Errorf("kernel_file must not be empty when set")
	}

	return nil
}

// GetBatchConfig returns the batch planner configuration, falling back to
// the library defaults for any unset field.
func (c *SearchConfig) GetBatchConfig() search3.BatchConfig {
	cfg := search3.DefaultBatchConfig()
	if c.MemoryUsageLimit != nil {
		cfg.MemoryUsageLimit = *c.MemoryUsageLimit
	}
	if c.BatchSizeRatio != nil {
		cfg.BatchSizeRatio = *c.BatchSizeRatio
	}
	if c.MinBeamsForBatch != nil {
		cfg.MinBeamsForBatch = *c.MinBeamsForBatch
	}
	return cfg
}

// GetKernelFile returns the kernel source filename or the default.
func (c *SearchConfig) GetKernelFile() string {
	if c.KernelFile == nil || *c.KernelFile == "" {
		return search3.DefaultKernelFile
	}
	return *c.KernelFile
}

// GetKernelPaths returns the kernel source search paths or the standard
// defaults when none are configured.
func (c *SearchConfig) GetKernelPaths() []string {
	if len(c.KernelPaths) == 0 {
		return device.DefaultSearchPaths()
	}
	return c.KernelPaths
}

// GetSampleIntervalSec returns the sampling interval in seconds or the
// default of 1.0 (frequencies reported in cycles per sample).
func (c *SearchConfig) GetSampleIntervalSec() float64 {
	if c.SampleIntervalSec == nil || *c.SampleIntervalSec <= 0 {
		return 1.0
	}
	return *c.SampleIntervalSec
}
