package physics

import (
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"
)

// Broadphase strategy names accepted by Config.Broadphase.
const (
	BroadphaseGrid  = "grid"
	BroadphaseBrute = "brute"
)

const (
	DefaultFixedTimestep    = 1.0 / 60.0
	DefaultMaxSubsteps      = 4
	DefaultSolverIterations = 8

	// GPUBodyThreshold is the minimum body count before GPU broadphase kicks in.
	// Below this, the CPU grid is faster than the upload and readback.
	GPUBodyThreshold = 256

	// MaxGPUPairs bounds the GPU pair buffer. Pairs past it are dropped.
	MaxGPUPairs = 65536
)

type Config struct {
	Gravity          rl.Vector3 `yaml:"gravity"`
	FixedTimestep    float64    `yaml:"fixed_timestep"`
	MaxSubsteps      int        `yaml:"max_substeps"`
	SolverIterations int        `yaml:"solver_iterations"`
	UseGPU           bool       `yaml:"use_gpu"`
	GPUThreshold     int        `yaml:"gpu_threshold"`
	MaxGPUPairs      int        `yaml:"max_gpu_pairs"`
	Broadphase       string     `yaml:"broadphase"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:          rl.Vector3{X: 0, Y: -9.81, Z: 0},
		FixedTimestep:    DefaultFixedTimestep,
		MaxSubsteps:      DefaultMaxSubsteps,
		SolverIterations: DefaultSolverIterations,
		GPUThreshold:     GPUBodyThreshold,
		MaxGPUPairs:      MaxGPUPairs,
		Broadphase:       BroadphaseGrid,
	}
}

// LoadConfig reads a YAML file over the defaults, so omitted keys keep
// their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read physics config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse physics config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func SaveConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode physics config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write physics config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.FixedTimestep <= 0 {
		return fmt.Errorf("fixed_timestep must be positive, got %v", c.FixedTimestep)
	}
	if c.MaxSubsteps < 1 {
		return fmt.Errorf("max_substeps must be at least 1, got %d", c.MaxSubsteps)
	}
	if c.SolverIterations < 0 {
		return fmt.Errorf("solver_iterations must not be negative, got %d", c.SolverIterations)
	}
	if c.GPUThreshold < 0 {
		return fmt.Errorf("gpu_threshold must not be negative, got %d", c.GPUThreshold)
	}
	if c.MaxGPUPairs < 1 {
		return fmt.Errorf("max_gpu_pairs must be at least 1, got %d", c.MaxGPUPairs)
	}
	switch c.Broadphase {
	case BroadphaseGrid, BroadphaseBrute:
	default:
		return fmt.Errorf("unknown broadphase %q (want %q or %q)", c.Broadphase, BroadphaseGrid, BroadphaseBrute)
	}
	return nil
}
