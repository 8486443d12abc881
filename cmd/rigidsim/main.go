// rigidsim runs rigid-body scenes headless, live in the terminal, or as a
// websocket stream.
package main

import (
	"fmt"
	"os"

	"rigid3d/internal/engine"
	"rigid3d/internal/physics"
	"rigid3d/internal/scenefile"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rigidsim",
		Short:         "3D rigid-body simulation",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(
		newRunCmd(),
		newStressCmd(),
		newWatchCmd(),
		newServeCmd(),
		newGPUInfoCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// simFlags are shared by every command that steps a scene.
type simFlags struct {
	configPath string
	gpu        bool
	dt         float64
}

func (f *simFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "physics config file (yaml)")
	cmd.Flags().BoolVar(&f.gpu, "gpu", false, "use GPU collision detection when available")
	cmd.Flags().Float64Var(&f.dt, "dt", physics.DefaultFixedTimestep, "frame time passed to each step")
}

// setup loads the scene and builds a world for it. When GPU init fails the
// world stays on the CPU and useGPU comes back false.
func (f *simFlags) setup(scenePath string) (*engine.Scene, *physics.PhysicsWorld, bool, error) {
	cfg := physics.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = physics.LoadConfig(f.configPath); err != nil {
			return nil, nil, false, err
		}
	}
	if f.dt <= 0 {
		return nil, nil, false, fmt.Errorf("invalid --dt %v", f.dt)
	}

	scene, err := scenefile.Load(scenePath)
	if err != nil {
		return nil, nil, false, err
	}

	world := physics.New(cfg)
	useGPU := f.gpu || cfg.UseGPU
	if useGPU {
		if err := world.InitGPU(len(scene.GameObjects)); err != nil {
			fmt.Fprintf(os.Stderr, "GPU unavailable, using CPU: %v\n", err)
			useGPU = false
		}
	}
	return scene, world, useGPU, nil
}
