package main

import (
	"rigid3d/internal/viz"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		sim   simFlags
		track string
	)
	cmd := &cobra.Command{
		Use:   "watch [scene]",
		Short: "run a scene with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, world, useGPU, err := sim.setup(args[0])
			if err != nil {
				return err
			}
			defer world.Release()
			return viz.Run(viz.NewModel(world, scene, sim.dt, useGPU, track))
		},
	}
	sim.register(cmd)
	cmd.Flags().StringVar(&track, "track", "", "object whose height is graphed")
	return cmd
}
