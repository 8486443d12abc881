package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"
	"rigid3d/internal/physics"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		sim   simFlags
		steps int
		track string
		plot  bool
	)
	cmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "step a scene headless and print the final state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 0 {
				return fmt.Errorf("invalid --steps %d", steps)
			}
			scene, world, useGPU, err := sim.setup(args[0])
			if err != nil {
				return err
			}
			defer world.Release()

			var tracked *engine.GameObject
			if track != "" {
				if tracked = scene.FindByName(track); tracked == nil {
					return fmt.Errorf("no object named %q in scene", track)
				}
			}

			collisions := 0
			world.OnCollisionEnter.AddListener(func(physics.CollisionEvent) { collisions++ })

			out := cmd.OutOrStdout()
			heights := make([]float64, 0, steps)
			substeps := 0
			start := time.Now()
			for i := 0; i < steps; i++ {
				if useGPU {
					substeps += world.StepGPU(scene, sim.dt)
				} else {
					substeps += world.Step(scene, sim.dt)
				}
				if tracked != nil {
					heights = append(heights, float64(tracked.Transform.Position.Y))
				}
			}
			elapsed := time.Since(start)

			fmt.Fprintf(out, "%s: %d steps (%d substeps) in %v, %d collisions\n",
				scene.Name, steps, substeps, elapsed.Round(time.Microsecond), collisions)
			printStats(out, world.Stats())
			printBodies(out, scene)

			if plot && len(heights) > 1 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, asciigraph.Plot(heights,
					asciigraph.Height(10),
					asciigraph.Width(70),
					asciigraph.Caption(track+" height"),
				))
			}
			return nil
		},
	}
	sim.register(cmd)
	cmd.Flags().IntVar(&steps, "steps", 300, "number of steps")
	cmd.Flags().StringVar(&track, "track", "", "object whose height is recorded")
	cmd.Flags().BoolVar(&plot, "plot", false, "plot the tracked object's height")
	return cmd
}

func printStats(out io.Writer, s physics.Stats) {
	backend := "CPU"
	if s.UsingGPU {
		backend = "GPU"
	}
	fmt.Fprintf(out, "backend %s | pairs %d | contacts %d | dynamic %d | sleeping %d\n",
		backend, s.PairCount, s.ContactCount, s.DynamicCount, s.SleepingCount)
}

func printBodies(out io.Writer, scene *engine.Scene) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tPOSITION\tVELOCITY\tSLEEPING")
	for _, g := range scene.GameObjects {
		rb := engine.GetComponent[*components.Rigidbody](g)
		if rb == nil {
			continue
		}
		p, v := g.Transform.Position, rb.LinearVelocity
		fmt.Fprintf(w, "%s\t%s\t(%.3f, %.3f, %.3f)\t(%.3f, %.3f, %.3f)\t%v\n",
			g.Name, rb.BodyType, p.X, p.Y, p.Z, v.X, v.Y, v.Z, rb.IsSleeping)
	}
	w.Flush()
}
