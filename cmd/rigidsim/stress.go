package main

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"rigid3d/internal/components"
	"rigid3d/internal/compute"
	"rigid3d/internal/physics"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

const stressIterations = 10

type stressResult struct {
	count                int
	grid, brute, gpu     time.Duration
	gridPairs, brutePair int
	gpuPairs             int
	gpuErr               error
}

func newStressCmd() *cobra.Command {
	var (
		counts []int
		seed   int64
		noGPU  bool
	)
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "compare broadphase strategies on random spheres",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			useGPU := !noGPU
			if useGPU {
				info, err := compute.Initialize()
				if err != nil {
					fmt.Fprintf(out, "GPU unavailable: %v\n\n", err)
					useGPU = false
				} else {
					fmt.Fprintf(out, "GPU: %s | %s | %s\n\n", info.Backend, info.Vendor, info.Name)
				}
			}

			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%7s  %12s  %12s  %12s  %s", "bodies", "grid", "brute", "gpu", "pairs")))
			var results []stressResult
			mismatch := false
			for _, n := range counts {
				r := stressBroadphase(n, seed, useGPU)
				results = append(results, r)
				if !printStressRow(out, r, useGPU) {
					mismatch = true
				}
			}

			if len(results) > 1 {
				plotStress(out, results, useGPU)
			}
			if mismatch {
				return fmt.Errorf("broadphase strategies disagree")
			}
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&counts, "counts", []int{100, 500, 1000, 2000, 5000}, "body counts to test")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	cmd.Flags().BoolVar(&noGPU, "no-gpu", false, "skip the GPU broadphase")
	return cmd
}

// randomProxies spawns spheres in a cube whose size scales with count to
// keep density reasonable.
func randomProxies(count int, seed int64) []physics.Proxy {
	rng := rand.New(rand.NewSource(seed))
	spawnSize := float32(50.0) + float32(count)/100.0

	proxies := make([]physics.Proxy, count)
	for i := range proxies {
		center := rl.Vector3{
			X: rng.Float32()*spawnSize - spawnSize/2,
			Y: rng.Float32()*spawnSize - spawnSize/2,
			Z: rng.Float32()*spawnSize - spawnSize/2,
		}
		r := 0.5 + rng.Float32()*0.5
		proxies[i] = physics.Proxy{
			ID:       uint64(i + 1),
			Index:    i,
			AABB:     physics.NewAABBFromCenter(center, rl.Vector3{X: r, Y: r, Z: r}),
			BodyType: components.Dynamic,
		}
	}
	return proxies
}

func timeIt(fn func() int) (time.Duration, int) {
	fn() // warm up
	var n int
	start := time.Now()
	for i := 0; i < stressIterations; i++ {
		n = fn()
	}
	return time.Since(start) / stressIterations, n
}

func stressBroadphase(count int, seed int64, useGPU bool) stressResult {
	proxies := randomProxies(count, seed)
	r := stressResult{count: count}

	grid := physics.NewSpatialHashGrid()
	r.grid, r.gridPairs = timeIt(func() int { return len(grid.FindPairs(proxies)) })
	r.brute, r.brutePair = timeIt(func() int { return len(physics.BruteForce{}.FindPairs(proxies)) })

	if !useGPU {
		return r
	}
	gp, err := compute.NewPhysics(count, compute.MaxPairs)
	if err != nil {
		r.gpuErr = err
		return r
	}
	defer gp.Release()

	aabbs := make([]compute.GpuAabb, len(proxies))
	for i, p := range proxies {
		aabbs[i] = compute.GpuAabb{
			Min:         [3]float32{p.AABB.Min.X, p.AABB.Min.Y, p.AABB.Min.Z},
			EntityIndex: uint32(i),
			Max:         [3]float32{p.AABB.Max.X, p.AABB.Max.Y, p.AABB.Max.Z},
			BodyType:    compute.BodyDynamic,
		}
	}
	r.gpu, r.gpuPairs = timeIt(func() int {
		pairs, err := gp.DetectPairs(aabbs, 2)
		if err != nil {
			r.gpuErr = err
		}
		return len(pairs)
	})
	return r
}

// printStressRow reports whether the strategies agreed.
func printStressRow(out io.Writer, r stressResult, useGPU bool) bool {
	gpu := "-"
	switch {
	case r.gpuErr != nil:
		gpu = "error"
	case useGPU:
		gpu = r.gpu.Round(time.Microsecond).String()
	}
	ok := r.gridPairs == r.brutePair
	if useGPU && r.gpuErr == nil && r.gpuPairs < compute.MaxPairs {
		ok = ok && r.gpuPairs == r.gridPairs
	}
	status := ""
	if !ok {
		status = fmt.Sprintf("  MISMATCH (brute %d, gpu %d)", r.brutePair, r.gpuPairs)
	}
	fmt.Fprintf(out, "%7d  %12v  %12v  %12s  %d%s\n", r.count,
		r.grid.Round(time.Microsecond), r.brute.Round(time.Microsecond), gpu, r.gridPairs, status)
	if r.gpuErr != nil {
		fmt.Fprintf(out, "         gpu: %v\n", r.gpuErr)
	}
	return ok
}

func plotStress(out io.Writer, results []stressResult, useGPU bool) {
	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
	series := [][]float64{make([]float64, len(results)), make([]float64, len(results))}
	for i, r := range results {
		series[0][i] = ms(r.grid)
		series[1][i] = ms(r.brute)
	}
	colors := []asciigraph.AnsiColor{asciigraph.Green, asciigraph.Red}
	caption := "ms per pass: grid (green), brute (red)"
	if useGPU {
		gpu := make([]float64, len(results))
		for i, r := range results {
			gpu[i] = ms(r.gpu)
		}
		series = append(series, gpu)
		colors = append(colors, asciigraph.Blue)
		caption += ", gpu (blue)"
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, asciigraph.PlotMany(series,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	))
}
