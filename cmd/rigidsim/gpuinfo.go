package main

import (
	"fmt"

	"rigid3d/internal/compute"

	"github.com/spf13/cobra"
)

func newGPUInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gpuinfo",
		Short: "print the GPU adapter and run a smoke kernel",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			info, err := compute.Initialize()
			if err != nil {
				return fmt.Errorf("failed to init compute: %w", err)
			}
			fmt.Fprintf(out, "Adapter: %s\n", info.Name)
			fmt.Fprintf(out, "Vendor:  %s\n", info.Vendor)
			fmt.Fprintf(out, "Backend: %s\n", info.Backend)
			fmt.Fprintf(out, "Type:    %s\n", info.DeviceType)
			if info.Driver != "" {
				fmt.Fprintf(out, "Driver:  %s\n", info.Driver)
			}

			input := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
			output, err := compute.Get().Double(input)
			if err != nil {
				return fmt.Errorf("smoke kernel failed: %w", err)
			}
			fmt.Fprintf(out, "Input:   %v\n", input)
			fmt.Fprintf(out, "Output:  %v\n", output)
			for i := range input {
				if output[i] != input[i]*2 {
					return fmt.Errorf("smoke kernel returned %v at %d, want %v", output[i], i, input[i]*2)
				}
			}
			fmt.Fprintln(out, "Compute OK")
			return nil
		},
	}
}
