package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"rigid3d/internal/stream"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		sim  simFlags
		addr string
		hz   int
	)
	cmd := &cobra.Command{
		Use:   "serve [scene]",
		Short: "step a scene in real time and stream snapshots over websocket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if hz <= 0 {
				return fmt.Errorf("invalid --hz %d", hz)
			}
			scene, world, useGPU, err := sim.setup(args[0])
			if err != nil {
				return err
			}
			defer world.Release()

			hub := stream.NewHub()
			defer hub.Close()
			mux := http.NewServeMux()
			mux.Handle("/ws", hub)
			server := &http.Server{Addr: addr, Handler: mux}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			serveErr := make(chan error, 1)
			go func() {
				log.Printf("Stream: serving %s on ws://%s/ws at %d Hz", scene.Name, addr, hz)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			runErr := make(chan error, 1)
			go func() { runErr <- stream.Run(ctx, hub, world, scene, hz, useGPU) }()

			select {
			case err := <-serveErr:
				stop()
				<-runErr
				if err != nil {
					return fmt.Errorf("failed to serve: %w", err)
				}
				return nil
			case err := <-runErr:
				if err != nil {
					return err
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
	sim.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")
	cmd.Flags().IntVar(&hz, "hz", 60, "steps per second")
	return cmd
}
