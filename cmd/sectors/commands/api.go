package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sectorpulse/internal/api"
	"github.com/wonny/sectorpulse/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

With SCHEDULE_ENABLED the snapshot job also runs in-process and its
latest result is served from /api/sectors/snapshot.

Endpoints:
  GET  /                       - Liveness message
  GET  /health                 - Health check
  GET  /test                   - Server time
  GET  /api/sectors            - Ranking (?tickers=&date=&bottom=)
  GET  /api/sectors/daily      - Close-to-close diagnostic
  GET  /api/sectors/snapshot   - Latest scheduled ranking

Example:
  go run ./cmd/sectors api
  go run ./cmd/sectors api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== SectorPulse API Server ===")

	// 1. Wire config, logger and the ranking pipeline
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port":     a.cfg.Port,
		"env":      a.cfg.Env,
		"provider": a.data.Name(),
	}).Info("Initializing API server")

	// 2. Create handler
	sectorHandler := handlers.NewSectorHandler(a.clock, a.ranker, a.ranker, a.window, handlers.SectorHandlerConfig{
		DefaultTickers: a.cfg.Scoring.DefaultTickers,
		BottomK:        a.cfg.Scoring.BottomK,
		RequestTimeout: a.cfg.RequestTimeout,
	}, log)

	// 3. Optional in-process scheduler
	if a.cfg.Schedule.Enabled {
		sched, snapshot, err := a.newScheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sectorHandler.WithSnapshot(snapshot)
		sched.Start()
		defer sched.Stop()
	}

	// 4. Create router and server
	router := api.NewRouter(sectorHandler, log)
	server := api.New(a.cfg, log, router)

	// 5. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /test")
	fmt.Println("  GET  /api/sectors")
	fmt.Println("  GET  /api/sectors/daily")
	fmt.Println("  GET  /api/sectors/snapshot")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
