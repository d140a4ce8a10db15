package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pixspace/internal/metadata"
	"github.com/MeKo-Tech/pixspace/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the spacing API",
	Long: `Start an HTTP server that resolves pixel spacings, rounds values to their
uncertainty and measures lengths.

The server provides the following endpoints:
  GET    /health                - Health check endpoint
  POST   /spacing/resolve       - Resolve the spacing of an image
  POST   /uncertainty/diagonal  - Diagonal of one pixel
  POST   /uncertainty/round     - Round a value to its uncertainty
  POST   /measure               - Measure a length between two handles
  GET    /calibration           - List calibrations
  DELETE /calibration           - Remove all calibrations
  GET|PUT|DELETE /calibration/{id}
  GET    /ws/measure            - WebSocket measurement stream
  GET    /metrics               - Prometheus metrics

Examples:
  pixspace serve
  pixspace serve --port 8080 --descriptors study.yaml
  pixspace serve --host 0.0.0.0 --port 3000 --calibrations cal.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		corsOrigin := cfg.Server.CORSOrigin
		if cmd.Flags().Changed("cors-origin") {
			corsOrigin, _ = cmd.Flags().GetString("cors-origin")
		}

		maxBodyKB := cfg.Server.MaxBodyKB
		if cmd.Flags().Changed("max-body-kb") {
			maxBodyKB, _ = cmd.Flags().GetInt("max-body-kb")
		}

		timeout := cfg.Server.TimeoutSec
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetInt("timeout")
		}

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}

		rateLimit := cfg.Server.RateLimit
		if cmd.Flags().Changed("requests-per-minute") {
			rateLimit.RequestsPerMinute, _ = cmd.Flags().GetInt("requests-per-minute")
		}
		if cmd.Flags().Changed("requests-per-hour") {
			rateLimit.RequestsPerHour, _ = cmd.Flags().GetInt("requests-per-hour")
		}
		if cmd.Flags().Changed("requests-per-day") {
			rateLimit.RequestsPerDay, _ = cmd.Flags().GetInt("requests-per-day")
		}

		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}

		descriptorFiles, _ := cmd.Flags().GetStringSlice("descriptors")
		descriptors, err := loadServerDescriptors(cmd.Context(), descriptorFiles)
		if err != nil {
			return err
		}

		store, err := loadCalibrations(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		srv, err := server.NewServer(server.Config{
			Host:              host,
			Port:              port,
			CORSOrigin:        corsOrigin,
			MaxBodyKB:         maxBodyKB,
			TimeoutSec:        timeout,
			DecimalPrecision:  cfg.Decimal.Precision,
			Calibrations:      store,
			CalibrationFile:   cfg.Calibration.File,
			Descriptors:       descriptors,
			RequestsPerMinute: rateLimit.RequestsPerMinute,
			RequestsPerHour:   rateLimit.RequestsPerHour,
			RequestsPerDay:    rateLimit.RequestsPerDay,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		mux := http.NewServeMux()
		srv.SetupRoutes(mux)

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       time.Duration(timeout) * time.Second,
			WriteTimeout:      time.Duration(timeout) * time.Second,
		}

		go func() {
			slog.Info("Starting pixspace server", "host", host, "port", port,
				"descriptors", descriptors.Len(), "calibrations", store.Len())
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}

		if err := srv.Close(); err != nil {
			slog.Error("Server cleanup error", "error", err)
			return err
		}

		slog.Info("Graceful shutdown completed")
		return nil
	},
}

// loadServerDescriptors reads every image of the given descriptor files into memory.
func loadServerDescriptors(ctx context.Context, paths []string) (*metadata.Memory, error) {
	mem := metadata.NewMemory()
	for _, p := range paths {
		provider, err := metadata.Open(p)
		if err != nil {
			return nil, err
		}

		if f, ok := provider.(*metadata.YAMLFile); ok {
			for _, id := range f.IDs() {
				d, err := f.Descriptor(ctx, id)
				if err != nil {
					return nil, err
				}
				mem.Put(d)
			}
			continue
		}

		d, err := provider.Descriptor(ctx, "")
		if err != nil {
			return nil, err
		}
		mem.Put(d)
	}
	return mem, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-body-kb", 256, "maximum request body size in KB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().StringSlice("descriptors", nil, "descriptor or DICOM files whose images can be referenced by id")
	serveCmd.Flags().Int("requests-per-minute", 0, "maximum requests per minute per client (0 disables)")
	serveCmd.Flags().Int("requests-per-hour", 0, "maximum requests per hour per client (0 disables)")
	serveCmd.Flags().Int("requests-per-day", 0, "maximum requests per day per client (0 disables)")
}
