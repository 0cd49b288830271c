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

	"github.com/MeKo-Tech/beamdec/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the decode API",
	Long: `Start an HTTP server that provides REST and websocket endpoints for
beam search decoding.

The server provides the following endpoints:
  POST /decode        - Decode a single probability matrix
  POST /decode/batch  - Decode a batch of matrices
  WS   /decode/stream - Streaming decode over a websocket
  GET  /alphabet      - Describe the loaded alphabet
  GET  /health        - Health check endpoint
  GET  /metrics       - Prometheus metrics

Examples:
  beamdec serve --alphabet labels.txt
  beamdec serve --alphabet labels.txt --port 8080
  beamdec serve --alphabet labels.txt --host 0.0.0.0 --lm model.arpa`,
	SilenceUsage: true,
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

		maxUploadSize := cfg.Server.MaxUploadMB
		if cmd.Flags().Changed("max-upload-size") {
			maxUploadSize, _ = cmd.Flags().GetInt("max-upload-size")
		}

		timeout := cfg.Server.TimeoutSec
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetInt("timeout")
		}

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}

		decoderCfg := cfg.Decoder
		if cmd.Flags().Changed("beam-width") {
			decoderCfg.BeamWidth, _ = cmd.Flags().GetInt("beam-width")
		}
		if cmd.Flags().Changed("cutoff-prob") {
			decoderCfg.CutoffProb, _ = cmd.Flags().GetFloat64("cutoff-prob")
		}
		if cmd.Flags().Changed("cutoff-top-n") {
			decoderCfg.CutoffTopN, _ = cmd.Flags().GetInt("cutoff-top-n")
		}

		lmCfg := cfg.LM
		if cmd.Flags().Changed("lm") {
			lmCfg.Path, _ = cmd.Flags().GetString("lm")
		}
		if cmd.Flags().Changed("alpha") {
			lmCfg.Alpha, _ = cmd.Flags().GetFloat64("alpha")
		}
		if cmd.Flags().Changed("beta") {
			lmCfg.Beta, _ = cmd.Flags().GetFloat64("beta")
		}
		if cmd.Flags().Changed("char-lm") {
			lmCfg.CharacterBased, _ = cmd.Flags().GetBool("char-lm")
		}

		batchCfg := cfg.Batch
		if cmd.Flags().Changed("workers") {
			batchCfg.Workers, _ = cmd.Flags().GetInt("workers")
		}

		rateLimitEnabled, _ := cmd.Flags().GetBool("rate-limit-enabled")
		requestsPerMinute, _ := cmd.Flags().GetInt("requests-per-minute")
		requestsPerHour, _ := cmd.Flags().GetInt("requests-per-hour")
		maxDataPerDay, _ := cmd.Flags().GetInt64("max-data-per-day")

		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}
		if cfg.AlphabetPath == "" {
			return errors.New("no alphabet file provided (use --alphabet)")
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		serverConfig := server.Config{
			Host:         host,
			Port:         port,
			CORSOrigin:   corsOrigin,
			MaxUploadMB:  int64(maxUploadSize),
			TimeoutSec:   timeout,
			AlphabetPath: cfg.AlphabetPath,
			Decoder:      decoderCfg,
			LM:           lmCfg,
			Batch:        batchCfg,
		}
		if rateLimitEnabled {
			serverConfig.RateLimiter = server.NewRateLimiter(requestsPerMinute, requestsPerHour, maxDataPerDay)
		}

		decodeServer, err := server.NewServer(serverConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		mux := http.NewServeMux()
		decodeServer.SetupRoutes(mux)

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       time.Duration(timeout) * time.Second,
			WriteTimeout:      time.Duration(timeout) * time.Second,
		}

		go func() {
			slog.Info("Starting decode server", "host", host, "port", port)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		} else {
			slog.Info("HTTP server shutdown completed")
		}

		slog.Info("Graceful shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum request body size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	// Decode customization flags
	serveCmd.Flags().IntP("beam-width", "b", 100, "beam width for the prefix search")
	serveCmd.Flags().Float64("cutoff-prob", 1.0, "cumulative probability cutoff for pruning (0..1]")
	serveCmd.Flags().Int("cutoff-top-n", 40, "maximum classes considered per timestep")
	serveCmd.Flags().String("lm", "", "ARPA n-gram language model file")
	serveCmd.Flags().Float64("alpha", 0.93, "language model weight")
	serveCmd.Flags().Float64("beta", 1.18, "word insertion bonus")
	serveCmd.Flags().Bool("char-lm", false, "score the language model per character instead of per word")
	serveCmd.Flags().IntP("workers", "w", 0, "number of batch decode workers (0=all CPUs)")
	// Rate limiting flags
	serveCmd.Flags().Bool("rate-limit-enabled", false, "enable rate limiting")
	serveCmd.Flags().Int("requests-per-minute", 60, "maximum requests per minute per client")
	serveCmd.Flags().Int("requests-per-hour", 1000, "maximum requests per hour per client")
	serveCmd.Flags().Int64("max-data-per-day", 100*1024*1024, "maximum data processed per day per client (bytes)")
}
