package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/msto63/mbasic/internal/frontend/metrics"
	"github.com/msto63/mbasic/internal/frontend/rpc"
	"github.com/msto63/mbasic/internal/frontend/server"
	"github.com/msto63/mbasic/pkg/core/config"
	coregrpc "github.com/msto63/mbasic/pkg/core/grpc"
	"github.com/msto63/mbasic/pkg/core/health"
	"github.com/msto63/mbasic/pkg/core/logging"
	"github.com/msto63/mbasic/pkg/core/version"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
	healthInterval  = 15 * time.Second
)

// webFilename is reported in diagnostics of code submitted over the network
const webFilename = "<web>"

var (
	serveHost     string
	servePort     int
	serveGRPC     bool
	serveGRPCPort int
	serveHistory  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web front-end",
	Long: `Starts the web front-end: the editor page, the HTTP API, the
live-token WebSocket, health and Prometheus metrics. With --grpc the
mbasic.v1.Frontend gRPC service is started as well.

Routes:
  GET  /                  editor page
  POST /execute           {"code": "..."}
  POST /execute_file      run the configured test file
  POST /api/v1/tokenize   {"code": "..."}
  GET  /api/v1/history    recorded runs
  GET  /ws                WebSocket (execute, tokenize, ping)
  GET  /health            health report
  GET  /metrics           Prometheus metrics

Examples:
  mbasic serve
  mbasic serve --port 8080 --grpc --history`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "HTTP listen host (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP listen port (default from config)")
	serveCmd.Flags().BoolVar(&serveGRPC, "grpc", false, "also start the gRPC service")
	serveCmd.Flags().IntVar(&serveGRPCPort, "grpc-port", 0, "gRPC listen port (default from config)")
	serveCmd.Flags().BoolVar(&serveHistory, "history", false, "record runs in the history database")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := logging.New("serve")

	cfg := *appConfig
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = serveHost
	}
	if flags.Changed("port") {
		cfg.Server.Port = servePort
	}
	if flags.Changed("grpc") {
		cfg.GRPC.Enabled = serveGRPC
	}
	if flags.Changed("grpc-port") {
		cfg.GRPC.Port = serveGRPCPort
	}
	if flags.Changed("history") {
		cfg.History.Enabled = serveHistory
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	maxRequestSize, err := config.ParseSize(cfg.Server.MaxRequestSize)
	if err != nil {
		return err
	}

	m := metrics.New()
	svc, err := newService(&cfg, webFilename, m)
	if err != nil {
		return err
	}
	defer svc.Close()

	httpServer, err := server.New(server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout.Duration,
		WriteTimeout:   cfg.Server.WriteTimeout.Duration,
		Version:        version.Server,
		MaxRequestSize: maxRequestSize,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
	}, svc, m)
	if err != nil {
		return err
	}
	if err := httpServer.StartAsync(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "mBASIC web front-end on http://%s\n", httpServer.Address())

	var grpcServer *coregrpc.Server
	if cfg.GRPC.Enabled {
		grpcCfg := coregrpc.DefaultServerConfig()
		grpcCfg.Host = cfg.GRPC.Host
		grpcCfg.Port = cfg.GRPC.Port
		grpcCfg.EnableReflection = cfg.GRPC.EnableReflection

		grpcServer = coregrpc.NewServer(grpcCfg)
		rpc.Register(grpcServer, rpc.NewHandler(svc))
		if err := grpcServer.StartAsync(); err != nil {
			stopHTTP(httpServer, logger)
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "mBASIC gRPC service on %s\n", grpcServer.Address())

		go httpServer.HealthRegistry().Watch(ctx, healthInterval, func(r *health.Report) {
			grpcServer.SetServing(rpc.ServiceName, r.Healthy())
			if !r.Healthy() {
				logger.Warn("Front-end unhealthy", "report", r.String())
			}
		})
	}

	<-ctx.Done()
	logger.Info("Shutting down")

	if grpcServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		grpcServer.StopWithTimeout(shutdownCtx)
		cancel()
	}
	return stopHTTP(httpServer, logger)
}

func stopHTTP(s *server.Server, logger *logging.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
		return err
	}
	return nil
}
