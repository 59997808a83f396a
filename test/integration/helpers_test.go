package integration

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/msto63/mbasic/internal/frontend/metrics"
	"github.com/msto63/mbasic/internal/frontend/rpc"
	"github.com/msto63/mbasic/internal/frontend/server"
	"github.com/msto63/mbasic/internal/frontend/service"
	coregrpc "github.com/msto63/mbasic/pkg/core/grpc"
	"github.com/msto63/mbasic/pkg/core/logging"
	"google.golang.org/grpc"
)

// TestConfig holds the addresses under test. When TEST_MBASIC_HTTP_ADDR
// is set the tests run against an already running "mbasic serve --grpc
// --history"; otherwise the stack is started in-process.
type TestConfig struct {
	HTTPAddr string
	GRPCAddr string
	External bool
}

func getTestConfig(t *testing.T) TestConfig {
	t.Helper()
	if addr := os.Getenv("TEST_MBASIC_HTTP_ADDR"); addr != "" {
		cfg := TestConfig{
			HTTPAddr: addr,
			GRPCAddr: getEnv("TEST_MBASIC_GRPC_ADDR", "localhost:9400"),
			External: true,
		}
		skipIfServiceUnavailable(t, cfg.HTTPAddr, "HTTP")
		return cfg
	}
	return startStack(t)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// startStack runs the HTTP and gRPC front-ends on loopback ports
func startStack(t *testing.T) TestConfig {
	t.Helper()
	dir := t.TempDir()
	quiet := func(name string) *logging.Logger {
		return logging.Wrap(logging.NewLogger(logging.LoggerConfig{Format: "json", Output: &bytes.Buffer{}}), name)
	}

	m := metrics.New()
	svcCfg := service.DefaultConfig()
	svcCfg.TestFile = filepath.Join(dir, "test.txt")
	svcCfg.EnableHistory = true
	svcCfg.HistoryPath = filepath.Join(dir, "history.db")
	svcCfg.Metrics = m
	svcCfg.Logger = quiet("frontend")
	svc, err := service.NewService(svcCfg)
	requireNoError(t, err, "NewService failed")
	t.Cleanup(func() { svc.Close() })

	httpCfg := server.DefaultConfig()
	httpCfg.Host = "127.0.0.1"
	httpCfg.Port = 0
	httpServer, err := server.New(httpCfg, svc, m)
	requireNoError(t, err, "server.New failed")
	requireNoError(t, httpServer.StartAsync(), "HTTP StartAsync failed")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Stop(ctx)
	})

	grpcCfg := coregrpc.DefaultServerConfig()
	grpcCfg.Host = "127.0.0.1"
	grpcCfg.Port = 0
	grpcCfg.Logger = quiet("grpc")
	grpcServer := coregrpc.NewServer(grpcCfg)
	rpc.Register(grpcServer, rpc.NewHandler(svc))
	requireNoError(t, grpcServer.StartAsync(), "gRPC StartAsync failed")
	t.Cleanup(grpcServer.Stop)

	return TestConfig{
		HTTPAddr: httpServer.Address(),
		GRPCAddr: grpcServer.Address(),
	}
}

// skipIfServiceUnavailable skips the test if the service is not reachable
func skipIfServiceUnavailable(t *testing.T, addr string, serviceName string) {
	t.Helper()
	if !isServiceAvailable(addr) {
		t.Skipf("Skipping: %s service not available at %s", serviceName, addr)
	}
}

// isServiceAvailable checks if a TCP connection can be established
func isServiceAvailable(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// dialGRPC creates a gRPC client connection
func dialGRPC(t *testing.T, addr string) *grpc.ClientConn {
	t.Helper()

	conn, err := coregrpc.DialSimple(addr)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", addr, err)
	}

	t.Cleanup(func() {
		conn.Close()
	})

	return conn
}

// testContext returns a context with timeout for tests
func testContext(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

// requireNoError fails the test if err is not nil
func requireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// requireTrue fails the test if condition is false
func requireTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Fatalf("Expected true: %s", msg)
	}
}

// requireEqual fails the test if expected != actual
func requireEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// logTestStart logs the start of a test with the transport under test
func logTestStart(t *testing.T, transport, testName string) {
	t.Helper()
	t.Logf("=== %s: %s ===", transport, testName)
}
