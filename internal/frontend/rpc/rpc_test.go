package rpc

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msto63/mbasic/internal/frontend/service"
	"github.com/msto63/mbasic/internal/frontend/store"
	coregrpc "github.com/msto63/mbasic/pkg/core/grpc"
	"github.com/msto63/mbasic/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func quietLogger(name string) *logging.Logger {
	return logging.Wrap(logging.NewLogger(logging.LoggerConfig{
		Format: "json",
		Output: &bytes.Buffer{},
	}), name)
}

func startFrontend(t *testing.T, mutate func(*service.Config)) (*service.Service, *grpc.ClientConn) {
	t.Helper()

	cfg := service.DefaultConfig()
	cfg.TestFile = filepath.Join(t.TempDir(), "test.txt")
	cfg.Logger = quietLogger("frontend")
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := service.NewService(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { svc.Close() })

	srvCfg := coregrpc.DefaultServerConfig()
	srvCfg.Logger = quietLogger("grpc")
	srv := coregrpc.NewServer(srvCfg)
	Register(srv, NewHandler(svc))

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	clientCfg := coregrpc.DefaultClientConfig("passthrough:///bufnet")
	clientCfg.Logger = quietLogger("grpc-client")
	conn, err := coregrpc.Dial(clientCfg,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return svc, conn
}

func TestExecute(t *testing.T) {
	_, conn := startFrontend(t, nil)
	client := NewClient(conn)

	resp, err := client.Execute(context.Background(), "[1, foo]")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !resp.Success || resp.Result != "[1, foo]" || resp.Tokens != 5 {
		t.Errorf("got %+v", resp)
	}
	if got := strings.Join(resp.TokenList, " "); got != "LSQUARE INT COMMA IDENTIFIER RSQUARE EOF" {
		t.Errorf("TokenList = %s", got)
	}
}

func TestExecute_Diagnostics(t *testing.T) {
	_, conn := startFrontend(t, nil)
	client := NewClient(conn)

	resp, err := client.Execute(context.Background(), "[1 2]")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.SyntaxError == "" {
		t.Errorf("syntax error should keep success: %+v", resp)
	}
	if resp.Diagnostic == nil || resp.Diagnostic.Line != 1 || resp.Diagnostic.Column != 4 {
		t.Errorf("diagnostic = %+v", resp.Diagnostic)
	}

	resp, err = client.Execute(context.Background(), "1 $")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Success || !strings.HasPrefix(resp.Error, "Illegal Character: '$'") {
		t.Errorf("lex error = %+v", resp)
	}

	resp, err = client.Execute(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Error != service.MsgEmptyCode {
		t.Errorf("blank = %+v", resp)
	}
}

func TestExecute_TooLong(t *testing.T) {
	_, conn := startFrontend(t, func(c *service.Config) { c.MaxInputLength = 4 })

	_, err := NewClient(conn).Execute(context.Background(), "[1, 2, 3]")
	if status.Code(err) != codes.OutOfRange {
		t.Errorf("code = %v, want OutOfRange (%v)", status.Code(err), err)
	}
}

func TestExecute_InvalidCodeField(t *testing.T) {
	_, conn := startFrontend(t, nil)

	in, _ := structpb.NewStruct(map[string]interface{}{"code": 42.0})
	err := conn.Invoke(context.Background(), MethodExecute, in, new(structpb.Struct))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestExecute_RecordsRequestID(t *testing.T) {
	svc, conn := startFrontend(t, func(c *service.Config) {
		c.EnableHistory = true
		c.HistoryPath = filepath.Join(t.TempDir(), "history.db")
	})

	ctx := coregrpc.WithRequestID(context.Background(), "rpc-req-1")
	resp, err := NewClient(conn).Execute(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	if resp.RunID == "" {
		t.Fatal("run should be recorded")
	}

	run, err := svc.History().Get(context.Background(), resp.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Origin != store.OriginRPC || run.RequestID != "rpc-req-1" {
		t.Errorf("run = %+v", run)
	}
}

func TestTokenize(t *testing.T) {
	_, conn := startFrontend(t, nil)

	resp, err := NewClient(conn).Tokenize(context.Background(), "a\n  [b]")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success || len(resp.Tokens) != 5 {
		t.Fatalf("got %+v", resp)
	}
	lsquare := resp.Tokens[1]
	if lsquare.Kind != "LSQUARE" || lsquare.Line != 2 || lsquare.Column != 3 || lsquare.Offset != 4 {
		t.Errorf("token = %+v", lsquare)
	}
}

func TestHealth(t *testing.T) {
	_, conn := startFrontend(t, nil)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatal(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v", resp.GetStatus())
	}
}
