package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/msto63/mbasic/internal/frontend/metrics"
	"github.com/msto63/mbasic/internal/frontend/service"
	"github.com/msto63/mbasic/internal/frontend/store"
	"github.com/msto63/mbasic/pkg/core/health"
	"github.com/msto63/mbasic/pkg/core/logging"
)

type testEnv struct {
	server  *Server
	service *service.Service
	metrics *metrics.Metrics
	dir     string
}

func newTestEnv(t *testing.T, mutateSvc func(*service.Config), mutateSrv func(*Config)) *testEnv {
	t.Helper()
	dir := t.TempDir()

	m := metrics.New()
	svcCfg := service.DefaultConfig()
	svcCfg.TestFile = filepath.Join(dir, "test.txt")
	svcCfg.Metrics = m
	svcCfg.Logger = logging.Wrap(logging.NewLogger(logging.LoggerConfig{
		Format: "json",
		Output: &bytes.Buffer{},
	}), "frontend")
	if mutateSvc != nil {
		mutateSvc(&svcCfg)
	}
	svc, err := service.NewService(svcCfg)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	cfg := DefaultConfig()
	cfg.Port = 0
	if mutateSrv != nil {
		mutateSrv(&cfg)
	}
	srv, err := New(cfg, svc, m)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &testEnv{server: srv, service: svc, metrics: m, dir: dir}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
}

func TestNew_RequiresService(t *testing.T) {
	if _, err := New(DefaultConfig(), nil, nil); err == nil {
		t.Error("New() without service should fail")
	}
}

func TestServer_Index(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `id="codeInput"`) {
		t.Error("index page is missing the editor")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	rec = env.do(t, http.MethodGet, "/static/script.js", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/execute") {
		t.Errorf("script.js: status %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rec.Code)
	}
}

func TestServer_Execute(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/execute", `{"code": "[1, 2]"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp service.Response
	decode(t, rec, &resp)
	if !resp.Success || resp.Result != "[1, 2]" || resp.Tokens != 5 {
		t.Errorf("got %+v", resp)
	}
	if resp.ExecutedCode != "[1, 2]" {
		t.Errorf("ExecutedCode = %q", resp.ExecutedCode)
	}
}

func TestServer_ExecuteRejections(t *testing.T) {
	env := newTestEnv(t, func(c *service.Config) { c.MaxInputLength = 10 }, func(c *Config) { c.MaxRequestSize = 64 })

	tests := []struct {
		name   string
		body   string
		status int
		errMsg string
	}{
		{"blank", `{"code": "   "}`, http.StatusOK, service.MsgEmptyCode},
		{"missing code", `{}`, http.StatusOK, service.MsgEmptyCode},
		{"invalid json", `{"code":`, http.StatusBadRequest, "invalid JSON body"},
		{"body too large", `{"code": "` + strings.Repeat("1", 100) + `"}`, http.StatusRequestEntityTooLarge, "request body too large"},
		{"source too long", `{"code": "[1,2,3,4,5,6]"}`, http.StatusRequestEntityTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/execute", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			var body service.Rejection
			decode(t, rec, &body)
			if body.Success {
				t.Error("success should be false")
			}
			if tt.errMsg != "" && body.Error != tt.errMsg {
				t.Errorf("error = %q, want %q", body.Error, tt.errMsg)
			}
		})
	}
}

func TestServer_ExecuteBlankBody(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodPost, "/execute", `{"code": ""}`)
	want := `{"success":false,"error":"Please enter some code to execute"}` + "\n"
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestServer_ExecuteMethod(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodGet, "/execute", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestServer_ExecuteFile(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/execute_file", "")
	var missing service.Rejection
	decode(t, rec, &missing)
	if missing.Success || missing.Error != service.MsgTestFileNotFound {
		t.Errorf("got %+v", missing)
	}

	if err := os.WriteFile(filepath.Join(env.dir, "test.txt"), []byte("(x)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec = env.do(t, http.MethodPost, "/execute_file", "")
	var resp service.Response
	decode(t, rec, &resp)
	if !resp.Success || resp.Result != "x" {
		t.Errorf("got %+v", resp)
	}
}

func TestServer_Tokenize(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/tokenize", `{"code": "a == 1"}`)
	var resp service.TokenizeResponse
	decode(t, rec, &resp)
	if !resp.Success || len(resp.Tokens) != 4 {
		t.Fatalf("got %+v", resp)
	}
	if resp.Tokens[1].Kind != "EQEQ" || resp.Tokens[1].Column != 3 {
		t.Errorf("second token = %+v", resp.Tokens[1])
	}
}

func TestServer_History(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		if rec := env.do(t, http.MethodGet, "/api/v1/history", ""); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
		if rec := env.do(t, http.MethodGet, "/api/v1/history/abc", ""); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		env := newTestEnv(t, func(c *service.Config) {
			c.EnableHistory = true
			c.HistoryPath = filepath.Join(t.TempDir(), "history.db")
		}, nil)

		env.do(t, http.MethodPost, "/execute", `{"code": "1"}`)
		env.do(t, http.MethodPost, "/execute", `{"code": "@"}`)

		rec := env.do(t, http.MethodGet, "/api/v1/history?limit=10", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var hist HistoryResponse
		decode(t, rec, &hist)
		if hist.Count != 2 || len(hist.Runs) != 2 {
			t.Fatalf("count = %d", hist.Count)
		}
		if hist.Runs[0].Code != "@" || hist.Runs[0].Success {
			t.Errorf("newest run = %+v", hist.Runs[0])
		}
		if hist.Runs[0].RequestID == "" {
			t.Error("run should carry the request ID")
		}

		rec = env.do(t, http.MethodGet, "/api/v1/history?success=true", "")
		decode(t, rec, &hist)
		if hist.Count != 1 || hist.Runs[0].Code != "1" {
			t.Errorf("success filter returned %+v", hist.Runs)
		}

		rec = env.do(t, http.MethodGet, "/api/v1/history/"+hist.Runs[0].ID, "")
		var run store.Run
		decode(t, rec, &run)
		if run.ID != hist.Runs[0].ID || run.Origin != store.OriginWeb {
			t.Errorf("run = %+v", run)
		}

		if rec := env.do(t, http.MethodGet, "/api/v1/history/unknown", ""); rec.Code != http.StatusNotFound {
			t.Errorf("unknown run status = %d, want 404", rec.Code)
		}

		for _, q := range []string{"limit=0", "limit=x", "offset=-1", "success=maybe", "since=yesterday"} {
			if rec := env.do(t, http.MethodGet, "/api/v1/history?"+q, ""); rec.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", q, rec.Code)
			}
		}
	})
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t, func(c *service.Config) {
		c.EnableHistory = true
		c.HistoryPath = filepath.Join(t.TempDir(), "history.db")
	}, nil)

	// missing test file degrades but keeps serving
	rec := env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var report health.Report
	decode(t, rec, &report)
	if report.Status != health.StatusDegraded {
		t.Errorf("status = %s, want degraded", report.Status)
	}
	names := make([]string, 0, len(report.Checks))
	for _, c := range report.Checks {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "frontend,history,http,testfile" {
		t.Errorf("checks = %s", got)
	}

	env.service.History().Close()
	rec = env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("closed store: status = %d, want 503", rec.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.do(t, http.MethodPost, "/execute", `{"code": "1"}`)

	rec := env.do(t, http.MethodGet, "/metrics", "")
	body := rec.Body.String()
	for _, want := range []string{
		`mbasic_runs_total{origin="web",outcome="ok"} 1`,
		`mbasic_http_requests_total{code="200",method="POST",route="POST /execute"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestServer_RateLimit(t *testing.T) {
	env := newTestEnv(t, nil, func(c *Config) {
		c.RateLimit = 0.001
		c.RateBurst = 1
	})

	if rec := env.do(t, http.MethodPost, "/execute", `{"code": "1"}`); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/execute", `{"code": "1"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// operational routes are not limited
	if rec := env.do(t, http.MethodGet, "/health", ""); rec.Code == http.StatusTooManyRequests {
		t.Error("/health should not be rate limited")
	}
}

func TestServer_RequestID(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodGet, "/health", "")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("request ID should be generated")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "client-id" {
		t.Errorf("request ID = %q, want client-id", got)
	}
}

func TestServer_Recovery(t *testing.T) {
	logger := logging.Wrap(logging.NewLogger(logging.LoggerConfig{Format: "json", Output: &bytes.Buffer{}}), "http")
	h := recoveryMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestServer_StartAsyncAndStop(t *testing.T) {
	env := newTestEnv(t, nil, func(c *Config) { c.Host = "127.0.0.1" })

	if err := env.server.StartAsync(); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Get("http://" + env.server.Address() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := env.server.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestWebSocket(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("upgrade response should carry a request ID")
	}

	roundTrip := func(msg string) map[string]json.RawMessage {
		t.Helper()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatal(err)
		}
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var out map[string]json.RawMessage
		if err := conn.ReadJSON(&out); err != nil {
			t.Fatal(err)
		}
		return out
	}
	typeOf := func(m map[string]json.RawMessage) string {
		var s string
		json.Unmarshal(m["type"], &s)
		return s
	}

	if got := typeOf(roundTrip(`{"type": "ping"}`)); got != "pong" {
		t.Errorf("ping answered with %q", got)
	}

	out := roundTrip(`{"type": "tokenize", "payload": {"code": "[a]"}}`)
	if typeOf(out) != "tokens" {
		t.Fatalf("tokenize answered with %q", typeOf(out))
	}
	var tokens service.TokenizeResponse
	json.Unmarshal(out["payload"], &tokens)
	if !tokens.Success || len(tokens.Tokens) != 4 {
		t.Errorf("tokens = %+v", tokens)
	}

	out = roundTrip(`{"type": "execute", "payload": {"code": "(1"}}`)
	if typeOf(out) != "result" {
		t.Fatalf("execute answered with %q", typeOf(out))
	}
	var result service.Response
	json.Unmarshal(out["payload"], &result)
	if !result.Success || result.SyntaxError == "" {
		t.Errorf("result = %+v", result)
	}

	out = roundTrip(`{"type": "execute", "payload": {"code": ""}}`)
	var rejection service.Rejection
	json.Unmarshal(out["payload"], &rejection)
	if rejection.Error != service.MsgEmptyCode {
		t.Errorf("rejection = %+v", rejection)
	}

	out = roundTrip(`{"type": "tokenize", "payload": "oops"}`)
	if typeOf(out) != "error" {
		t.Errorf("bad payload answered with %q", typeOf(out))
	}

	out = roundTrip(`{"type": "shout"}`)
	var wsErr WSErrorPayload
	json.Unmarshal(out["payload"], &wsErr)
	if typeOf(out) != "error" || wsErr.Code != "unknown_type" {
		t.Errorf("unknown type answered with %q %+v", typeOf(out), wsErr)
	}
}


func TestWebSocket_RateLimitPerMessage(t *testing.T) {
	// one token for the upgrade, one for the first message
	env := newTestEnv(t, nil, func(c *Config) {
		c.RateLimit = 0.001
		c.RateBurst = 2
	})
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send := func(msg string) WSResponse {
		t.Helper()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatal(err)
		}
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var raw struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&raw); err != nil {
			t.Fatal(err)
		}
		resp := WSResponse{Type: raw.Type}
		if raw.Type == "error" {
			var p WSErrorPayload
			json.Unmarshal(raw.Payload, &p)
			resp.Payload = p
		}
		return resp
	}

	if got := send(`{"type": "execute", "payload": {"code": "1"}}`); got.Type != "result" {
		t.Fatalf("first execute answered with %q", got.Type)
	}

	for _, msg := range []string{
		`{"type": "execute", "payload": {"code": "1"}}`,
		`{"type": "tokenize", "payload": {"code": "1"}}`,
	} {
		got := send(msg)
		p, _ := got.Payload.(WSErrorPayload)
		if got.Type != "error" || p.Code != "rate_limited" {
			t.Errorf("%s answered with %q %+v, want rate_limited", msg, got.Type, got.Payload)
		}
	}

	// pings are not charged
	if got := send(`{"type": "ping"}`); got.Type != "pong" {
		t.Errorf("ping answered with %q", got.Type)
	}

	body := env.do(t, http.MethodGet, "/metrics", "").Body.String()
	if !strings.Contains(body, "mbasic_http_rate_limited_total 2") {
		t.Error("limited messages not counted in metrics")
	}
}
