package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/msto63/mbasic/foundation/basic"
	"github.com/msto63/mbasic/foundation/basic/diag"
	"github.com/msto63/mbasic/foundation/basic/token"
	mdwerror "github.com/msto63/mbasic/foundation/core/error"
	"github.com/msto63/mbasic/internal/frontend/metrics"
	"github.com/msto63/mbasic/internal/frontend/store"
	"github.com/msto63/mbasic/pkg/core/logging"
)

// User-facing messages
const (
	MsgEmptyCode        = "Please enter some code to execute"
	MsgTestFileNotFound = "test.txt file not found in project directory"
	MsgReadFileFailed   = "Error reading file: "
)

// Response is the result of one execution as the web UI consumes it
type Response struct {
	Success      bool     `json:"success"`
	ExecutedCode string   `json:"executed_code"`
	Tokens       int      `json:"tokens"`
	TokenList    []string `json:"token_list"`
	TokenValues  []string `json:"token_values"`
	Result       string   `json:"result"`
	// Error is the rendered lexer diagnostic
	Error string `json:"error,omitempty"`
	// SyntaxError is the rendered parser diagnostic; Success stays true so
	// the UI still shows the tokens
	SyntaxError string      `json:"syntax_error,omitempty"`
	Diagnostic  *Diagnostic `json:"diagnostic,omitempty"`
	RunID       string      `json:"run_id,omitempty"`

	// evaluated is false for requests rejected before lexing
	evaluated bool
}

// Evaluated reports whether the code was run through the front-end
func (r *Response) Evaluated() bool {
	return r.evaluated
}

// Rejection is the JSON shape of a response that never reached the lexer
type Rejection struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Body returns the value to encode for the client: the full response, or
// only success and error for rejected requests
func (r *Response) Body() interface{} {
	if !r.evaluated {
		return Rejection{Success: false, Error: r.Error}
	}
	return r
}

func rejected(msg string) *Response {
	return &Response{Success: false, Error: msg}
}

// Diagnostic is the structured form of a diag.Error. Lines and columns
// are 1-based.
type Diagnostic struct {
	Kind      string `json:"kind"`
	Code      string `json:"code"`
	Details   string `json:"details"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"end_line"`
	EndColumn int    `json:"end_column"`
}

// NewDiagnostic converts a diagnostic for transport
func NewDiagnostic(d *diag.Error) *Diagnostic {
	if d == nil {
		return nil
	}
	return &Diagnostic{
		Kind:      d.Kind.String(),
		Code:      d.Kind.Code(),
		Details:   d.Details,
		File:      d.Start.File,
		Line:      d.Start.Line + 1,
		Column:    d.Start.Column + 1,
		EndLine:   d.End.Line + 1,
		EndColumn: d.End.Column + 1,
	}
}

// TokenInfo describes one token for live tokenization clients
type TokenInfo struct {
	Kind   string `json:"kind"`
	Value  string `json:"value"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// TokenizeResponse is the result of Tokenize
type TokenizeResponse struct {
	Success    bool        `json:"success"`
	Tokens     []TokenInfo `json:"tokens"`
	Error      string      `json:"error,omitempty"`
	Diagnostic *Diagnostic `json:"diagnostic,omitempty"`
}

// Config holds service configuration
type Config struct {
	// Filename reported in diagnostics of submitted code
	Filename string
	// TestFile is the program run by ExecuteFile
	TestFile string

	MaxInputLength int
	MaxDepth       int

	EnableHistory    bool
	HistoryPath      string
	HistoryRetention int

	// Store overrides HistoryPath when set
	Store store.RunStore
	// Metrics is optional
	Metrics *metrics.Metrics
	// Logger is optional (default: logging.New("frontend"))
	Logger *logging.Logger
}

// DefaultConfig returns default service configuration
func DefaultConfig() Config {
	return Config{
		Filename:         "<web>",
		TestFile:         "test.txt",
		MaxInputLength:   64 * 1024,
		MaxDepth:         256,
		HistoryPath:      "./data/history.db",
		HistoryRetention: 1000,
	}
}

// Service runs submitted programs through the front-end and records them
type Service struct {
	engine  *basic.Engine
	history store.RunStore
	metrics *metrics.Metrics
	logger  *logging.Logger
	config  Config
}

// NewService creates a new execution service
func NewService(cfg Config) (*Service, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("frontend")
	}
	if cfg.Filename == "" {
		cfg.Filename = "<web>"
	}
	if cfg.TestFile == "" {
		cfg.TestFile = "test.txt"
	}

	svc := &Service{
		engine: basic.NewEngine(basic.Options{
			Logger:         logger.Logger,
			MaxInputLength: cfg.MaxInputLength,
			MaxDepth:       cfg.MaxDepth,
		}),
		history: cfg.Store,
		metrics: cfg.Metrics,
		logger:  logger,
		config:  cfg,
	}

	if svc.history == nil && cfg.EnableHistory {
		runStore, err := store.NewSQLiteRunStore(store.SQLiteRunConfig{
			Path:      cfg.HistoryPath,
			Retention: cfg.HistoryRetention,
		})
		if err != nil {
			return nil, mdwerror.Wrap(err, "failed to create run store").
				WithOperation("service.NewService")
		}
		svc.history = runStore
		logger.Info("Run history enabled", "path", cfg.HistoryPath)
	}

	return svc, nil
}

// History returns the run store, nil when history is disabled
func (s *Service) History() store.RunStore {
	return s.history
}

// Config returns the service configuration
func (s *Service) Config() Config {
	return s.config
}

// Execute lexes and parses code. Blank code is rejected with a response,
// not an error. The error return is reserved for input over the length
// limit and canceled contexts.
func (s *Service) Execute(ctx context.Context, origin store.Origin, code string) (*Response, error) {
	if strings.TrimSpace(code) == "" {
		return rejected(MsgEmptyCode), nil
	}

	a, err := s.engine.Analyze(ctx, s.config.Filename, code)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveRun(string(origin), metrics.OutcomeRejected, 0, 0)
		}
		s.logger.Warn("Execution rejected",
			"request_id", RequestID(ctx),
			"origin", string(origin),
			"error", err,
		)
		return nil, err
	}

	resp := &Response{
		Success:      true,
		ExecutedCode: code,
		Tokens:       a.TokenCount,
		TokenList:    []string{},
		TokenValues:  []string{},
		Result:       a.Result(),
		evaluated:    true,
	}
	for _, tok := range a.Tokens {
		resp.TokenList = append(resp.TokenList, tok.Kind.String())
		resp.TokenValues = append(resp.TokenValues, tok.Display())
	}

	outcome := metrics.OutcomeOK
	if a.Diagnostic != nil {
		resp.Diagnostic = NewDiagnostic(a.Diagnostic)
		if a.LexFailed() {
			resp.Success = false
			resp.Error = a.Diagnostic.Render()
			outcome = metrics.OutcomeLexError
		} else {
			resp.SyntaxError = a.Diagnostic.Render()
			outcome = metrics.OutcomeSyntaxError
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveRun(string(origin), outcome, a.TokenCount, a.Duration)
		if a.Diagnostic != nil {
			s.metrics.ObserveDiagnostic(a.Diagnostic.Kind.Code())
		}
	}

	resp.RunID = s.record(ctx, origin, a, resp)
	return resp, nil
}

// ExecuteFile runs the configured test file
func (s *Service) ExecuteFile(ctx context.Context) (*Response, error) {
	path := s.config.TestFile

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return rejected(MsgTestFileNotFound), nil
	}
	if err == nil && info.IsDir() {
		err = mdwerror.Newf("%s is a directory", path).WithCode(mdwerror.CodeIOError)
	}

	var data []byte
	if err == nil {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		s.logger.Warn("Test file unreadable", "path", path, "error", err)
		return rejected(MsgReadFileFailed + err.Error()), nil
	}

	return s.Execute(ctx, store.OriginFile, string(data))
}

// Tokenize lexes code without parsing or recording it
func (s *Service) Tokenize(ctx context.Context, code string) (*TokenizeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, mdwerror.Wrap(err, "tokenize canceled").WithCode(mdwerror.CodeCanceled)
	}
	if max := s.config.MaxInputLength; max > 0 && len(code) > max {
		return nil, mdwerror.Newf("source exceeds maximum length: %d > %d", len(code), max).
			WithCode(mdwerror.CodeInvalidLength)
	}

	tokens, d := basic.Tokenize(s.config.Filename, code)
	resp := &TokenizeResponse{Success: d == nil, Tokens: []TokenInfo{}}
	if d != nil {
		resp.Error = d.Render()
		resp.Diagnostic = NewDiagnostic(d)
		return resp, nil
	}

	for _, tok := range tokens {
		resp.Tokens = append(resp.Tokens, NewTokenInfo(tok))
	}
	return resp, nil
}

// NewTokenInfo converts a token for transport
func NewTokenInfo(tok token.Token) TokenInfo {
	return TokenInfo{
		Kind:   tok.Kind.String(),
		Value:  tok.Display(),
		Line:   tok.Start.Line + 1,
		Column: tok.Start.Column + 1,
		Offset: tok.Start.Index,
		Length: tok.End.Index - tok.Start.Index,
	}
}

// record stores the run and returns its ID, or "" when history is off or
// the store failed. Store failures never fail the execution.
func (s *Service) record(ctx context.Context, origin store.Origin, a *basic.Analysis, resp *Response) string {
	if s.history == nil {
		return ""
	}

	run := &store.Run{
		Origin:     origin,
		Filename:   a.File,
		Code:       a.Source,
		Success:    a.OK(),
		Result:     resp.Result,
		Tokens:     a.TokenCount,
		DurationMs: float64(a.Duration.Nanoseconds()) / 1e6,
		RequestID:  RequestID(ctx),
	}
	if a.Diagnostic != nil {
		run.Error = a.Diagnostic.Error()
	}

	// a canceled request still gets its run recorded
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	timer := s.logger.StartTimer("history.record").
		WithField("origin", string(origin)).
		WithField("request_id", RequestID(ctx))
	if err := s.history.Record(recordCtx, run); err != nil {
		timer.StopWithError(err)
		return ""
	}
	timer.Stop()
	return run.ID
}

// ListRuns returns recorded runs, newest first
func (s *Service) ListRuns(ctx context.Context, filter store.RunFilter) ([]*store.Run, error) {
	if s.history == nil {
		return nil, mdwerror.New("run history is disabled").WithCode(mdwerror.CodeServiceUnavailable)
	}
	return s.history.List(ctx, filter)
}

// Close releases the run store
func (s *Service) Close() error {
	if s.history != nil {
		return s.history.Close()
	}
	return nil
}

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID attaches a request ID used in logs and run records
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID attached to ctx, or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
