package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	mdwerror "github.com/msto63/mbasic/foundation/core/error"
	"github.com/msto63/mbasic/internal/frontend/metrics"
	"github.com/msto63/mbasic/internal/frontend/service"
	"github.com/msto63/mbasic/internal/frontend/store"
	"github.com/msto63/mbasic/pkg/core/logging"
	"golang.org/x/time/rate"
)

const (
	wsReadTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// WebSocket upgrader with permissive settings for local development
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler serves live tokenization and execution over one connection
type WebSocketHandler struct {
	service  *service.Service
	metrics  *metrics.Metrics
	limiter  *rate.Limiter
	maxBytes int64
	logger   *logging.Logger
}

// NewWebSocketHandler creates a new WebSocket handler. m and limiter may be
// nil; a limiter is charged once per execute or tokenize message.
func NewWebSocketHandler(svc *service.Service, m *metrics.Metrics, limiter *rate.Limiter, maxBytes int64) *WebSocketHandler {
	return &WebSocketHandler{
		service:  svc,
		metrics:  m,
		limiter:  limiter,
		maxBytes: maxBytes,
		logger:   logging.New("websocket"),
	}
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string          `json:"type"`    // "execute", "tokenize", "ping"
	Payload json.RawMessage `json:"payload"` // Message-specific payload
}

// WSCodePayload is the payload of execute and tokenize messages
type WSCodePayload struct {
	Code string `json:"code"`
}

// WSResponse represents a WebSocket response
type WSResponse struct {
	Type    string      `json:"type"`    // "result", "tokens", "error", "pong"
	Payload interface{} `json:"payload"` // Response-specific payload
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeHTTP handles WebSocket upgrade and connections
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	if h.metrics != nil {
		h.metrics.WebSocketOpened()
		defer h.metrics.WebSocketClosed()
	}

	// the request context is done once the handler returns; detach it
	// but keep the request ID
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	h.handleConnection(ctx, conn)
}

// handleConnection handles a single WebSocket connection. Messages are
// answered in order, so replies never interleave.
func (h *WebSocketHandler) handleConnection(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	h.logger.Info("WebSocket connection established",
		"remote", conn.RemoteAddr().String(),
		"request_id", service.RequestID(ctx),
	)

	if h.maxBytes > 0 {
		conn.SetReadLimit(h.maxBytes)
	}
	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error", "error", err)
			} else {
				h.logger.Info("WebSocket connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		switch msg.Type {
		case "ping":
			h.sendResponse(conn, WSResponse{Type: "pong", Payload: nil})

		case "tokenize":
			if !h.allow(conn) {
				continue
			}
			payload, ok := h.codePayload(conn, msg)
			if !ok {
				continue
			}
			resp, err := h.service.Tokenize(ctx, payload.Code)
			if err != nil {
				h.sendServiceError(conn, err)
				continue
			}
			h.sendResponse(conn, WSResponse{Type: "tokens", Payload: resp})

		case "execute":
			if !h.allow(conn) {
				continue
			}
			payload, ok := h.codePayload(conn, msg)
			if !ok {
				continue
			}
			resp, err := h.service.Execute(ctx, store.OriginWebSocket, payload.Code)
			if err != nil {
				h.sendServiceError(conn, err)
				continue
			}
			h.sendResponse(conn, WSResponse{Type: "result", Payload: resp.Body()})

		default:
			h.sendError(conn, "unknown_type", "Unknown message type: "+msg.Type)
		}
	}
}

// allow charges the limiter and answers with a rate_limited error when it
// is exhausted
func (h *WebSocketHandler) allow(conn *websocket.Conn) bool {
	if h.limiter == nil || h.limiter.Allow() {
		return true
	}
	if h.metrics != nil {
		h.metrics.RateLimited()
	}
	h.sendError(conn, "rate_limited", "Too many requests")
	return false
}

func (h *WebSocketHandler) codePayload(conn *websocket.Conn, msg WSMessage) (WSCodePayload, bool) {
	var payload WSCodePayload
	if len(msg.Payload) == 0 {
		return payload, true
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(conn, "invalid_payload", "Invalid "+msg.Type+" payload")
		return payload, false
	}
	return payload, true
}

// sendResponse sends a response message via WebSocket
func (h *WebSocketHandler) sendResponse(conn *websocket.Conn, resp WSResponse) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(resp); err != nil {
		h.logger.Error("WebSocket send error", "error", err)
	}
}

// sendError sends an error response via WebSocket
func (h *WebSocketHandler) sendError(conn *websocket.Conn, code, message string) {
	h.sendResponse(conn, WSResponse{
		Type: "error",
		Payload: WSErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

func (h *WebSocketHandler) sendServiceError(conn *websocket.Conn, err error) {
	msg := err.Error()
	var mdwErr *mdwerror.Error
	if errors.As(err, &mdwErr) {
		msg = mdwErr.Message()
	}
	h.sendError(conn, strings.ToLower(string(mdwerror.GetCode(err))), msg)
}
