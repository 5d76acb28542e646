package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	chathandler "github.com/zhouzirui/ergodesk/backend/internal/handler/chat"
	"github.com/zhouzirui/ergodesk/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/ergodesk/backend/internal/service/chat"
)

const (
	defaultReadTimeout = 60 * time.Second
	pingInterval       = 54 * time.Second
	writeTimeout       = 10 * time.Second
)

// Handler serves one consultation session per WebSocket connection. The
// session is created on connect and ended when the connection closes.
type Handler struct {
	chatSvc  *chatservice.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
	// readTimeout bounds the wait for the next client frame or pong. It is
	// re-armed after every handled message, so a slow reply does not use it up.
	readTimeout time.Duration
}

// New creates the WebSocket handler.
func New(chatSvc *chatservice.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc:     chatSvc,
		logger:      logger,
		readTimeout: defaultReadTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the socket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TextMessage carries one user submission.
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context(), r.URL.Query().Get("personaId"))
	if err != nil {
		http.Error(w, chathandler.Message(err), chathandler.StatusFor(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		_ = h.chatSvc.EndSession(context.Background(), session.ID)
		return
	}
	defer conn.Close()
	defer func() {
		if err := h.chatSvc.EndSession(context.Background(), session.ID); err != nil {
			h.logger.Warn("failed to end websocket session", zap.String("session_id", session.ID), zap.Error(err))
		}
	}()

	logger := h.logger.With(zap.String("session_id", session.ID))
	logger.Info("websocket connected", zap.String("persona_id", session.PersonaID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.armReadDeadline(conn)
	conn.SetPongHandler(func(string) error {
		h.armReadDeadline(conn)
		return nil
	})

	go pingLoop(ctx, conn)

	h.send(conn, session.ID, "result", map[string]any{
		"type":    "connected",
		"persona": session.PersonaID,
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		h.handleMessage(ctx, conn, session, &msg)
		h.armReadDeadline(conn)
	}
}

func (h *Handler) armReadDeadline(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, session chat.Session, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			h.sendError(conn, session.ID, "invalid text payload")
			return
		}
		h.handleText(ctx, conn, session, text.Text)
	case "history":
		history, sent, err := h.chatSvc.History(ctx, session.ID)
		if err != nil {
			h.sendError(conn, session.ID, chathandler.Message(err))
			return
		}
		h.send(conn, session.ID, "result", map[string]any{
			"type":            "history",
			"history":         history,
			"instructionSent": sent,
		})
	default:
		h.sendError(conn, session.ID, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) handleText(ctx context.Context, conn *websocket.Conn, session chat.Session, text string) {
	exchange, err := h.chatSvc.Submit(ctx, session.ID, text)
	if err != nil {
		h.sendError(conn, session.ID, chathandler.Message(err))
		return
	}

	h.send(conn, session.ID, "result", map[string]any{
		"type":  "assistant",
		"text":  exchange.Reply,
		"first": exchange.InstructionIncluded,
	})
}

func (h *Handler) send(conn *websocket.Conn, sessionID, kind string, data interface{}) {
	msg := outgoingMessage{
		Type:      kind,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("websocket write failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (h *Handler) sendError(conn *websocket.Conn, sessionID, message string) {
	h.send(conn, sessionID, "error", map[string]string{"message": message})
}

// pingLoop keeps idle connections alive until ctx is done.
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
