package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/ergodesk/backend/internal/model/chat"
	chatService "github.com/zhouzirui/ergodesk/backend/internal/service/chat"
	"github.com/zhouzirui/ergodesk/backend/pkg/utils"
)

// Handler 咨询会话的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建会话处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Post("/messages", h.handleSubmit)
		r.Get("/history", h.handleHistory)
		r.Delete("/", h.handleEndSession)
	})
}

type submitResponse struct {
	Reply   string      `json:"reply"`
	History []chat.Turn `json:"history"`
}

type historyResponse struct {
	History         []chat.Turn `json:"history"`
	InstructionSent bool        `json:"instructionSent"`
}

// handleCreateSession 创建会话；personaId 为空时使用默认顾问
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
	}

	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(r, &payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.PersonaID)
	if err != nil {
		utils.RespondError(w, StatusFor(err), Message(err))
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleSubmit 提交用户消息并返回顾问回复
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	exchange, err := h.chatSvc.Submit(r.Context(), sessionID, payload.Text)
	if err != nil {
		utils.RespondError(w, StatusFor(err), Message(err))
		return
	}

	utils.RespondJSON(w, http.StatusOK, submitResponse{Reply: exchange.Reply, History: exchange.History})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, sent, err := h.chatSvc.History(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, StatusFor(err), Message(err))
		return
	}

	utils.RespondJSON(w, http.StatusOK, historyResponse{History: history, InstructionSent: sent})
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.EndSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		utils.RespondError(w, StatusFor(err), Message(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatusFor 将服务层错误映射为HTTP状态码
func StatusFor(err error) int {
	var genErr *chatService.GeneratorError
	switch {
	case errors.Is(err, chatService.ErrEmptyMessage),
		errors.Is(err, chatService.ErrPersonaRequired),
		errors.Is(err, chatService.ErrPersonaNotFound):
		return http.StatusBadRequest
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrSessionBusy):
		return http.StatusConflict
	case errors.As(err, &genErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message 将服务层错误转换为用户可读的提示
func Message(err error) string {
	var genErr *chatService.GeneratorError
	switch {
	case errors.Is(err, chatService.ErrEmptyMessage):
		return "please describe your setup before sending"
	case errors.As(err, &genErr):
		return "the consultant could not answer right now, please try again"
	default:
		return err.Error()
	}
}
