// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the registration engine.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/team-registration/internal/chat"
	"github.com/Shivanand-hulikatti/team-registration/internal/model"
	"github.com/Shivanand-hulikatti/team-registration/internal/quota"
	"github.com/Shivanand-hulikatti/team-registration/internal/repository"
	"github.com/Shivanand-hulikatti/team-registration/internal/service"
)

// RegistrationHandler holds all HTTP handlers for the registration API.
type RegistrationHandler struct {
	engine *service.RegistrationEngine
	chat   *chat.Handler
	tokens *TokenRegistry
	logger *slog.Logger
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(
	engine *service.RegistrationEngine,
	chatHandler *chat.Handler,
	tokens *TokenRegistry,
	logger *slog.Logger,
) *RegistrationHandler {
	return &RegistrationHandler{engine: engine, chat: chatHandler, tokens: tokens, logger: logger}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func registrationID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// writeEngineError maps engine errors onto status codes.
func (h *RegistrationHandler) writeEngineError(w http.ResponseWriter, err error) {
	if rej, ok := quota.AsRejection(err); ok {
		writeError(w, http.StatusBadRequest, rej.Detail)
		return
	}
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "registration not found")
	case errors.Is(err, service.ErrPersistence):
		writeError(w, http.StatusInternalServerError, "failed to save registration")
	default:
		h.logger.Error("unexpected engine error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ─── Registrations ────────────────────────────────────────────────────────────

// ListRegistrations handles GET /api/registrations
// Optional ?userId= restricts the listing to one owner.
func (h *RegistrationHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	var regs []model.Registration
	if owner := r.URL.Query().Get("userId"); owner != "" {
		regs = h.engine.ListByOwner(owner)
	} else {
		regs = h.engine.List()
	}

	// Return an empty array rather than null for better client compatibility.
	if regs == nil {
		regs = []model.Registration{}
	}

	writeJSON(w, http.StatusOK, regs)
}

// GetRegistration handles GET /api/registrations/{id}
func (h *RegistrationHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := registrationID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid registration id")
		return
	}

	reg, err := h.engine.Get(id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reg)
}

// CreateRegistration handles POST /api/registrations
// The caller becomes the owner of the new registration.
func (h *RegistrationHandler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	who := identityFrom(r.Context())
	reg, err := h.engine.Create(r.Context(), service.CreateParams{
		Name:       req.Name,
		Count:      req.Count,
		OwnerID:    who.OwnerID,
		OwnerLabel: who.OwnerLabel,
		Privileged: who.Privileged,
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reg)
}

// UpdateRegistration handles PATCH /api/registrations/{id}
// Only the owner or a privileged caller may change the count.
func (h *RegistrationHandler) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := registrationID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid registration id")
		return
	}

	var req model.UpdateRegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !h.authorize(w, r, id) {
		return
	}

	reg, err := h.engine.Update(r.Context(), id, req.Count)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reg)
}

// DeleteRegistration handles DELETE /api/registrations/{id}
func (h *RegistrationHandler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := registrationID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid registration id")
		return
	}

	if !h.authorize(w, r, id) {
		return
	}

	if err := h.engine.Delete(r.Context(), id); err != nil {
		h.writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// authorize writes 404 or 403 and returns false unless the caller may modify
// registration id.
func (h *RegistrationHandler) authorize(w http.ResponseWriter, r *http.Request, id int64) bool {
	reg, err := h.engine.Get(id)
	if err != nil {
		h.writeEngineError(w, err)
		return false
	}
	if !identityFrom(r.Context()).CanModify(reg.OwnerID) {
		writeError(w, http.StatusForbidden, "you can only modify your own registrations")
		return false
	}
	return true
}

// ─── Activity, stats and config ───────────────────────────────────────────────

// RecentActivity handles GET /api/activity
// ?limit= defaults to 10.
func (h *RegistrationHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	limit := repository.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	writeJSON(w, http.StatusOK, h.engine.RecentActivity(limit))
}

// Stats handles GET /api/stats
func (h *RegistrationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}

// GetConfig handles GET /api/config
func (h *RegistrationHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Config())
}

// UpdateConfig handles PATCH /api/config
func (h *RegistrationHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch model.EventConfigPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg, err := h.engine.UpdateConfig(r.Context(), patch)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// ─── Security token and chat relay ────────────────────────────────────────────

// SecurityToken handles GET /api/security-token
func (h *RegistrationHandler) SecurityToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.SecurityTokenResponse{Token: h.tokens.Issue()})
}

// ChatMessage handles POST /api/chat
// The caller is the trusted chat gateway; author_id identifies the chat user.
// Messages that are not registration commands get an empty reply.
func (h *RegistrationHandler) ChatMessage(w http.ResponseWriter, r *http.Request) {
	var req model.ChatMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.AuthorID == "" {
		writeError(w, http.StatusBadRequest, "author_id is required")
		return
	}

	reply, _ := h.chat.Handle(r.Context(), chat.Message{
		AuthorID:    req.AuthorID,
		AuthorLabel: req.AuthorLabel,
		Content:     req.Content,
	})

	writeJSON(w, http.StatusOK, model.ChatMessageResponse{Reply: reply})
}

// ChatReady handles POST /api/chat/ready
// Records the chat server the gateway is connected to.
func (h *RegistrationHandler) ChatReady(w http.ResponseWriter, r *http.Request) {
	var req model.ChatReadyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ServerID == "" {
		writeError(w, http.StatusBadRequest, "server_id is required")
		return
	}

	if err := h.chat.Ready(r.Context(), req.ServerID, req.ServerLabel); err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.engine.Config())
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
