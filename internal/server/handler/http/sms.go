// Package http provides the smsgate HTTP handlers. The text endpoint
// mimics the TextBelt API closely enough for the twofzip notifiers.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/twofzip/internal/models"
	"github.com/atinyakov/twofzip/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DeliveryService defines the operations required by the SMSHandler.
type DeliveryService interface {
	// Send accepts a text and returns its delivery record.
	Send(ctx context.Context, number, message string) (models.Delivery, error)
	// Get returns a stored delivery record.
	Get(ctx context.Context, id string) (*models.Delivery, error)
}

// SMSHandler handles text requests and delivery lookups.
type SMSHandler struct {
	DeliveryService DeliveryService
	Logger          *zap.Logger
}

type textReply struct {
	Success bool   `json:"success"`
	TextID  string `json:"textId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Text handles POST /text with form fields "number" and "message".
// Replies are indented JSON, so a successful reply contains the literal
// `"success": true`.
func (h *SMSHandler) Text(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, textReply{Error: "invalid form body"})
		return
	}

	d, err := h.DeliveryService.Send(r.Context(), r.PostForm.Get("number"), r.PostForm.Get("message"))
	switch {
	case err == nil:
		h.logger().Info("text accepted", zap.String("text_id", d.ID), zap.Int("message_length", d.MessageLength))
		writeJSON(w, http.StatusOK, textReply{Success: true, TextID: d.ID})
	case errors.Is(err, service.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, textReply{Error: err.Error()})
	case errors.Is(err, service.ErrOutOfQuota):
		h.logger().Warn("text rejected", zap.String("text_id", d.ID), zap.Error(err))
		writeJSON(w, http.StatusTooManyRequests, textReply{TextID: d.ID, Error: "Out of quota"})
	default:
		h.logger().Error("text not stored", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, textReply{Error: "internal error"})
	}
}

// Delivery handles GET /api/deliveries/{id}.
func (h *SMSHandler) Delivery(w http.ResponseWriter, r *http.Request) {
	d, err := h.DeliveryService.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, models.ErrNotFound) {
		http.Error(w, "delivery not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger().Error("delivery lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (h *SMSHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
