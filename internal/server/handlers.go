package server

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	errx "github.com/otrade-bot/server/internal/core/error"
	"github.com/otrade-bot/server/internal/whatsapp"
	logx "github.com/otrade-bot/server/pkg/logger"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

type resetResponse struct {
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "otrade-bot", "status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		// First message of a web conversation mints the session id.
		req.SessionID = uuid.NewString()
	}

	reply, err := s.engine.ProcessTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	next, err := s.engine.Reset(r.Context(), req.SessionID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{SessionID: next})
}

// handleWhatsAppWebhook answers Twilio's inbound-message callback. The reply
// rides back synchronously as TwiML; the phone number keys the session.
func (s *Server) handleWhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	from := whatsapp.PhoneNumber(r.PostFormValue("From"))
	body := r.PostFormValue("Body")
	if from == "" || body == "" {
		writeError(w, http.StatusBadRequest, "From and Body are required")
		return
	}

	sessionID := "whatsapp_" + from
	reply, err := s.engine.ProcessTurn(r.Context(), sessionID, body)
	text := ""
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("whatsapp turn failed")
		text = "Sorry, something went wrong on our side. Please try again in a moment."
	} else {
		text = reply.Text
	}

	// Invoice documents ride better as a dedicated follow-up message than
	// buried inside the confirmation TwiML.
	if err == nil && reply.Finalized && reply.DocumentRef != "" && s.wa != nil {
		go func(to, ref, number string) {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()
			if err := s.wa.Send(ctx, to, "Your invoice "+number+" is ready: "+ref); err != nil {
				logx.Warn().Err(err).Str("to", to).Msg("invoice follow-up send failed")
			}
		}(from, reply.DocumentRef, reply.InvoiceNumber)
	}

	writeTwiML(w, text)
}

// ================ Response helpers ================

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func writeTwiML(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(twimlResponse{Message: message}); err != nil {
		logx.Warn().Err(err).Msg("twiml encode failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeAppError(w http.ResponseWriter, err error) {
	var ae *errx.AppError
	if errors.As(err, &ae) {
		writeError(w, ae.Status, ae.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, errx.SystemErrorMessage)
}
