// Package server exposes the responder over HTTP: the channel webhook for
// inbound messages and the training endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"replybot/internal/responder"
)

// Server wraps the HTTP transport. Channel-specific envelope handling (the
// form fields, the "whatsapp:" sender prefix) stops here; the responder only
// ever sees (identity, text).
type Server struct {
	svc     *responder.Service
	httpSrv *http.Server
	start   time.Time
}

// New builds the server for the given listen address.
func New(svc *responder.Service, addr string) *Server {
	s := &Server{svc: svc, start: time.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/whatsapp", s.handleWebhook)
	mux.HandleFunc("/api/train", s.handleTrain)
	mux.HandleFunc("/api/status", s.handleStatus)

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start runs the server until Shutdown or a listener error.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	identity := strings.TrimPrefix(r.PostFormValue("From"), "whatsapp:")
	if identity == "" {
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}
	text := r.PostFormValue("Body")

	reply, err := s.svc.HandleMessage(r.Context(), identity, text)
	if err != nil {
		log.Error().Err(err).Str("identity", identity).Msg("handle message")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

type trainRequest struct {
	Phone    string `json:"phone"`
	Trigger  string `json:"trigger"`
	Response string `json:"response"`
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "error": "invalid JSON body"})
		return
	}
	if req.Phone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "error": "phone is required"})
		return
	}

	rules, err := s.svc.Train(r.Context(), req.Phone, req.Trigger, req.Response)
	if err != nil {
		if errors.Is(err, responder.ErrInvalidRule) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "error": err.Error()})
			return
		}
		log.Error().Err(err).Str("identity", req.Phone).Msg("train")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": rules})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}
