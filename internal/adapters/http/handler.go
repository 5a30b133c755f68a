package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloGalante/loan-agent/internal/app/catalog"
	"github.com/PabloGalante/loan-agent/internal/app/conversation"
	"github.com/PabloGalante/loan-agent/internal/domain"
	"github.com/PabloGalante/loan-agent/internal/observability"
)

// systemErrorReply is what the chat frontend shows when a request blew up.
const systemErrorReply = "System Error. Please try again."

type Server struct {
	svc     *conversation.Service
	loans   domain.LoanStore
	catalog *catalog.Service
}

// NewServer builds the HTTP API. loans may be nil, in which case
// /add-loans answers 500.
func NewServer(
	svc *conversation.Service,
	loans domain.LoanStore,
	cat *catalog.Service,
	allowedOrigins []string,
) http.Handler {
	s := &Server{svc: svc, loans: loans, catalog: cat}
	mux := http.NewServeMux()

	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/add-loans", s.handleAddLoans)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	// Outermost first: the request id must exist before logging and recovery.
	return chainMiddlewares(mux,
		withRequestID,
		withRecovery,
		withMetrics,
		withLogging,
		withCORS(allowedOrigins),
	)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
	ChatID  string `json:"chatId,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		badRequest(w, "userId is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(w, "message is required")
		return
	}

	out := s.svc.ProcessTurn(r.Context(), conversation.TurnInput{
		UserID: domain.UserID(req.UserID),
		ChatID: domain.ChatID(req.ChatID),
		Text:   req.Message,
	})

	writeJSON(w, http.StatusOK, chatResponse{Response: out.Reply})
}

func (s *Server) handleAddLoans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.loans == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "DB Error"})
		return
	}

	var products []domain.LoanProduct
	if err := json.NewDecoder(r.Body).Decode(&products); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	for _, p := range products {
		if p.ID == "" {
			badRequest(w, "every loan needs an id")
			return
		}
	}

	if err := s.loans.SaveLoanProducts(r.Context(), products); err != nil {
		observability.LoggerFromContext(r.Context()).Error("failed to save loans", "error", err)
		internalError(w)
		return
	}
	if s.catalog != nil {
		s.catalog.Reload(r.Context())
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
