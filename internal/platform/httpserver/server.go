package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"

	electionservice "univote/contexts/campus-elections/election-service"
	electionadapter "univote/contexts/campus-elections/election-service/adapters/http"
	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	electionhttp "univote/contexts/campus-elections/election-service/transport/http"
	_ "univote/internal/platform/httpserver/docs"
)

const maxBodyBytes = 1 << 20

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	http      *http.Server
	elections electionservice.Module
}

func New(elections electionservice.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		elections: elections,
	}
	s.registerRoutes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.withRequestID(s.mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start blocks until the listener fails or Shutdown is called. A clean
// shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return s.http.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/v1/voters/login", s.handleVoterLogin)
	s.mux.HandleFunc("POST /api/v1/voters/register", s.handleRegisterVoter)
	s.mux.HandleFunc("GET /api/v1/voters", s.handleListVoters)
	s.mux.HandleFunc("POST /api/v1/voters", s.handleCreateVoter)
	s.mux.HandleFunc("GET /api/v1/voters/{voter_id}", s.handleGetVoter)
	s.mux.HandleFunc("PUT /api/v1/voters/{voter_id}", s.handleUpdateVoter)
	s.mux.HandleFunc("PUT /api/v1/voters/{voter_id}/approve", s.handleApproveVoter)
	s.mux.HandleFunc("DELETE /api/v1/voters/{voter_id}", s.handleDeleteVoter)
	s.mux.HandleFunc("POST /api/v1/admins/login", s.handleAdminLogin)
	s.mux.HandleFunc("GET /api/v1/admins", s.handleListAdmins)
	s.mux.HandleFunc("POST /api/v1/admins", s.handleCreateAdmin)
	s.mux.HandleFunc("GET /api/v1/admins/{admin_id}", s.handleGetAdmin)
	s.mux.HandleFunc("PUT /api/v1/admins/{admin_id}", s.handleUpdateAdmin)
	s.mux.HandleFunc("DELETE /api/v1/admins/{admin_id}", s.handleDeleteAdmin)

	s.mux.HandleFunc("GET /api/v1/elections", s.handleListElections)
	s.mux.HandleFunc("GET /api/v1/elections/{election_id}", s.handleGetElection)
	s.mux.HandleFunc("POST /api/v1/elections", s.handleCreateElection)
	s.mux.HandleFunc("PUT /api/v1/elections/{election_id}", s.handleUpdateElection)
	s.mux.HandleFunc("PATCH /api/v1/elections/{election_id}/status", s.handleSetElectionStatus)
	s.mux.HandleFunc("DELETE /api/v1/elections/{election_id}", s.handleDeleteElection)

	s.mux.HandleFunc("GET /api/v1/candidates", s.handleListCandidates)
	s.mux.HandleFunc("POST /api/v1/candidates", s.handleApplyCandidate)
	s.mux.HandleFunc("GET /api/v1/candidates/{candidate_id}", s.handleGetCandidate)
	s.mux.HandleFunc("PATCH /api/v1/candidates/{candidate_id}", s.handleSetCandidateApproval)
	s.mux.HandleFunc("DELETE /api/v1/candidates/{candidate_id}", s.handleDeleteCandidate)

	s.mux.HandleFunc("POST /api/v1/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /api/v1/votes/me", s.handleHasVoted)
	s.mux.HandleFunc("GET /api/v1/results", s.handleTally)
	s.mux.HandleFunc("GET /api/v1/turnout", s.handleTurnout)
}

func (s *Server) handleVoterLogin(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.VoterLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.VoterLoginHandler(r.Context(), req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.AdminLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.AdminLoginHandler(r.Context(), req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterVoter(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.VoterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.RegisterVoterHandler(r.Context(), req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListVoters(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.elections.Handler.ListVotersHandler(r.Context(), actor)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetVoter(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.elections.Handler.GetVoterHandler(r.Context(), actor, r.PathValue("voter_id"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateVoter(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req electionhttp.VoterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.CreateVoterHandler(r.Context(), actor, req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateVoter(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req electionhttp.VoterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.UpdateVoterHandler(r.Context(), actor, r.PathValue("voter_id"), req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApproveVoter(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	approved := true
	if raw := r.URL.Query().Get("approved"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			writeElectionError(w, http.StatusBadRequest, "invalid_approved", "approved must be true or false")
			return
		}
		approved = value
	}
	resp, err := s.elections.Handler.SetVoterApprovalHandler(r.Context(), actor, r.PathValue("voter_id"), approved)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteVoter(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if err := s.elections.Handler.DeleteVoterHandler(r.Context(), actor, r.PathValue("voter_id")); err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.elections.Handler.ListAdminsHandler(r.Context(), actor)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.elections.Handler.GetAdminHandler(r.Context(), actor, r.PathValue("admin_id"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req electionhttp.AdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.CreateAdminHandler(r.Context(), actor, req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req electionhttp.AdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.UpdateAdminHandler(r.Context(), actor, r.PathValue("admin_id"), req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if err := s.elections.Handler.DeleteAdminHandler(r.Context(), actor, r.PathValue("admin_id")); err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListElections(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	resp, err := s.elections.Handler.ListElectionsHandler(r.Context())
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetElection(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	resp, err := s.elections.Handler.GetElectionHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req electionhttp.ElectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.CreateElectionHandler(r.Context(), actor, req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateElection(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req electionhttp.ElectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.UpdateElectionHandler(r.Context(), actor, r.PathValue("election_id"), req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetElectionStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req electionhttp.ElectionStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.SetElectionStatusHandler(r.Context(), actor, r.PathValue("election_id"), req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteElection(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if err := s.elections.Handler.DeleteElectionHandler(r.Context(), actor, r.PathValue("election_id")); err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	electionID := r.URL.Query().Get("electionId")
	if strings.TrimSpace(electionID) == "" {
		writeElectionError(w, http.StatusBadRequest, "missing_election", "electionId query parameter is required")
		return
	}
	resp, err := s.elections.Handler.ListCandidatesHandler(r.Context(), electionID)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	resp, err := s.elections.Handler.GetCandidateHandler(r.Context(), r.PathValue("candidate_id"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApplyCandidate(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req electionhttp.ApplyCandidateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.ApplyCandidateHandler(r.Context(), actor, req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSetCandidateApproval(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req electionhttp.CandidateApprovalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Approved == nil {
		writeElectionError(w, http.StatusBadRequest, "missing_approved", "approved is required")
		return
	}
	resp, err := s.elections.Handler.SetCandidateApprovalHandler(r.Context(), actor, r.PathValue("candidate_id"), *req.Approved)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if err := s.elections.Handler.DeleteCandidateHandler(r.Context(), actor, r.PathValue("candidate_id")); err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req electionhttp.CastVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.CastVoteHandler(r.Context(), actor, r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHasVoted(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	electionID := r.URL.Query().Get("electionId")
	if strings.TrimSpace(electionID) == "" {
		writeElectionError(w, http.StatusBadRequest, "missing_election", "electionId query parameter is required")
		return
	}
	resp, err := s.elections.Handler.HasVotedHandler(r.Context(), actor, electionID)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	electionID := r.URL.Query().Get("electionId")
	if strings.TrimSpace(electionID) == "" {
		writeElectionError(w, http.StatusBadRequest, "missing_election", "electionId query parameter is required")
		return
	}
	resp, err := s.elections.Handler.TallyHandler(r.Context(), electionID)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTurnout(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	electionID := r.URL.Query().Get("electionId")
	if strings.TrimSpace(electionID) == "" {
		writeElectionError(w, http.StatusBadRequest, "missing_election", "electionId query parameter is required")
		return
	}
	resp, err := s.elections.Handler.TurnoutHandler(r.Context(), electionID)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// authenticate resolves the bearer token. It writes the 401 itself, so
// callers only return when ok is false.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (entities.Principal, bool) {
	token, found := bearerToken(r)
	if !found {
		writeElectionError(w, http.StatusUnauthorized, "missing_token", "Authorization: Bearer <token> header is required")
		return entities.Principal{}, false
	}
	principal, err := s.elections.Handler.ResolvePrincipal(r.Context(), token)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return entities.Principal{}, false
	}
	return principal, true
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set("X-Request-Id", requestID)
		}
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r)
	})
}

// writeElectionDomainError maps domain errors onto status codes. Eligibility
// is checked first because an unknown election on the ballot path wraps both
// ErrNotEligible and ErrElectionNotFound.
func (s *Server) writeElectionDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrNotEligible):
		writeElectionError(w, http.StatusUnprocessableEntity, "not_eligible", err.Error())
	case errors.Is(err, domainerrors.ErrValidation):
		writeElectionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domainerrors.ErrUnauthenticated),
		errors.Is(err, domainerrors.ErrInvalidCredentials):
		writeElectionError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, domainerrors.ErrForbidden):
		writeElectionError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domainerrors.ErrPendingApproval):
		writeElectionError(w, http.StatusForbidden, "pending_approval", err.Error())
	case errors.Is(err, domainerrors.ErrVoterNotFound):
		writeElectionError(w, http.StatusNotFound, "voter_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrAdminNotFound):
		writeElectionError(w, http.StatusNotFound, "admin_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrElectionNotFound):
		writeElectionError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrCandidateNotFound):
		writeElectionError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrVoteNotFound):
		writeElectionError(w, http.StatusNotFound, "vote_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrDuplicateVote):
		writeElectionError(w, http.StatusConflict, "duplicate_vote", err.Error())
	case errors.Is(err, domainerrors.ErrDuplicateApplication):
		writeElectionError(w, http.StatusConflict, "duplicate_application", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidTransition):
		writeElectionError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domainerrors.ErrIdempotencyConflict):
		writeElectionError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, domainerrors.ErrConflict):
		writeElectionError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, electionadapter.ErrTurnoutUnavailable):
		writeElectionError(w, http.StatusServiceUnavailable, "turnout_unavailable", err.Error())
	default:
		s.logger.Error("request failed",
			"event", "http_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Header.Get("X-Request-Id"),
			"error", err.Error(),
		)
		writeElectionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeElectionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, electionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads at most maxBodyBytes of request body into target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeElectionError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body exceeds 1 MiB")
			return false
		}
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
