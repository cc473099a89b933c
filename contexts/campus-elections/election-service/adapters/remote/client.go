package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	httptransport "univote/contexts/campus-elections/election-service/transport/http"
)

const maxErrorBody = 64 << 10

// Client talks to the election API over HTTP. Every call is bounded by the
// client timeout and the caller's context. Rejections come back as domain
// errors; anything that never produced a response is ErrTimeout or
// ErrNetwork.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// WithToken returns a copy that sends token as the bearer credential.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

func (c *Client) VoterLogin(ctx context.Context, req httptransport.VoterLoginRequest) (httptransport.SessionResponse, error) {
	var out httptransport.SessionResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/voters/login", nil, req, nil, &out)
	return out, err
}

func (c *Client) AdminLogin(ctx context.Context, req httptransport.AdminLoginRequest) (httptransport.SessionResponse, error) {
	var out httptransport.SessionResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/admins/login", nil, req, nil, &out)
	return out, err
}

func (c *Client) RegisterVoter(ctx context.Context, req httptransport.VoterRequest) (httptransport.VoterResponse, error) {
	var out httptransport.VoterResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/voters/register", nil, req, nil, &out)
	return out, err
}

func (c *Client) ListVoters(ctx context.Context) ([]httptransport.VoterResponse, error) {
	var out []httptransport.VoterResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/voters", nil, nil, nil, &out)
	return out, err
}

func (c *Client) GetVoter(ctx context.Context, voterID string) (httptransport.VoterResponse, error) {
	var out httptransport.VoterResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/voters/"+url.PathEscape(voterID), nil, nil, nil, &out)
	return out, err
}

func (c *Client) CreateVoter(ctx context.Context, req httptransport.VoterRequest) (httptransport.VoterResponse, error) {
	var out httptransport.VoterResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/voters", nil, req, nil, &out)
	return out, err
}

func (c *Client) SetVoterApproval(ctx context.Context, voterID string, approved bool) (httptransport.VoterResponse, error) {
	var out httptransport.VoterResponse
	query := url.Values{"approved": []string{strconv.FormatBool(approved)}}
	err := c.do(ctx, http.MethodPut, "/api/v1/voters/"+url.PathEscape(voterID)+"/approve", query, nil, nil, &out)
	return out, err
}

func (c *Client) DeleteVoter(ctx context.Context, voterID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/voters/"+url.PathEscape(voterID), nil, nil, nil, nil)
}

func (c *Client) ListAdmins(ctx context.Context) ([]httptransport.AdminResponse, error) {
	var out []httptransport.AdminResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/admins", nil, nil, nil, &out)
	return out, err
}

func (c *Client) GetAdmin(ctx context.Context, adminID string) (httptransport.AdminResponse, error) {
	var out httptransport.AdminResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/admins/"+url.PathEscape(adminID), nil, nil, nil, &out)
	return out, err
}

func (c *Client) CreateAdmin(ctx context.Context, req httptransport.AdminRequest) (httptransport.AdminResponse, error) {
	var out httptransport.AdminResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/admins", nil, req, nil, &out)
	return out, err
}

func (c *Client) UpdateAdmin(ctx context.Context, adminID string, req httptransport.AdminRequest) (httptransport.AdminResponse, error) {
	var out httptransport.AdminResponse
	err := c.do(ctx, http.MethodPut, "/api/v1/admins/"+url.PathEscape(adminID), nil, req, nil, &out)
	return out, err
}

func (c *Client) DeleteAdmin(ctx context.Context, adminID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/admins/"+url.PathEscape(adminID), nil, nil, nil, nil)
}

func (c *Client) ListElections(ctx context.Context) ([]httptransport.ElectionResponse, error) {
	var out []httptransport.ElectionResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/elections", nil, nil, nil, &out)
	return out, err
}

func (c *Client) GetElection(ctx context.Context, electionID string) (httptransport.ElectionResponse, error) {
	var out httptransport.ElectionResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/elections/"+url.PathEscape(electionID), nil, nil, nil, &out)
	return out, err
}

func (c *Client) CreateElection(ctx context.Context, req httptransport.ElectionRequest) (httptransport.ElectionResponse, error) {
	var out httptransport.ElectionResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/elections", nil, req, nil, &out)
	return out, err
}

func (c *Client) SetElectionStatus(ctx context.Context, electionID string, status string) (httptransport.ElectionResponse, error) {
	var out httptransport.ElectionResponse
	err := c.do(ctx, http.MethodPatch, "/api/v1/elections/"+url.PathEscape(electionID)+"/status", nil,
		httptransport.ElectionStatusRequest{Status: status}, nil, &out)
	return out, err
}

func (c *Client) DeleteElection(ctx context.Context, electionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/elections/"+url.PathEscape(electionID), nil, nil, nil, nil)
}

func (c *Client) ListCandidates(ctx context.Context, electionID string) ([]httptransport.CandidateResponse, error) {
	var out []httptransport.CandidateResponse
	query := url.Values{"electionId": []string{electionID}}
	err := c.do(ctx, http.MethodGet, "/api/v1/candidates", query, nil, nil, &out)
	return out, err
}

func (c *Client) GetCandidate(ctx context.Context, candidateID string) (httptransport.CandidateResponse, error) {
	var out httptransport.CandidateResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/candidates/"+url.PathEscape(candidateID), nil, nil, nil, &out)
	return out, err
}

func (c *Client) ApplyCandidate(ctx context.Context, req httptransport.ApplyCandidateRequest) (httptransport.CandidateResponse, error) {
	var out httptransport.CandidateResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/candidates", nil, req, nil, &out)
	return out, err
}

func (c *Client) SetCandidateApproval(ctx context.Context, candidateID string, approved bool) (httptransport.CandidateResponse, error) {
	var out httptransport.CandidateResponse
	err := c.do(ctx, http.MethodPatch, "/api/v1/candidates/"+url.PathEscape(candidateID), nil,
		httptransport.CandidateApprovalRequest{Approved: &approved}, nil, &out)
	return out, err
}

func (c *Client) DeleteCandidate(ctx context.Context, candidateID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/candidates/"+url.PathEscape(candidateID), nil, nil, nil, nil)
}

// CastVote submits one ballot. A non-empty idempotencyKey lets the caller
// retry after ErrTimeout or ErrNetwork without risking a duplicate.
func (c *Client) CastVote(ctx context.Context, req httptransport.CastVoteRequest, idempotencyKey string) (httptransport.VoteResponse, error) {
	var out httptransport.VoteResponse
	var headers http.Header
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		headers = http.Header{"Idempotency-Key": []string{key}}
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/votes", nil, req, headers, &out)
	return out, err
}

func (c *Client) HasVoted(ctx context.Context, electionID string) (httptransport.HasVotedResponse, error) {
	var out httptransport.HasVotedResponse
	query := url.Values{"electionId": []string{electionID}}
	err := c.do(ctx, http.MethodGet, "/api/v1/votes/me", query, nil, nil, &out)
	return out, err
}

func (c *Client) Tally(ctx context.Context, electionID string) (httptransport.TallyResponse, error) {
	var out httptransport.TallyResponse
	query := url.Values{"electionId": []string{electionID}}
	err := c.do(ctx, http.MethodGet, "/api/v1/results", query, nil, nil, &out)
	return out, err
}

// Turnout reads the event-fed count. A 503 means the API process does not
// host the projection and comes back as ErrNetwork.
func (c *Client) Turnout(ctx context.Context, electionID string) (httptransport.TurnoutResponse, error) {
	var out httptransport.TurnoutResponse
	query := url.Values{"electionId": []string{electionID}}
	err := c.do(ctx, http.MethodGet, "/api/v1/turnout", query, nil, nil, &out)
	return out, err
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body any,
	headers http.Header,
	out any,
) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for name, values := range headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		mapped := classifyTransportError(err)
		c.logger.Warn("election api request failed",
			"event", "election_remote_request_failed",
			"module", "campus-elections/election-service",
			"layer", "adapter",
			"method", method,
			"path", path,
			"error", err.Error(),
		)
		return mapped
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if transport := classifyReadError(err); transport != nil {
				return transport
			}
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return nil
	}

	var apiErr httptransport.ErrorResponse
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if readErr != nil {
		if transport := classifyReadError(readErr); transport != nil {
			return transport
		}
	}
	_ = json.Unmarshal(raw, &apiErr)
	mapped := mapStatus(resp.StatusCode, path, apiErr)
	c.logger.Info("election api rejected request",
		"event", "election_remote_request_rejected",
		"module", "campus-elections/election-service",
		"layer", "adapter",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"code", apiErr.Code,
	)
	return mapped
}

// mapStatus turns an error response into a domain error. The error code wins
// over the status so 409s and 403s resolve to the precise sentinel. 5xx
// responses count as network failures since the request may be retried.
func mapStatus(status int, path string, apiErr httptransport.ErrorResponse) error {
	message := strings.TrimSpace(apiErr.Message)
	if message == "" {
		message = http.StatusText(status)
	}
	if sentinel, ok := codeErrors[apiErr.Code]; ok {
		return fmt.Errorf("%w: %s", sentinel, message)
	}

	var sentinel error
	switch {
	case status == http.StatusBadRequest:
		sentinel = domainerrors.ErrValidation
	case status == http.StatusUnauthorized:
		sentinel = domainerrors.ErrUnauthenticated
	case status == http.StatusForbidden:
		sentinel = domainerrors.ErrForbidden
	case status == http.StatusNotFound:
		sentinel = notFoundFor(path)
	case status == http.StatusConflict:
		sentinel = domainerrors.ErrConflict
	case status == http.StatusUnprocessableEntity:
		sentinel = domainerrors.ErrNotEligible
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		sentinel = domainerrors.ErrTimeout
	case status >= 500:
		sentinel = domainerrors.ErrNetwork
	default:
		sentinel = domainerrors.ErrValidation
	}
	return fmt.Errorf("%w: %s (status %d)", sentinel, message, status)
}

var codeErrors = map[string]error{
	"invalid_request":       domainerrors.ErrValidation,
	"invalid_json":          domainerrors.ErrValidation,
	"request_too_large":     domainerrors.ErrValidation,
	"unauthenticated":       domainerrors.ErrUnauthenticated,
	"missing_token":         domainerrors.ErrUnauthenticated,
	"forbidden":             domainerrors.ErrForbidden,
	"pending_approval":      domainerrors.ErrPendingApproval,
	"not_eligible":          domainerrors.ErrNotEligible,
	"duplicate_vote":        domainerrors.ErrDuplicateVote,
	"duplicate_application": domainerrors.ErrDuplicateApplication,
	"invalid_transition":    domainerrors.ErrInvalidTransition,
	"idempotency_conflict":  domainerrors.ErrIdempotencyConflict,
	"conflict":              domainerrors.ErrConflict,
	"voter_not_found":       domainerrors.ErrVoterNotFound,
	"admin_not_found":       domainerrors.ErrAdminNotFound,
	"election_not_found":    domainerrors.ErrElectionNotFound,
	"candidate_not_found":   domainerrors.ErrCandidateNotFound,
	"vote_not_found":        domainerrors.ErrVoteNotFound,
}

func notFoundFor(path string) error {
	switch {
	case strings.HasPrefix(path, "/api/v1/voters"):
		return domainerrors.ErrVoterNotFound
	case strings.HasPrefix(path, "/api/v1/admins"):
		return domainerrors.ErrAdminNotFound
	case strings.HasPrefix(path, "/api/v1/candidates"):
		return domainerrors.ErrCandidateNotFound
	default:
		return domainerrors.ErrElectionNotFound
	}
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domainerrors.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", domainerrors.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", domainerrors.ErrNetwork, err)
}

// classifyReadError reports body read failures caused by the transport and
// returns nil for plain decoding problems.
func classifyReadError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return classifyTransportError(err)
	}
	return nil
}
