package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "univote/contexts/campus-elections/election-service/application"
	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	"univote/contexts/campus-elections/election-service/ports"
)

type VoterCredentials struct {
	FirstName    string
	LastName     string
	Email        string
	UniversityID string
}

type AdminCredentials struct {
	Username string
	Password string
}

// Session is the result of a successful login. Callers pass Principal
// explicitly into every subsequent operation and present Token on the wire.
type Session struct {
	Principal entities.Principal
	Token     string
	ExpiresAt time.Time
	Voter     *entities.Voter
	Admin     *entities.Admin
}

// SessionUseCase authenticates voters and admins and resolves bearer tokens
// back into principals.
type SessionUseCase struct {
	Voters     ports.VoterRepository
	Admins     ports.AdminRepository
	Hasher     ports.PasswordHasher
	Tokens     ports.TokenIssuer
	Clock      ports.Clock
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// AuthenticateVoter looks the voter up by university id and then matches
// first name, last name and email case-insensitively.
func (uc SessionUseCase) AuthenticateVoter(ctx context.Context, creds VoterCredentials) (Session, error) {
	logger := application.ResolveLogger(uc.Logger)
	universityID := strings.TrimSpace(creds.UniversityID)
	if strings.TrimSpace(creds.FirstName) == "" ||
		strings.TrimSpace(creds.LastName) == "" ||
		strings.TrimSpace(creds.Email) == "" ||
		universityID == "" {
		logger.Warn("voter login validation failed",
			"event", "election_voter_login_validation_failed",
			"module", "campus-elections/election-service",
			"layer", "application",
			"university_id", universityID,
		)
		return Session{}, domainerrors.ErrValidation
	}

	voter, found, err := uc.Voters.FindVoterByUniversityID(ctx, universityID)
	if err != nil {
		logger.Error("voter login lookup failed",
			"event", "election_voter_login_lookup_failed",
			"module", "campus-elections/election-service",
			"layer", "application",
			"university_id", universityID,
			"error", err.Error(),
		)
		return Session{}, err
	}
	if !found ||
		!sameIdentity(voter.FirstName, creds.FirstName) ||
		!sameIdentity(voter.LastName, creds.LastName) ||
		!sameIdentity(voter.Email, creds.Email) {
		logger.Warn("voter login found no matching voter",
			"event", "election_voter_login_not_found",
			"module", "campus-elections/election-service",
			"layer", "application",
			"university_id", universityID,
		)
		return Session{}, domainerrors.ErrVoterNotFound
	}
	if !voter.Approved {
		logger.Info("voter login pending approval",
			"event", "election_voter_login_pending",
			"module", "campus-elections/election-service",
			"layer", "application",
			"voter_id", voter.VoterID,
		)
		return Session{}, domainerrors.ErrPendingApproval
	}

	session, err := uc.issue(entities.Principal{
		ID:          voter.VoterID,
		Role:        entities.RoleVoter,
		DisplayName: voter.FullName(),
	})
	if err != nil {
		return Session{}, err
	}
	voter.PasswordHash = ""
	session.Voter = &voter
	logger.Info("voter authenticated",
		"event", "election_voter_authenticated",
		"module", "campus-elections/election-service",
		"layer", "application",
		"voter_id", voter.VoterID,
	)
	return session, nil
}

// AuthenticateAdmin checks username and password. Every failure reports
// ErrInvalidCredentials so callers cannot tell which usernames exist.
func (uc SessionUseCase) AuthenticateAdmin(ctx context.Context, creds AdminCredentials) (Session, error) {
	logger := application.ResolveLogger(uc.Logger)
	username := strings.TrimSpace(creds.Username)
	if username == "" || creds.Password == "" {
		return Session{}, domainerrors.ErrInvalidCredentials
	}

	admin, err := uc.Admins.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAdminNotFound) {
			logger.Warn("admin login unknown username",
				"event", "election_admin_login_rejected",
				"module", "campus-elections/election-service",
				"layer", "application",
				"username", username,
			)
			return Session{}, domainerrors.ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !uc.Hasher.Compare(admin.PasswordHash, creds.Password) {
		logger.Warn("admin login password mismatch",
			"event", "election_admin_login_rejected",
			"module", "campus-elections/election-service",
			"layer", "application",
			"username", username,
		)
		return Session{}, domainerrors.ErrInvalidCredentials
	}

	session, err := uc.issue(entities.Principal{
		ID:          admin.AdminID,
		Role:        entities.RoleAdmin,
		DisplayName: admin.Username,
	})
	if err != nil {
		return Session{}, err
	}
	admin.PasswordHash = ""
	session.Admin = &admin
	logger.Info("admin authenticated",
		"event", "election_admin_authenticated",
		"module", "campus-elections/election-service",
		"layer", "application",
		"admin_id", admin.AdminID,
	)
	return session, nil
}

// ResolvePrincipal turns a bearer token into the principal it was issued for.
func (uc SessionUseCase) ResolvePrincipal(_ context.Context, token string) (entities.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" || uc.Tokens == nil {
		return entities.Principal{}, domainerrors.ErrUnauthenticated
	}
	principal, err := uc.Tokens.Parse(token)
	if err != nil || !principal.Authenticated() {
		return entities.Principal{}, domainerrors.ErrUnauthenticated
	}
	return principal, nil
}

func (uc SessionUseCase) issue(principal entities.Principal) (Session, error) {
	ttl := uc.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	expiresAt := resolveNow(uc.Clock).Add(ttl)
	token, err := uc.Tokens.Issue(principal, expiresAt)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Principal: principal,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func sameIdentity(stored string, supplied string) bool {
	return strings.EqualFold(strings.TrimSpace(stored), strings.TrimSpace(supplied))
}
