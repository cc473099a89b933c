package ports

import (
	"context"
	"time"

	contractsv1 "univote/contracts/gen/events/v1"
	"univote/contexts/campus-elections/election-service/domain/entities"
)

type VoterRepository interface {
	CreateVoter(ctx context.Context, voter entities.Voter) error
	UpdateVoter(ctx context.Context, voter entities.Voter) error
	GetVoter(ctx context.Context, voterID string) (entities.Voter, error)
	FindVoterByUniversityID(ctx context.Context, universityID string) (entities.Voter, bool, error)
	ListVoters(ctx context.Context) ([]entities.Voter, error)
	// DeleteVoter refuses with ErrConflict while a candidate or vote still
	// references the voter.
	DeleteVoter(ctx context.Context, voterID string) error
}

type AdminRepository interface {
	CreateAdmin(ctx context.Context, admin entities.Admin) error
	UpdateAdmin(ctx context.Context, admin entities.Admin) error
	GetAdmin(ctx context.Context, adminID string) (entities.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (entities.Admin, error)
	ListAdmins(ctx context.Context) ([]entities.Admin, error)
	DeleteAdmin(ctx context.Context, adminID string) error
}

// Every write below that carries an event stores the row and the event's
// outbox entry in one transaction. A zero-value event writes no outbox entry.

type ElectionRepository interface {
	CreateElection(ctx context.Context, election entities.Election, event EventEnvelope) error
	UpdateElection(ctx context.Context, election entities.Election, event EventEnvelope) error
	// GetElection treats soft-deleted rows as absent.
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	ListElections(ctx context.Context) ([]entities.Election, error)
	// DeleteElectionCascade removes the election's votes and candidates and
	// marks the election deleted, atomically.
	DeleteElectionCascade(ctx context.Context, electionID string, deletedAt time.Time, event EventEnvelope) error
}

type CandidateRepository interface {
	// CreateCandidate fails with ErrDuplicateApplication when the voter already
	// applied for the same post in the same election.
	CreateCandidate(ctx context.Context, candidate entities.Candidate, event EventEnvelope) error
	UpdateCandidate(ctx context.Context, candidate entities.Candidate, event EventEnvelope) error
	GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error)
	ListCandidatesByElection(ctx context.Context, electionID string) ([]entities.CandidateListing, error)
	// DeleteCandidateCascade removes the candidate and its votes atomically.
	DeleteCandidateCascade(ctx context.Context, candidateID string, event EventEnvelope) error
}

type VoteRepository interface {
	// CreateVote re-reads the election, candidate and voter, applies
	// services.CheckBallot and the (voter, election) uniqueness rule, then
	// writes the vote, the optional idempotency record and the event as one
	// atomic step. A second ballot fails with ErrDuplicateVote.
	CreateVote(ctx context.Context, vote entities.Vote, idempotency *IdempotencyRecord, event EventEnvelope) error
	GetVote(ctx context.Context, voteID string) (entities.Vote, error)
	FindVote(ctx context.Context, voterID string, electionID string) (entities.Vote, bool, error)
	ListVotesByElection(ctx context.Context, electionID string) ([]entities.Vote, error)
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	VoteID      string
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	// Get hides and drops records whose ExpiresAt has passed. Records are
	// written by VoteRepository.CreateVote.
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash string, plain string) bool
}

type TokenIssuer interface {
	Issue(principal entities.Principal, expiresAt time.Time) (string, error)
	Parse(token string) (entities.Principal, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// TurnoutReader serves the event-fed turnout projection. Counts lag the
// vote table by the outbox relay interval.
type TurnoutReader interface {
	Turnout(electionID string) int
}
