package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	"univote/contexts/campus-elections/election-service/domain/services"
	"univote/contexts/campus-elections/election-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-process implementation of every election-service port.
// All uniqueness checks run under the same write lock as the insert they
// guard.
type Store struct {
	mu sync.RWMutex

	voters      map[string]entities.Voter
	admins      map[string]entities.Admin
	elections   map[string]entities.Election
	candidates  map[string]entities.Candidate
	votes       map[string]entities.Vote
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		voters:      make(map[string]entities.Voter),
		admins:      make(map[string]entities.Admin),
		elections:   make(map[string]entities.Election),
		candidates:  make(map[string]entities.Candidate),
		votes:       make(map[string]entities.Vote),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) CreateVoter(_ context.Context, voter entities.Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voterID := strings.TrimSpace(voter.VoterID)
	if _, ok := s.voters[voterID]; ok {
		return domainerrors.ErrConflict
	}
	if s.voterIdentityTakenLocked(voter, "") {
		return domainerrors.ErrConflict
	}
	s.voters[voterID] = voter
	return nil
}

func (s *Store) UpdateVoter(_ context.Context, voter entities.Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voterID := strings.TrimSpace(voter.VoterID)
	if _, ok := s.voters[voterID]; !ok {
		return domainerrors.ErrVoterNotFound
	}
	if s.voterIdentityTakenLocked(voter, voterID) {
		return domainerrors.ErrConflict
	}
	s.voters[voterID] = voter
	return nil
}

func (s *Store) GetVoter(_ context.Context, voterID string) (entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voter, ok := s.voters[strings.TrimSpace(voterID)]
	if !ok {
		return entities.Voter{}, domainerrors.ErrVoterNotFound
	}
	return voter, nil
}

func (s *Store) FindVoterByUniversityID(_ context.Context, universityID string) (entities.Voter, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	universityID = strings.TrimSpace(universityID)
	for _, voter := range s.voters {
		if voter.UniversityID == universityID {
			return voter, true, nil
		}
	}
	return entities.Voter{}, false, nil
}

func (s *Store) ListVoters(_ context.Context) ([]entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Voter, 0, len(s.voters))
	for _, voter := range s.voters {
		items = append(items, voter)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].VoterID < items[j].VoterID
	})
	return items, nil
}

func (s *Store) DeleteVoter(_ context.Context, voterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voterID = strings.TrimSpace(voterID)
	if _, ok := s.voters[voterID]; !ok {
		return domainerrors.ErrVoterNotFound
	}
	for _, candidate := range s.candidates {
		if candidate.VoterID == voterID {
			return domainerrors.ErrConflict
		}
	}
	for _, vote := range s.votes {
		if vote.VoterID == voterID {
			return domainerrors.ErrConflict
		}
	}
	delete(s.voters, voterID)
	return nil
}

func (s *Store) CreateAdmin(_ context.Context, admin entities.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	adminID := strings.TrimSpace(admin.AdminID)
	if _, ok := s.admins[adminID]; ok {
		return domainerrors.ErrConflict
	}
	if s.usernameTakenLocked(admin.Username, "") {
		return domainerrors.ErrConflict
	}
	s.admins[adminID] = admin
	return nil
}

func (s *Store) UpdateAdmin(_ context.Context, admin entities.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	adminID := strings.TrimSpace(admin.AdminID)
	if _, ok := s.admins[adminID]; !ok {
		return domainerrors.ErrAdminNotFound
	}
	if s.usernameTakenLocked(admin.Username, adminID) {
		return domainerrors.ErrConflict
	}
	s.admins[adminID] = admin
	return nil
}

func (s *Store) GetAdmin(_ context.Context, adminID string) (entities.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	admin, ok := s.admins[strings.TrimSpace(adminID)]
	if !ok {
		return entities.Admin{}, domainerrors.ErrAdminNotFound
	}
	return admin, nil
}

func (s *Store) GetAdminByUsername(_ context.Context, username string) (entities.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	username = strings.TrimSpace(username)
	for _, admin := range s.admins {
		if strings.EqualFold(admin.Username, username) {
			return admin, nil
		}
	}
	return entities.Admin{}, domainerrors.ErrAdminNotFound
}

func (s *Store) ListAdmins(_ context.Context) ([]entities.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Admin, 0, len(s.admins))
	for _, admin := range s.admins {
		items = append(items, admin)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].AdminID < items[j].AdminID
	})
	return items, nil
}

func (s *Store) DeleteAdmin(_ context.Context, adminID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	adminID = strings.TrimSpace(adminID)
	if _, ok := s.admins[adminID]; !ok {
		return domainerrors.ErrAdminNotFound
	}
	delete(s.admins, adminID)
	return nil
}

func (s *Store) CreateElection(_ context.Context, election entities.Election, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	electionID := strings.TrimSpace(election.ElectionID)
	if _, ok := s.elections[electionID]; ok {
		return domainerrors.ErrConflict
	}
	row, err := prepareOutboxRecord(event)
	if err != nil {
		return err
	}
	if err := s.checkOutboxLocked(row); err != nil {
		return err
	}
	s.elections[electionID] = election
	s.putOutboxLocked(row)
	return nil
}

func (s *Store) UpdateElection(_ context.Context, election entities.Election, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	electionID := strings.TrimSpace(election.ElectionID)
	current, ok := s.elections[electionID]
	if !ok || current.Deleted {
		return domainerrors.ErrElectionNotFound
	}
	row, err := prepareOutboxRecord(event)
	if err != nil {
		return err
	}
	if err := s.checkOutboxLocked(row); err != nil {
		return err
	}
	s.elections[electionID] = election
	s.putOutboxLocked(row)
	return nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok || election.Deleted {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) ListElections(_ context.Context) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0, len(s.elections))
	for _, election := range s.elections {
		if election.Deleted {
			continue
		}
		items = append(items, election)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].StartTime.Equal(items[j].StartTime) {
			return items[i].StartTime.Before(items[j].StartTime)
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ElectionID < items[j].ElectionID
	})
	return items, nil
}

func (s *Store) DeleteElectionCascade(_ context.Context, electionID string, deletedAt time.Time, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	electionID = strings.TrimSpace(electionID)
	election, ok := s.elections[electionID]
	if !ok || election.Deleted {
		return domainerrors.ErrElectionNotFound
	}
	row, err := prepareOutboxRecord(event)
	if err != nil {
		return err
	}
	if err := s.checkOutboxLocked(row); err != nil {
		return err
	}
	for voteID, vote := range s.votes {
		if vote.ElectionID == electionID {
			delete(s.votes, voteID)
		}
	}
	for candidateID, candidate := range s.candidates {
		if candidate.ElectionID == electionID {
			delete(s.candidates, candidateID)
		}
	}
	election.Deleted = true
	election.UpdatedAt = deletedAt.UTC()
	s.elections[electionID] = election
	s.putOutboxLocked(row)
	return nil
}

func (s *Store) CreateCandidate(_ context.Context, candidate entities.Candidate, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidateID := strings.TrimSpace(candidate.CandidateID)
	if _, ok := s.candidates[candidateID]; ok {
		return domainerrors.ErrConflict
	}
	if _, ok := s.voters[candidate.VoterID]; !ok {
		return domainerrors.ErrVoterNotFound
	}
	for _, existing := range s.candidates {
		if existing.ElectionID == candidate.ElectionID &&
			existing.VoterID == candidate.VoterID &&
			existing.Post == candidate.Post {
			return domainerrors.ErrDuplicateApplication
		}
	}
	row, err := prepareOutboxRecord(event)
	if err != nil {
		return err
	}
	if err := s.checkOutboxLocked(row); err != nil {
		return err
	}
	s.candidates[candidateID] = candidate
	s.putOutboxLocked(row)
	return nil
}

func (s *Store) UpdateCandidate(_ context.Context, candidate entities.Candidate, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidateID := strings.TrimSpace(candidate.CandidateID)
	if _, ok := s.candidates[candidateID]; !ok {
		return domainerrors.ErrCandidateNotFound
	}
	row, err := prepareOutboxRecord(event)
	if err != nil {
		return err
	}
	if err := s.checkOutboxLocked(row); err != nil {
		return err
	}
	s.candidates[candidateID] = candidate
	s.putOutboxLocked(row)
	return nil
}

func (s *Store) GetCandidate(_ context.Context, candidateID string) (entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidate, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return entities.Candidate{}, domainerrors.ErrCandidateNotFound
	}
	return candidate, nil
}

// ListCandidatesByElection joins each candidate with its voter and drops
// candidates whose voter no longer resolves.
func (s *Store) ListCandidatesByElection(_ context.Context, electionID string) ([]entities.CandidateListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	electionID = strings.TrimSpace(electionID)
	items := make([]entities.CandidateListing, 0)
	for _, candidate := range s.candidates {
		if candidate.ElectionID != electionID {
			continue
		}
		voter, ok := s.voters[candidate.VoterID]
		if !ok {
			continue
		}
		items = append(items, entities.CandidateListing{
			Candidate: candidate,
			Voter:     voter.Summary(),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		left, right := items[i].Candidate, items[j].Candidate
		if !left.RegisteredAt.Equal(right.RegisteredAt) {
			return left.RegisteredAt.Before(right.RegisteredAt)
		}
		return left.CandidateID < right.CandidateID
	})
	return items, nil
}

func (s *Store) DeleteCandidateCascade(_ context.Context, candidateID string, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidateID = strings.TrimSpace(candidateID)
	if _, ok := s.candidates[candidateID]; !ok {
		return domainerrors.ErrCandidateNotFound
	}
	row, err := prepareOutboxRecord(event)
	if err != nil {
		return err
	}
	if err := s.checkOutboxLocked(row); err != nil {
		return err
	}
	for voteID, vote := range s.votes {
		if vote.CandidateID == candidateID {
			delete(s.votes, voteID)
		}
	}
	delete(s.candidates, candidateID)
	s.putOutboxLocked(row)
	return nil
}

// CreateVote runs every ballot check and the (voter, election) uniqueness
// check under the same lock as the insert, so a ballot never lands for a
// voter, candidate or election that changed since the caller looked. The
// vote, its idempotency record and its event are stored together or not at
// all.
func (s *Store) CreateVote(
	_ context.Context,
	vote entities.Vote,
	idempotency *ports.IdempotencyRecord,
	event ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	election, ok := s.elections[strings.TrimSpace(vote.ElectionID)]
	if !ok {
		return fmt.Errorf("%w: %w", domainerrors.ErrNotEligible, domainerrors.ErrElectionNotFound)
	}
	if err := services.CheckElectionOpen(election); err != nil {
		return err
	}
	candidate, ok := s.candidates[strings.TrimSpace(vote.CandidateID)]
	if !ok {
		return domainerrors.ErrCandidateNotFound
	}
	voter, ok := s.voters[strings.TrimSpace(vote.VoterID)]
	if !ok {
		return domainerrors.ErrVoterNotFound
	}
	if err := services.CheckBallot(election, candidate, voter); err != nil {
		return err
	}
	for _, existing := range s.votes {
		if existing.VoterID == vote.VoterID && existing.ElectionID == vote.ElectionID {
			return domainerrors.ErrDuplicateVote
		}
	}

	var record ports.IdempotencyRecord
	if idempotency != nil {
		record = *idempotency
		record.Key = strings.TrimSpace(record.Key)
		existing, found := s.idempotency[record.Key]
		if found && existing.RequestHash != record.RequestHash && vote.CastAt.Before(existing.ExpiresAt) {
			return domainerrors.ErrIdempotencyConflict
		}
	}
	row, err := prepareOutboxRecord(event)
	if err != nil {
		return err
	}
	if err := s.checkOutboxLocked(row); err != nil {
		return err
	}

	s.votes[strings.TrimSpace(vote.VoteID)] = vote
	if idempotency != nil {
		s.idempotency[record.Key] = record
	}
	s.putOutboxLocked(row)
	return nil
}

func (s *Store) GetVote(_ context.Context, voteID string) (entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return vote, nil
}

func (s *Store) FindVote(_ context.Context, voterID string, electionID string) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voterID = strings.TrimSpace(voterID)
	electionID = strings.TrimSpace(electionID)
	for _, vote := range s.votes {
		if vote.VoterID == voterID && vote.ElectionID == electionID {
			return vote, true, nil
		}
	}
	return entities.Vote{}, false, nil
}

func (s *Store) ListVotesByElection(_ context.Context, electionID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	electionID = strings.TrimSpace(electionID)
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.ElectionID == electionID {
			items = append(items, vote)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CastAt.Equal(items[j].CastAt) {
			return items[i].CastAt.Before(items[j].CastAt)
		}
		return items[i].VoteID < items[j].VoteID
	})
	return items, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key = strings.TrimSpace(key)
	record, ok := s.idempotency[key]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.IsZero() && now.UTC().After(record.ExpiresAt.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

// prepareOutboxRecord encodes event before any state changes, so a bad
// envelope fails the whole write. A zero-value event yields no record.
func prepareOutboxRecord(event ports.EventEnvelope) (*outboxRecord, error) {
	if strings.TrimSpace(event.EventID) == "" && strings.TrimSpace(event.EventType) == "" {
		return nil, nil
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     strings.TrimSpace(event.EventID),
			EventType:    strings.TrimSpace(event.EventType),
			PartitionKey: strings.TrimSpace(event.PartitionKey),
			Payload:      payload,
			CreatedAt:    event.OccurredAt.UTC(),
		},
	}, nil
}

// checkOutboxLocked rejects a reused event id carrying a different payload.
func (s *Store) checkOutboxLocked(row *outboxRecord) error {
	if row == nil {
		return nil
	}
	if existing, ok := s.outbox[row.message.OutboxID]; ok && !bytes.Equal(existing.message.Payload, row.message.Payload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (s *Store) putOutboxLocked(row *outboxRecord) {
	if row == nil {
		return
	}
	if _, ok := s.outbox[row.message.OutboxID]; ok {
		return
	}
	s.outbox[row.message.OutboxID] = *row
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].OutboxID < items[j].OutboxID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) usernameTakenLocked(username string, exceptID string) bool {
	username = strings.TrimSpace(username)
	for id, existing := range s.admins {
		if id != exceptID && strings.EqualFold(existing.Username, username) {
			return true
		}
	}
	return false
}

func (s *Store) voterIdentityTakenLocked(voter entities.Voter, exceptID string) bool {
	for id, existing := range s.voters {
		if id == exceptID {
			continue
		}
		if strings.EqualFold(existing.Email, voter.Email) || existing.UniversityID == voter.UniversityID {
			return true
		}
	}
	return false
}

var _ ports.VoterRepository = (*Store)(nil)
var _ ports.AdminRepository = (*Store)(nil)
var _ ports.ElectionRepository = (*Store)(nil)
var _ ports.CandidateRepository = (*Store)(nil)
var _ ports.VoteRepository = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
