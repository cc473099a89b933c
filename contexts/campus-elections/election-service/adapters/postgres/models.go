package postgresadapter

import (
	"strings"
	"time"

	"univote/contexts/campus-elections/election-service/domain/entities"
)

const (
	uniqueCandidatePost     = "ux_candidates_election_voter_post"
	uniqueVoteVoterElection = "ux_votes_voter_election"
)

type voterModel struct {
	VoterID      string    `gorm:"column:voter_id;primaryKey"`
	FirstName    string    `gorm:"column:first_name;not null"`
	LastName     string    `gorm:"column:last_name;not null"`
	Email        string    `gorm:"column:email;not null;uniqueIndex:ux_voters_email"`
	UniversityID string    `gorm:"column:university_id;not null;uniqueIndex:ux_voters_university_id"`
	PasswordHash string    `gorm:"column:password_hash"`
	Approved     bool      `gorm:"column:approved;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (voterModel) TableName() string {
	return "voters"
}

func voterModelFromEntity(voter entities.Voter) voterModel {
	return voterModel{
		VoterID:      voter.VoterID,
		FirstName:    voter.FirstName,
		LastName:     voter.LastName,
		Email:        voter.Email,
		UniversityID: voter.UniversityID,
		PasswordHash: voter.PasswordHash,
		Approved:     voter.Approved,
		CreatedAt:    voter.CreatedAt.UTC(),
		UpdatedAt:    voter.UpdatedAt.UTC(),
	}
}

func (m voterModel) toEntity() entities.Voter {
	return entities.Voter{
		VoterID:      m.VoterID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		UniversityID: m.UniversityID,
		PasswordHash: m.PasswordHash,
		Approved:     m.Approved,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type adminModel struct {
	AdminID      string    `gorm:"column:admin_id;primaryKey"`
	Username     string    `gorm:"column:username;not null;uniqueIndex:ux_admins_username"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	FirstName    string    `gorm:"column:first_name"`
	LastName     string    `gorm:"column:last_name"`
	Email        string    `gorm:"column:email"`
	Role         string    `gorm:"column:role;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (adminModel) TableName() string {
	return "admins"
}

func adminModelFromEntity(admin entities.Admin) adminModel {
	return adminModel{
		AdminID:      strings.TrimSpace(admin.AdminID),
		Username:     strings.TrimSpace(admin.Username),
		PasswordHash: admin.PasswordHash,
		FirstName:    admin.FirstName,
		LastName:     admin.LastName,
		Email:        admin.Email,
		Role:         string(admin.Role),
		CreatedAt:    admin.CreatedAt.UTC(),
	}
}

func (m adminModel) toEntity() entities.Admin {
	return entities.Admin{
		AdminID:      m.AdminID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		Role:         entities.AdminRole(m.Role),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type electionModel struct {
	ElectionID  string    `gorm:"column:election_id;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	StartTime   time.Time `gorm:"column:start_time;not null"`
	EndTime     time.Time `gorm:"column:end_time;not null"`
	Status      string    `gorm:"column:status;not null;index"`
	Deleted     bool      `gorm:"column:deleted;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

func electionModelFromEntity(election entities.Election) electionModel {
	return electionModel{
		ElectionID:  election.ElectionID,
		Name:        election.Name,
		Description: election.Description,
		StartTime:   election.StartTime.UTC(),
		EndTime:     election.EndTime.UTC(),
		Status:      string(election.Status),
		Deleted:     election.Deleted,
		CreatedAt:   election.CreatedAt.UTC(),
		UpdatedAt:   election.UpdatedAt.UTC(),
	}
}

func (m electionModel) toEntity() entities.Election {
	return entities.Election{
		ElectionID:  m.ElectionID,
		Name:        m.Name,
		Description: m.Description,
		StartTime:   m.StartTime.UTC(),
		EndTime:     m.EndTime.UTC(),
		Status:      entities.ElectionStatus(m.Status),
		Deleted:     m.Deleted,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type candidateModel struct {
	CandidateID  string    `gorm:"column:candidate_id;primaryKey"`
	VoterID      string    `gorm:"column:voter_id;not null;uniqueIndex:ux_candidates_election_voter_post,priority:2"`
	ElectionID   string    `gorm:"column:election_id;not null;uniqueIndex:ux_candidates_election_voter_post,priority:1"`
	Post         string    `gorm:"column:post;not null;uniqueIndex:ux_candidates_election_voter_post,priority:3"`
	Bio          string    `gorm:"column:bio"`
	Approved     bool      `gorm:"column:approved;not null;default:false"`
	RegisteredAt time.Time `gorm:"column:registered_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func candidateModelFromEntity(candidate entities.Candidate) candidateModel {
	return candidateModel{
		CandidateID:  candidate.CandidateID,
		VoterID:      candidate.VoterID,
		ElectionID:   candidate.ElectionID,
		Post:         candidate.Post,
		Bio:          candidate.Bio,
		Approved:     candidate.Approved,
		RegisteredAt: candidate.RegisteredAt.UTC(),
		UpdatedAt:    candidate.UpdatedAt.UTC(),
	}
}

func (m candidateModel) toEntity() entities.Candidate {
	return entities.Candidate{
		CandidateID:  m.CandidateID,
		VoterID:      m.VoterID,
		ElectionID:   m.ElectionID,
		Post:         m.Post,
		Bio:          m.Bio,
		Approved:     m.Approved,
		RegisteredAt: m.RegisteredAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

// candidateListingRow is the scan target for candidates joined with voters.
type candidateListingRow struct {
	CandidateID       string    `gorm:"column:candidate_id"`
	VoterID           string    `gorm:"column:voter_id"`
	ElectionID        string    `gorm:"column:election_id"`
	Post              string    `gorm:"column:post"`
	Bio               string    `gorm:"column:bio"`
	Approved          bool      `gorm:"column:approved"`
	RegisteredAt      time.Time `gorm:"column:registered_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
	VoterFirstName    string    `gorm:"column:voter_first_name"`
	VoterLastName     string    `gorm:"column:voter_last_name"`
	VoterEmail        string    `gorm:"column:voter_email"`
	VoterUniversityID string    `gorm:"column:voter_university_id"`
}

func (r candidateListingRow) toEntity() entities.CandidateListing {
	return entities.CandidateListing{
		Candidate: entities.Candidate{
			CandidateID:  r.CandidateID,
			VoterID:      r.VoterID,
			ElectionID:   r.ElectionID,
			Post:         r.Post,
			Bio:          r.Bio,
			Approved:     r.Approved,
			RegisteredAt: r.RegisteredAt.UTC(),
			UpdatedAt:    r.UpdatedAt.UTC(),
		},
		Voter: entities.VoterSummary{
			VoterID:      r.VoterID,
			FirstName:    r.VoterFirstName,
			LastName:     r.VoterLastName,
			Email:        r.VoterEmail,
			UniversityID: r.VoterUniversityID,
		},
	}
}

type voteModel struct {
	VoteID      string    `gorm:"column:vote_id;primaryKey"`
	VoterID     string    `gorm:"column:voter_id;not null;uniqueIndex:ux_votes_voter_election,priority:1"`
	ElectionID  string    `gorm:"column:election_id;not null;uniqueIndex:ux_votes_voter_election,priority:2"`
	CandidateID string    `gorm:"column:candidate_id;not null;index"`
	Post        string    `gorm:"column:post"`
	CastAt      time.Time `gorm:"column:cast_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		VoteID:      vote.VoteID,
		VoterID:     vote.VoterID,
		ElectionID:  vote.ElectionID,
		CandidateID: vote.CandidateID,
		Post:        vote.Post,
		CastAt:      vote.CastAt.UTC(),
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:      m.VoteID,
		VoterID:     m.VoterID,
		CandidateID: m.CandidateID,
		ElectionID:  m.ElectionID,
		Post:        m.Post,
		CastAt:      m.CastAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	VoteID      string    `gorm:"column:vote_id"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "election_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "election_outbox"
}
