package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	"univote/contexts/campus-elections/election-service/domain/services"
	"univote/contexts/campus-elections/election-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateCandidate holds a share lock on the applicant's voter row so the
// voter cannot be deleted while the application is being written.
func (r *Repository) CreateCandidate(ctx context.Context, candidate entities.Candidate, event ports.EventEnvelope) error {
	row := candidateModelFromEntity(candidate)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var voter voterModel
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("voter_id").
			Where("voter_id = ?", row.VoterID).
			First(&voter).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrVoterNotFound
			}
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return appendOutboxTx(tx, event)
	})
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrVoterNotFound):
			return err
		case violatesConstraint(err, uniqueCandidatePost):
			return domainerrors.ErrDuplicateApplication
		case isUniqueViolation(err):
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_create_candidate_failed", err,
			"candidate_id", row.CandidateID,
			"election_id", row.ElectionID,
			"voter_id", row.VoterID,
		)
	}
	return nil
}

func (r *Repository) UpdateCandidate(ctx context.Context, candidate entities.Candidate, event ports.EventEnvelope) error {
	row := candidateModelFromEntity(candidate)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&candidateModel{}).
			Where("candidate_id = ?", strings.TrimSpace(row.CandidateID)).
			Updates(map[string]any{
				"post":       row.Post,
				"bio":        row.Bio,
				"approved":   row.Approved,
				"updated_at": row.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrCandidateNotFound
		}
		return appendOutboxTx(tx, event)
	})
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrCandidateNotFound):
			return err
		case violatesConstraint(err, uniqueCandidatePost):
			return domainerrors.ErrDuplicateApplication
		}
		return r.logError("election_repo_update_candidate_failed", err, "candidate_id", row.CandidateID)
	}
	return nil
}

func (r *Repository) GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error) {
	var row candidateModel
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", strings.TrimSpace(candidateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Candidate{}, domainerrors.ErrCandidateNotFound
		}
		return entities.Candidate{}, r.logError("election_repo_get_candidate_failed", err,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	return row.toEntity(), nil
}

// ListCandidatesByElection inner-joins voters, so a candidate whose voter
// row is gone is never returned.
func (r *Repository) ListCandidatesByElection(ctx context.Context, electionID string) ([]entities.CandidateListing, error) {
	var rows []candidateListingRow
	err := r.db.WithContext(ctx).
		Table("candidates AS c").
		Select(`c.candidate_id, c.voter_id, c.election_id, c.post, c.bio, c.approved,
			c.registered_at, c.updated_at,
			v.first_name AS voter_first_name, v.last_name AS voter_last_name,
			v.email AS voter_email, v.university_id AS voter_university_id`).
		Joins("JOIN voters AS v ON v.voter_id = c.voter_id").
		Where("c.election_id = ?", strings.TrimSpace(electionID)).
		Order("c.registered_at ASC, c.candidate_id ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.logError("election_repo_list_candidates_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.CandidateListing, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// DeleteCandidateCascade locks the candidate row before removing its votes,
// so a CreateVote holding a share lock on the same row either commits first
// and is cascaded, or waits and then finds the candidate gone.
func (r *Repository) DeleteCandidateCascade(ctx context.Context, candidateID string, event ports.EventEnvelope) error {
	candidateID = strings.TrimSpace(candidateID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row candidateModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("candidate_id").
			Where("candidate_id = ?", candidateID).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrCandidateNotFound
			}
			return err
		}
		if err := tx.Where("candidate_id = ?", candidateID).Delete(&voteModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("candidate_id = ?", candidateID).Delete(&candidateModel{}).Error; err != nil {
			return err
		}
		return appendOutboxTx(tx, event)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrCandidateNotFound) {
			return err
		}
		return r.logError("election_repo_delete_candidate_failed", err, "candidate_id", candidateID)
	}
	return nil
}

// CreateVote relies on ux_votes_voter_election for uniqueness. Share locks
// on the election, candidate and voter rows, taken in that order, hold each
// of them still until commit, and services.CheckBallot runs against the
// locked rows. The vote, the idempotency record and the outbox row commit
// together.
func (r *Repository) CreateVote(
	ctx context.Context,
	vote entities.Vote,
	idempotency *ports.IdempotencyRecord,
	event ports.EventEnvelope,
) error {
	row := voteModelFromEntity(vote)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var election electionModel
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("election_id = ?", row.ElectionID).
			First(&election).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %w", domainerrors.ErrNotEligible, domainerrors.ErrElectionNotFound)
			}
			return err
		}
		if err := services.CheckElectionOpen(election.toEntity()); err != nil {
			return err
		}
		var candidate candidateModel
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("candidate_id = ?", row.CandidateID).
			First(&candidate).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrCandidateNotFound
			}
			return err
		}
		var voter voterModel
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("voter_id = ?", row.VoterID).
			First(&voter).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrVoterNotFound
			}
			return err
		}
		if err := services.CheckBallot(election.toEntity(), candidate.toEntity(), voter.toEntity()); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if idempotency != nil {
			if err := putIdempotencyTx(tx, *idempotency, row.CastAt); err != nil {
				return err
			}
		}
		return appendOutboxTx(tx, event)
	})
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrNotEligible),
			errors.Is(err, domainerrors.ErrPendingApproval),
			errors.Is(err, domainerrors.ErrCandidateNotFound),
			errors.Is(err, domainerrors.ErrVoterNotFound),
			errors.Is(err, domainerrors.ErrIdempotencyConflict):
			return err
		case violatesConstraint(err, uniqueVoteVoterElection):
			return domainerrors.ErrDuplicateVote
		case isUniqueViolation(err):
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_create_vote_failed", err,
			"vote_id", row.VoteID,
			"voter_id", row.VoterID,
			"election_id", row.ElectionID,
		)
	}
	return nil
}

func (r *Repository) GetVote(ctx context.Context, voteID string) (entities.Vote, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("vote_id = ?", strings.TrimSpace(voteID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, domainerrors.ErrVoteNotFound
		}
		return entities.Vote{}, r.logError("election_repo_get_vote_failed", err, "vote_id", strings.TrimSpace(voteID))
	}
	return row.toEntity(), nil
}

func (r *Repository) FindVote(ctx context.Context, voterID string, electionID string) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("voter_id = ? AND election_id = ?", strings.TrimSpace(voterID), strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.logError("election_repo_find_vote_failed", err,
			"voter_id", strings.TrimSpace(voterID),
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListVotesByElection(ctx context.Context, electionID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("cast_at ASC, vote_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_votes_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}
