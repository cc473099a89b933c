package postgresadapter

import (
	"context"
	"errors"
	"strings"
	"time"

	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	"univote/contexts/campus-elections/election-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) CreateElection(ctx context.Context, election entities.Election, event ports.EventEnvelope) error {
	row := electionModelFromEntity(election)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return appendOutboxTx(tx, event)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_create_election_failed", err, "election_id", row.ElectionID)
	}
	return nil
}

func (r *Repository) UpdateElection(ctx context.Context, election entities.Election, event ports.EventEnvelope) error {
	row := electionModelFromEntity(election)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&electionModel{}).
			Where("election_id = ? AND deleted = ?", strings.TrimSpace(row.ElectionID), false).
			Updates(map[string]any{
				"name":        row.Name,
				"description": row.Description,
				"start_time":  row.StartTime,
				"end_time":    row.EndTime,
				"status":      row.Status,
				"updated_at":  row.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrElectionNotFound
		}
		return appendOutboxTx(tx, event)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrElectionNotFound) {
			return err
		}
		return r.logError("election_repo_update_election_failed", err, "election_id", row.ElectionID)
	}
	return nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).
		Where("election_id = ? AND deleted = ?", strings.TrimSpace(electionID), false).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("election_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).
		Where("deleted = ?", false).
		Order("start_time ASC, created_at ASC, election_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_elections_failed", err)
	}
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// DeleteElectionCascade takes the election row lock first; CreateVote takes
// a share lock on the same row, so no ballot can land after the cascade.
func (r *Repository) DeleteElectionCascade(
	ctx context.Context,
	electionID string,
	deletedAt time.Time,
	event ports.EventEnvelope,
) error {
	electionID = strings.TrimSpace(electionID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row electionModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("election_id = ? AND deleted = ?", electionID, false).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrElectionNotFound
			}
			return err
		}
		if err := tx.Where("election_id = ?", electionID).Delete(&voteModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("election_id = ?", electionID).Delete(&candidateModel{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&electionModel{}).
			Where("election_id = ?", electionID).
			Updates(map[string]any{
				"deleted":    true,
				"updated_at": deletedAt.UTC(),
			}).Error; err != nil {
			return err
		}
		return appendOutboxTx(tx, event)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrElectionNotFound) {
			return err
		}
		return r.logError("election_repo_delete_election_failed", err, "election_id", electionID)
	}
	return nil
}
