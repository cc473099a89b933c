package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	"univote/contexts/campus-elections/election-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository is the PostgreSQL system of record for the election service.
// Uniqueness rules live in unique indexes; cascades run in transactions.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates every table and index the repository needs.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&voterModel{},
		&adminModel{},
		&electionModel{},
		&candidateModel{},
		&voteModel{},
		&idempotencyModel{},
		&outboxModel{},
	); err != nil {
		return r.logError("election_repo_migrate_failed", err)
	}
	return nil
}

func (r *Repository) CreateVoter(ctx context.Context, voter entities.Voter) error {
	row := voterModelFromEntity(voter)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_create_voter_failed", err, "voter_id", row.VoterID)
	}
	return nil
}

func (r *Repository) UpdateVoter(ctx context.Context, voter entities.Voter) error {
	row := voterModelFromEntity(voter)
	result := r.db.WithContext(ctx).
		Model(&voterModel{}).
		Where("voter_id = ?", strings.TrimSpace(row.VoterID)).
		Updates(map[string]any{
			"first_name":    row.FirstName,
			"last_name":     row.LastName,
			"email":         row.Email,
			"university_id": row.UniversityID,
			"password_hash": row.PasswordHash,
			"approved":      row.Approved,
			"updated_at":    row.UpdatedAt,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_update_voter_failed", result.Error, "voter_id", row.VoterID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoterNotFound
	}
	return nil
}

func (r *Repository) GetVoter(ctx context.Context, voterID string) (entities.Voter, error) {
	var row voterModel
	err := r.db.WithContext(ctx).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, domainerrors.ErrVoterNotFound
		}
		return entities.Voter{}, r.logError("election_repo_get_voter_failed", err, "voter_id", strings.TrimSpace(voterID))
	}
	return row.toEntity(), nil
}

func (r *Repository) FindVoterByUniversityID(ctx context.Context, universityID string) (entities.Voter, bool, error) {
	var row voterModel
	err := r.db.WithContext(ctx).
		Where("university_id = ?", strings.TrimSpace(universityID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, false, nil
		}
		return entities.Voter{}, false, r.logError("election_repo_find_voter_failed", err,
			"university_id", strings.TrimSpace(universityID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListVoters(ctx context.Context) ([]entities.Voter, error) {
	var rows []voterModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC, voter_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_voters_failed", err)
	}
	items := make([]entities.Voter, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// DeleteVoter locks the voter row so a concurrent application or ballot,
// which takes a share lock on the same row, cannot slip in between the
// reference check and the delete.
func (r *Repository) DeleteVoter(ctx context.Context, voterID string) error {
	voterID = strings.TrimSpace(voterID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row voterModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("voter_id = ?", voterID).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrVoterNotFound
			}
			return err
		}
		var references int64
		if err := tx.Model(&candidateModel{}).Where("voter_id = ?", voterID).Count(&references).Error; err != nil {
			return err
		}
		if references > 0 {
			return domainerrors.ErrConflict
		}
		if err := tx.Model(&voteModel{}).Where("voter_id = ?", voterID).Count(&references).Error; err != nil {
			return err
		}
		if references > 0 {
			return domainerrors.ErrConflict
		}
		return tx.Where("voter_id = ?", voterID).Delete(&voterModel{}).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrVoterNotFound) || errors.Is(err, domainerrors.ErrConflict) {
			return err
		}
		return r.logError("election_repo_delete_voter_failed", err, "voter_id", voterID)
	}
	return nil
}

func (r *Repository) CreateAdmin(ctx context.Context, admin entities.Admin) error {
	row := adminModelFromEntity(admin)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_create_admin_failed", err, "username", row.Username)
	}
	return nil
}

func (r *Repository) GetAdminByUsername(ctx context.Context, username string) (entities.Admin, error) {
	var row adminModel
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = LOWER(?)", strings.TrimSpace(username)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Admin{}, domainerrors.ErrAdminNotFound
		}
		return entities.Admin{}, r.logError("election_repo_get_admin_failed", err, "username", strings.TrimSpace(username))
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateAdmin(ctx context.Context, admin entities.Admin) error {
	row := adminModelFromEntity(admin)
	result := r.db.WithContext(ctx).
		Model(&adminModel{}).
		Where("admin_id = ?", strings.TrimSpace(row.AdminID)).
		Updates(map[string]any{
			"username":      row.Username,
			"password_hash": row.PasswordHash,
			"first_name":    row.FirstName,
			"last_name":     row.LastName,
			"email":         row.Email,
			"role":          row.Role,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_update_admin_failed", result.Error, "admin_id", row.AdminID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAdminNotFound
	}
	return nil
}

func (r *Repository) GetAdmin(ctx context.Context, adminID string) (entities.Admin, error) {
	var row adminModel
	err := r.db.WithContext(ctx).
		Where("admin_id = ?", strings.TrimSpace(adminID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Admin{}, domainerrors.ErrAdminNotFound
		}
		return entities.Admin{}, r.logError("election_repo_get_admin_by_id_failed", err, "admin_id", strings.TrimSpace(adminID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListAdmins(ctx context.Context) ([]entities.Admin, error) {
	var rows []adminModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC, admin_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_admins_failed", err)
	}
	items := make([]entities.Admin, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) DeleteAdmin(ctx context.Context, adminID string) error {
	result := r.db.WithContext(ctx).
		Where("admin_id = ?", strings.TrimSpace(adminID)).
		Delete(&adminModel{})
	if result.Error != nil {
		return r.logError("election_repo_delete_admin_failed", result.Error, "admin_id", strings.TrimSpace(adminID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAdminNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "campus-elections/election-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("election repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func violatesConstraint(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

var _ ports.VoterRepository = (*Repository)(nil)
var _ ports.AdminRepository = (*Repository)(nil)
var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.CandidateRepository = (*Repository)(nil)
var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
