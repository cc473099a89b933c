package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	application "univote/contexts/campus-elections/election-service/application"
	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	"univote/contexts/campus-elections/election-service/domain/services"
	"univote/contexts/campus-elections/election-service/ports"
)

type AdminSeed struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
	Role      string
}

// AdminInput carries the editable admin fields. Password is optional on
// update; when empty the stored hash is kept.
type AdminInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
	Role      string
}

// AdminUseCase provisions admin accounts. There is no self-service path for
// admins; the first ones come from the seed file loaded at process start and
// any signed-in admin can manage the rest.
type AdminUseCase struct {
	Admins ports.AdminRepository
	Hasher ports.PasswordHasher
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// SeedAdmins creates every seed whose username is not taken yet and returns
// how many were created. Existing usernames are left untouched.
func (uc AdminUseCase) SeedAdmins(ctx context.Context, seeds []AdminSeed) (int, error) {
	logger := application.ResolveLogger(uc.Logger)
	created := 0
	for _, seed := range seeds {
		username := strings.TrimSpace(seed.Username)
		if username == "" || seed.Password == "" {
			return created, domainerrors.ErrValidation
		}
		if _, err := uc.Admins.GetAdminByUsername(ctx, username); err == nil {
			continue
		} else if !errors.Is(err, domainerrors.ErrAdminNotFound) {
			return created, err
		}

		adminID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return created, err
		}
		hash, err := uc.Hasher.Hash(seed.Password)
		if err != nil {
			return created, err
		}
		role, _ := parseAdminRole(seed.Role)
		admin := entities.Admin{
			AdminID:      adminID,
			Username:     username,
			PasswordHash: hash,
			FirstName:    strings.TrimSpace(seed.FirstName),
			LastName:     strings.TrimSpace(seed.LastName),
			Email:        strings.ToLower(strings.TrimSpace(seed.Email)),
			Role:         role,
			CreatedAt:    resolveNow(uc.Clock),
		}
		if err := uc.Admins.CreateAdmin(ctx, admin); err != nil {
			if errors.Is(err, domainerrors.ErrConflict) {
				continue
			}
			return created, err
		}
		created++
		logger.Info("admin seeded",
			"event", "election_admin_seeded",
			"module", "campus-elections/election-service",
			"layer", "application",
			"admin_id", admin.AdminID,
			"username", admin.Username,
		)
	}
	return created, nil
}

func (uc AdminUseCase) ListAdmins(ctx context.Context, actor entities.Principal) ([]entities.Admin, error) {
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return nil, err
	}
	items, err := uc.Admins.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].PasswordHash = ""
	}
	return items, nil
}

func (uc AdminUseCase) GetAdmin(ctx context.Context, actor entities.Principal, adminID string) (entities.Admin, error) {
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return entities.Admin{}, err
	}
	admin, err := uc.Admins.GetAdmin(ctx, strings.TrimSpace(adminID))
	if err != nil {
		return entities.Admin{}, err
	}
	admin.PasswordHash = ""
	return admin, nil
}

func (uc AdminUseCase) CreateAdmin(ctx context.Context, actor entities.Principal, input AdminInput) (entities.Admin, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return entities.Admin{}, err
	}
	input = normalizeAdminInput(input)
	role, err := validateAdminInput(input, true)
	if err != nil {
		return entities.Admin{}, err
	}
	adminID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Admin{}, err
	}
	hash, err := uc.Hasher.Hash(input.Password)
	if err != nil {
		return entities.Admin{}, err
	}
	admin := entities.Admin{
		AdminID:      adminID,
		Username:     input.Username,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Role:         role,
		CreatedAt:    resolveNow(uc.Clock),
	}
	if err := uc.Admins.CreateAdmin(ctx, admin); err != nil {
		return entities.Admin{}, err
	}
	logger.Info("admin created",
		"event", "election_admin_created",
		"module", "campus-elections/election-service",
		"layer", "application",
		"admin_id", admin.AdminID,
		"actor_id", actor.ID,
	)
	admin.PasswordHash = ""
	return admin, nil
}

func (uc AdminUseCase) UpdateAdmin(
	ctx context.Context,
	actor entities.Principal,
	adminID string,
	input AdminInput,
) (entities.Admin, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return entities.Admin{}, err
	}
	input = normalizeAdminInput(input)
	role, err := validateAdminInput(input, false)
	if err != nil {
		return entities.Admin{}, err
	}
	admin, err := uc.Admins.GetAdmin(ctx, strings.TrimSpace(adminID))
	if err != nil {
		return entities.Admin{}, err
	}
	admin.Username = input.Username
	admin.FirstName = input.FirstName
	admin.LastName = input.LastName
	admin.Email = input.Email
	admin.Role = role
	if input.Password != "" {
		hash, err := uc.Hasher.Hash(input.Password)
		if err != nil {
			return entities.Admin{}, err
		}
		admin.PasswordHash = hash
	}
	if err := uc.Admins.UpdateAdmin(ctx, admin); err != nil {
		return entities.Admin{}, err
	}
	logger.Info("admin updated",
		"event", "election_admin_updated",
		"module", "campus-elections/election-service",
		"layer", "application",
		"admin_id", admin.AdminID,
		"actor_id", actor.ID,
	)
	admin.PasswordHash = ""
	return admin, nil
}

// DeleteAdmin refuses to remove the caller's own account so at least one
// admin always remains able to sign in.
func (uc AdminUseCase) DeleteAdmin(ctx context.Context, actor entities.Principal, adminID string) error {
	logger := application.ResolveLogger(uc.Logger)
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return err
	}
	adminID = strings.TrimSpace(adminID)
	if adminID == actor.ID {
		return fmt.Errorf("%w: admins cannot delete their own account", domainerrors.ErrConflict)
	}
	if err := uc.Admins.DeleteAdmin(ctx, adminID); err != nil {
		return err
	}
	logger.Info("admin deleted",
		"event", "election_admin_deleted",
		"module", "campus-elections/election-service",
		"layer", "application",
		"admin_id", adminID,
		"actor_id", actor.ID,
	)
	return nil
}

func normalizeAdminInput(input AdminInput) AdminInput {
	return AdminInput{
		Username:  strings.TrimSpace(input.Username),
		Password:  input.Password,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Role:      input.Role,
	}
}

func validateAdminInput(input AdminInput, requirePassword bool) (entities.AdminRole, error) {
	if input.Username == "" {
		return "", fmt.Errorf("%w: username is required", domainerrors.ErrValidation)
	}
	if requirePassword && input.Password == "" {
		return "", fmt.Errorf("%w: password is required", domainerrors.ErrValidation)
	}
	role, ok := parseAdminRole(input.Role)
	if !ok {
		return "", fmt.Errorf("%w: unknown admin role %q", domainerrors.ErrValidation, input.Role)
	}
	return role, nil
}

// parseAdminRole defaults an empty role to admin.
func parseAdminRole(raw string) (entities.AdminRole, bool) {
	switch entities.AdminRole(strings.ToLower(strings.TrimSpace(raw))) {
	case "", entities.AdminRoleAdmin:
		return entities.AdminRoleAdmin, true
	case entities.AdminRoleSuperAdmin:
		return entities.AdminRoleSuperAdmin, true
	}
	return entities.AdminRoleAdmin, false
}
