package services

import (
	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
)

// Authorize is a pure role check. Anonymous principals never pass.
func Authorize(principal entities.Principal, required entities.Role) bool {
	return principal.Authenticated() && principal.Role == required
}

// RequireRole maps a failed Authorize to the domain error the use cases return.
func RequireRole(principal entities.Principal, required entities.Role) error {
	if !principal.Authenticated() {
		return domainerrors.ErrUnauthenticated
	}
	if !Authorize(principal, required) {
		return domainerrors.ErrForbidden
	}
	return nil
}

// RequireSelf allows a voter to act only on their own voter id.
func RequireSelf(principal entities.Principal, voterID string) error {
	if err := RequireRole(principal, entities.RoleVoter); err != nil {
		return err
	}
	if principal.ID != voterID {
		return domainerrors.ErrForbidden
	}
	return nil
}
