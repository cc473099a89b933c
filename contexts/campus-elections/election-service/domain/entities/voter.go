package entities

import "time"

type Voter struct {
	VoterID      string
	FirstName    string
	LastName     string
	Email        string
	UniversityID string
	PasswordHash string
	Approved     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// VoterSummary is the public projection of a voter embedded in candidate
// listings.
type VoterSummary struct {
	VoterID      string
	FirstName    string
	LastName     string
	Email        string
	UniversityID string
}

func (v Voter) Summary() VoterSummary {
	return VoterSummary{
		VoterID:      v.VoterID,
		FirstName:    v.FirstName,
		LastName:     v.LastName,
		Email:        v.Email,
		UniversityID: v.UniversityID,
	}
}

func (v Voter) FullName() string {
	if v.LastName == "" {
		return v.FirstName
	}
	return v.FirstName + " " + v.LastName
}

type AdminRole string

const (
	AdminRoleSuperAdmin AdminRole = "super_admin"
	AdminRoleAdmin      AdminRole = "admin"
)

type Admin struct {
	AdminID      string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Email        string
	Role         AdminRole
	CreatedAt    time.Time
}
