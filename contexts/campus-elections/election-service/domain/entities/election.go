package entities

import (
	"strings"
	"time"
)

type ElectionStatus string

const (
	ElectionStatusUpcoming  ElectionStatus = "upcoming"
	ElectionStatusActive    ElectionStatus = "active"
	ElectionStatusCompleted ElectionStatus = "completed"
)

// ParseElectionStatus normalizes free-form input (trim + lower-case) and
// reports whether the result is a known status.
func ParseElectionStatus(raw string) (ElectionStatus, bool) {
	status := ElectionStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case ElectionStatusUpcoming, ElectionStatusActive, ElectionStatusCompleted:
		return status, true
	default:
		return status, false
	}
}

// CanAdvanceTo reports whether a forward-only lifecycle allows moving from s
// to next. Re-applying the current status is always allowed.
func (s ElectionStatus) CanAdvanceTo(next ElectionStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case ElectionStatusUpcoming:
		return next == ElectionStatusActive
	case ElectionStatusActive:
		return next == ElectionStatusCompleted
	default:
		return false
	}
}

type Election struct {
	ElectionID  string
	Name        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Status      ElectionStatus
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (e Election) AcceptsVotes() bool {
	return !e.Deleted && e.Status == ElectionStatusActive
}
