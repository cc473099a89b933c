package v1

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Envelope is the versioned wrapper for every event the election service
// publishes. Consumers must ignore unknown fields inside Data.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

const (
	EventElectionCreated          = "election.created"
	EventElectionUpdated          = "election.updated"
	EventElectionStatusChanged    = "election.status_changed"
	EventElectionDeleted          = "election.deleted"
	EventCandidateApplied         = "candidate.applied"
	EventCandidateApprovalChanged = "candidate.approval_changed"
	EventCandidateDeleted         = "candidate.deleted"
	EventVoteCast                 = "vote.cast"
)

// EventTypes lists every event type the election service emits.
func EventTypes() []string {
	return []string{
		EventElectionCreated,
		EventElectionUpdated,
		EventElectionStatusChanged,
		EventElectionDeleted,
		EventCandidateApplied,
		EventCandidateApprovalChanged,
		EventCandidateDeleted,
		EventVoteCast,
	}
}

var errInvalidEnvelope = errors.New("invalid event envelope")

// Validate checks the fields every consumer relies on.
func (e Envelope) Validate() error {
	if strings.TrimSpace(e.EventID) == "" ||
		strings.TrimSpace(e.EventType) == "" ||
		e.OccurredAt.IsZero() ||
		e.SchemaVersion <= 0 {
		return errInvalidEnvelope
	}
	return nil
}
