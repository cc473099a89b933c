package commands

import (
	"context"
	"encoding/json"
	"time"

	"univote/contexts/campus-elections/election-service/ports"
)

const sourceService = "election-service"

// newEnvelope builds the outbox event a repository write stores alongside its
// row. Events for an election share its id as partition key so consumers see
// them in order.
func newEnvelope(
	ctx context.Context,
	idGen ports.IDGenerator,
	eventType string,
	electionID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	data["occurred_at"] = occurredAt.UTC().Format(time.RFC3339)
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "election_id",
		PartitionKey:     electionID,
		Data:             payload,
	}, nil
}

func resolveNow(clock ports.Clock) time.Time {
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}
