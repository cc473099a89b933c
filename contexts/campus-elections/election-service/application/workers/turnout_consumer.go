package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	contractsv1 "univote/contracts/gen/events/v1"
	application "univote/contexts/campus-elections/election-service/application"
	"univote/contexts/campus-elections/election-service/ports"
)

const (
	defaultTurnoutConsumerGroup = "election-turnout-cg"
	defaultTurnoutDedupeWindow  = 10000
)

type turnoutPayload struct {
	ElectionID  string `json:"election_id"`
	CandidateID string `json:"candidate_id"`
}

// TurnoutConsumer keeps a live per-election count of cast ballots from the
// event stream. The count follows the vote table: deleting a candidate
// removes the ballots cast for them and deleting an election clears it.
// Redeliveries inside the last DedupeWindow event ids are applied once.
type TurnoutConsumer struct {
	Subscriber    ports.EventSubscriber
	ConsumerGroup string
	DedupeWindow  int
	Logger        *slog.Logger

	mu sync.Mutex
	// seen and order form a FIFO of recently applied event ids.
	seen  map[string]struct{}
	order []string
	next  int
	// perCandidate counts ballots by election then candidate.
	perCandidate      map[string]map[string]int
	deletedElections  map[string]struct{}
	deletedCandidates map[string]struct{}
}

func NewTurnoutConsumer(subscriber ports.EventSubscriber, logger *slog.Logger) *TurnoutConsumer {
	return &TurnoutConsumer{
		Subscriber:    subscriber,
		ConsumerGroup: defaultTurnoutConsumerGroup,
		DedupeWindow:  defaultTurnoutDedupeWindow,
		Logger:        logger,
	}
}

func (c *TurnoutConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = defaultTurnoutConsumerGroup
	}
	for _, topic := range []string{
		contractsv1.EventVoteCast,
		contractsv1.EventCandidateDeleted,
		contractsv1.EventElectionDeleted,
	} {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle applies one event. A vote for a candidate or election already seen
// deleted is ignored, since the relay may deliver it after the deletion.
func (c *TurnoutConsumer) Handle(_ context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	if err := event.Validate(); err != nil {
		return err
	}
	var payload turnoutPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.EventType, err)
	}
	if payload.ElectionID == "" {
		return fmt.Errorf("%s event missing election_id", event.EventType)
	}
	if event.EventType != contractsv1.EventElectionDeleted && payload.CandidateID == "" {
		return fmt.Errorf("%s event missing candidate_id", event.EventType)
	}

	c.mu.Lock()
	c.initLocked()
	if _, ok := c.seen[event.EventID]; ok {
		c.mu.Unlock()
		logger.Debug("turnout event already applied",
			"event", "election_turnout_event_replayed",
			"module", "campus-elections/election-service",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}
	c.rememberLocked(event.EventID)
	switch event.EventType {
	case contractsv1.EventVoteCast:
		c.applyVoteLocked(payload)
	case contractsv1.EventCandidateDeleted:
		c.deletedCandidates[payload.CandidateID] = struct{}{}
		if counts, ok := c.perCandidate[payload.ElectionID]; ok {
			delete(counts, payload.CandidateID)
		}
	case contractsv1.EventElectionDeleted:
		c.deletedElections[payload.ElectionID] = struct{}{}
		delete(c.perCandidate, payload.ElectionID)
	}
	count := c.turnoutLocked(payload.ElectionID)
	c.mu.Unlock()

	logger.Info("turnout event applied",
		"event", "election_turnout_event_applied",
		"module", "campus-elections/election-service",
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"election_id", payload.ElectionID,
		"turnout", count,
	)
	return nil
}

func (c *TurnoutConsumer) Turnout(electionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turnoutLocked(electionID)
}

func (c *TurnoutConsumer) applyVoteLocked(payload turnoutPayload) {
	if _, gone := c.deletedElections[payload.ElectionID]; gone {
		return
	}
	if _, gone := c.deletedCandidates[payload.CandidateID]; gone {
		return
	}
	counts, ok := c.perCandidate[payload.ElectionID]
	if !ok {
		counts = make(map[string]int)
		c.perCandidate[payload.ElectionID] = counts
	}
	counts[payload.CandidateID]++
}

func (c *TurnoutConsumer) turnoutLocked(electionID string) int {
	total := 0
	for _, n := range c.perCandidate[electionID] {
		total += n
	}
	return total
}

// rememberLocked records eventID, evicting the oldest id once the window is
// full.
func (c *TurnoutConsumer) rememberLocked(eventID string) {
	window := c.DedupeWindow
	if window <= 0 {
		window = defaultTurnoutDedupeWindow
	}
	if len(c.order) < window {
		c.order = append(c.order, eventID)
		c.seen[eventID] = struct{}{}
		return
	}
	delete(c.seen, c.order[c.next])
	c.order[c.next] = eventID
	c.seen[eventID] = struct{}{}
	c.next = (c.next + 1) % len(c.order)
}

func (c *TurnoutConsumer) initLocked() {
	if c.seen != nil {
		return
	}
	c.seen = make(map[string]struct{})
	c.perCandidate = make(map[string]map[string]int)
	c.deletedElections = make(map[string]struct{})
	c.deletedCandidates = make(map[string]struct{})
}

var _ ports.TurnoutReader = (*TurnoutConsumer)(nil)
