package commands

import (
	"encoding/json"
	"time"

	"chamahub/contexts/group-governance/voting-engine/ports"
)

func newGovernanceEnvelope(
	eventID string,
	eventType string,
	voteID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Command-side events are partitioned by vote for stable ordering on
	// vote-scoped consumers.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "governance-voting-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "vote_id",
		PartitionKey:     voteID,
		Data:             payload,
	}, nil
}
