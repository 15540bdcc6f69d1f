package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "chamahub/contexts/group-governance/voting-engine/application"
	"chamahub/contexts/group-governance/voting-engine/ports"
)

const (
	memberJoinedTopic  = "group.member.joined"
	memberLeftTopic    = "group.member.left"
	defaultMemberCG    = "governance-voting-membership-cg"
	defaultMemberDedup = 7 * 24 * time.Hour
)

// MembershipConsumer keeps the local membership projection in sync with the
// group-membership service. Projection updates feed future eligibility
// snapshots only; the frozen snapshot of an existing vote is never touched.
type MembershipConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Projection    ports.MembershipProjectionWriter
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

// Start subscribes the projection to membership lifecycle events with dedupe
// semantics.
func (c MembershipConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultMemberCG
	}
	if err := c.Subscriber.Subscribe(ctx, memberJoinedTopic, group, c.handleMemberJoined); err != nil {
		logger.Error("membership consumer subscribe failed",
			"event", "governance_membership_subscribe_failed",
			"module", "group-governance/voting-engine",
			"layer", "worker",
			"topic", memberJoinedTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	if err := c.Subscriber.Subscribe(ctx, memberLeftTopic, group, c.handleMemberLeft); err != nil {
		logger.Error("membership consumer subscribe failed",
			"event", "governance_membership_subscribe_failed",
			"module", "group-governance/voting-engine",
			"layer", "worker",
			"topic", memberLeftTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("membership consumer subscriptions active",
		"event", "governance_membership_consumer_started",
		"module", "group-governance/voting-engine",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c MembershipConsumer) handleMemberJoined(ctx context.Context, event ports.EventEnvelope) error {
	return c.applyMembershipEvent(ctx, event, true)
}

func (c MembershipConsumer) handleMemberLeft(ctx context.Context, event ports.EventEnvelope) error {
	return c.applyMembershipEvent(ctx, event, false)
}

func (c MembershipConsumer) applyMembershipEvent(
	ctx context.Context,
	event ports.EventEnvelope,
	active bool,
) error {
	logger := application.ResolveLogger(c.Logger)
	if alreadyProcessed, err := c.reserveEvent(ctx, event); err != nil {
		return err
	} else if alreadyProcessed {
		logger.Debug("membership event replay skipped",
			"event", "governance_membership_event_replayed",
			"module", "group-governance/voting-engine",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload struct {
		GroupID  string `json:"group_id"`
		MemberID string `json:"member_id"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("membership event payload decode failed",
			"event", "governance_membership_decode_failed",
			"module", "group-governance/voting-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	groupID := strings.TrimSpace(payload.GroupID)
	memberID := strings.TrimSpace(payload.MemberID)
	if groupID == "" || memberID == "" {
		logger.Warn("membership event payload incomplete",
			"event", "governance_membership_payload_incomplete",
			"module", "group-governance/voting-engine",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	if err := c.Projection.UpsertGroupMember(ctx, groupID, memberID, active); err != nil {
		return err
	}
	logger.Info("membership projection updated",
		"event", "governance_membership_projection_updated",
		"module", "group-governance/voting-engine",
		"layer", "worker",
		"event_id", event.EventID,
		"group_id", groupID,
		"member_id", memberID,
		"active", active,
	)
	return nil
}

func (c MembershipConsumer) reserveEvent(ctx context.Context, event ports.EventEnvelope) (bool, error) {
	if c.Dedup == nil {
		return false, nil
	}
	ttl := c.DedupTTL
	if ttl <= 0 {
		ttl = defaultMemberDedup
	}
	return c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), time.Now().UTC().Add(ttl))
}
