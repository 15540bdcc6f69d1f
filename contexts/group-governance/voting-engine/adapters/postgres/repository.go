package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"chamahub/contexts/group-governance/voting-engine/domain/entities"
	domainerrors "chamahub/contexts/group-governance/voting-engine/domain/errors"
	"chamahub/contexts/group-governance/voting-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

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

func (r *Repository) CreateVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	voters := voterModelsFromEntity(vote)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(voters) > 0 {
			if err := tx.Create(&voters).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("governance_repo_create_vote_failed", err,
			"vote_id", strings.TrimSpace(vote.VoteID),
			"group_id", strings.TrimSpace(vote.GroupID),
		)
	}
	return nil
}

func (r *Repository) GetVote(ctx context.Context, voteID string) (entities.Vote, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(voteID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, domainerrors.ErrVoteNotFound
		}
		return entities.Vote{}, r.logError("governance_repo_get_vote_failed", err, "vote_id", strings.TrimSpace(voteID))
	}
	voters, err := r.listVoters(ctx, row.ID)
	if err != nil {
		return entities.Vote{}, err
	}
	return row.toEntity(voters), nil
}

func (r *Repository) ListVotesByGroup(
	ctx context.Context,
	groupID string,
	status entities.VoteStatus,
	limit int,
	offset int,
) ([]entities.Vote, int, error) {
	tx := r.db.WithContext(ctx).Model(&voteModel{}).
		Where("group_id = ?", strings.TrimSpace(groupID))
	if status != "" {
		tx = tx.Where("status = ?", string(status))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, r.logError("governance_repo_count_votes_failed", err,
			"group_id", strings.TrimSpace(groupID),
		)
	}

	var rows []voteModel
	if err := tx.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, r.logError("governance_repo_list_votes_failed", err,
			"group_id", strings.TrimSpace(groupID),
		)
	}

	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		voters, err := r.listVoters(ctx, row.ID)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, row.toEntity(voters))
	}
	return items, int(total), nil
}

func (r *Repository) ListVotesDueTransition(ctx context.Context, now time.Time, limit int) ([]entities.Vote, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []voteModel
	err := r.db.WithContext(ctx).
		Where("(status = ? AND start_date <= ?) OR (status = ? AND end_date <= ?)",
			string(entities.VoteStatusDraft), now.UTC(),
			string(entities.VoteStatusActive), now.UTC(),
		).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("governance_repo_list_due_votes_failed", err, "limit", limit)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(nil))
	}
	return items, nil
}

func (r *Repository) TransitionStatus(
	ctx context.Context,
	voteID string,
	from []entities.VoteStatus,
	to entities.VoteStatus,
	now time.Time,
) (entities.Vote, bool, error) {
	voteID = strings.TrimSpace(voteID)
	fromValues := make([]string, 0, len(from))
	for _, status := range from {
		fromValues = append(fromValues, string(status))
	}

	var result entities.Vote
	won := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row voteModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", voteID).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrVoteNotFound
			}
			return err
		}

		eligible := false
		for _, status := range fromValues {
			if row.Status == status {
				eligible = true
				break
			}
		}
		if !eligible || row.Status == string(to) {
			result = row.toEntity(nil)
			return nil
		}

		updates := map[string]any{
			"status":     string(to),
			"updated_at": now.UTC(),
		}
		row.Status = string(to)
		row.UpdatedAt = now.UTC()
		if to == entities.VoteStatusClosed {
			outcome := entities.ResolveOutcome(
				entities.VoteType(row.VoteType),
				row.YesVotes,
				row.NoVotes,
				row.AbstainVotes,
			)
			closedAt := now.UTC()
			updates["outcome"] = string(outcome)
			updates["closed_at"] = closedAt
			row.Outcome = string(outcome)
			row.ClosedAt = &closedAt
		}
		if err := tx.Model(&voteModel{}).Where("id = ?", voteID).Updates(updates).Error; err != nil {
			return err
		}
		result = row.toEntity(nil)
		won = true
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrVoteNotFound) {
			return entities.Vote{}, false, err
		}
		return entities.Vote{}, false, r.logError("governance_repo_transition_status_failed", err,
			"vote_id", voteID,
			"to_status", string(to),
		)
	}
	return result, won, nil
}

func (r *Repository) RecordOutcome(ctx context.Context, voteID string, outcome entities.Outcome) (entities.Vote, error) {
	voteID = strings.TrimSpace(voteID)
	update := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("id = ?", voteID).
		Where("status = ?", string(entities.VoteStatusClosed)).
		Where("outcome = ?", "").
		Update("outcome", string(outcome))
	if update.Error != nil {
		return entities.Vote{}, r.logError("governance_repo_record_outcome_failed", update.Error,
			"vote_id", voteID,
			"outcome", string(outcome),
		)
	}
	return r.GetVote(ctx, voteID)
}

// CastBallot runs the full cast as one transaction: it locks the vote row,
// re-checks status and the voting window at the ballot's timestamp, inserts
// the ballot, and bumps the counters. The (vote_id, cast_for) unique index
// backstops the duplicate check under concurrency.
func (r *Repository) CastBallot(ctx context.Context, ballot entities.Ballot) (entities.Vote, error) {
	row := ballotModelFromEntity(ballot)
	var result entities.Vote
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vote voteModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", row.VoteID).
			First(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrVoteNotFound
			}
			return err
		}
		if vote.Status != string(entities.VoteStatusActive) {
			return domainerrors.ErrVoteNotOpen
		}
		castAt := row.CastAt.UTC()
		if castAt.Before(vote.StartDate.UTC()) || !castAt.Before(vote.EndDate.UTC()) {
			return domainerrors.ErrVoteNotOpen
		}

		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadyVoted
			}
			return err
		}

		counter := "abstain_votes"
		switch entities.BallotChoice(row.Choice) {
		case entities.ChoiceYes:
			counter = "yes_votes"
		case entities.ChoiceNo:
			counter = "no_votes"
		}
		if err := tx.Model(&voteModel{}).
			Where("id = ?", row.VoteID).
			Updates(map[string]any{
				counter:            gorm.Expr(counter+" + 1"),
				"total_votes_cast": gorm.Expr("total_votes_cast + 1"),
				"updated_at":       castAt,
			}).Error; err != nil {
			return err
		}

		var updated voteModel
		if err := tx.Where("id = ?", row.VoteID).First(&updated).Error; err != nil {
			return err
		}
		result = updated.toEntity(nil)
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrVoteNotFound) ||
			errors.Is(err, domainerrors.ErrVoteNotOpen) ||
			errors.Is(err, domainerrors.ErrAlreadyVoted) {
			return entities.Vote{}, err
		}
		return entities.Vote{}, r.logError("governance_repo_cast_ballot_failed", err,
			"vote_id", strings.TrimSpace(ballot.VoteID),
			"cast_for", strings.TrimSpace(ballot.CastFor),
		)
	}
	return result, nil
}

func (r *Repository) GetBallot(ctx context.Context, voteID string, castFor string) (entities.Ballot, bool, error) {
	var row ballotModel
	err := r.db.WithContext(ctx).
		Where("vote_id = ?", strings.TrimSpace(voteID)).
		Where("cast_for = ?", strings.TrimSpace(castFor)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ballot{}, false, nil
		}
		return entities.Ballot{}, false, r.logError("governance_repo_get_ballot_failed", err,
			"vote_id", strings.TrimSpace(voteID),
			"cast_for", strings.TrimSpace(castFor),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListBallots(ctx context.Context, voteID string) ([]entities.Ballot, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Where("vote_id = ?", strings.TrimSpace(voteID)).
		Order("cast_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_ballots_failed", err,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListActiveMembers(ctx context.Context, groupID string) ([]string, error) {
	var members []string
	err := r.db.WithContext(ctx).
		Model(&groupMemberModel{}).
		Where("group_id = ?", strings.TrimSpace(groupID)).
		Where("active = ?", true).
		Order("member_id ASC").
		Pluck("member_id", &members).
		Error
	if err != nil {
		return nil, r.logError("governance_repo_list_active_members_failed", err,
			"group_id", strings.TrimSpace(groupID),
		)
	}
	return members, nil
}

func (r *Repository) HasGroupAdminCapability(ctx context.Context, userID string, groupID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&groupAdminModel{}).
		Where("group_id = ?", strings.TrimSpace(groupID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("governance_repo_admin_check_failed", err,
			"group_id", strings.TrimSpace(groupID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return count > 0, nil
}

func (r *Repository) HasProxyDelegation(ctx context.Context, delegateID string, memberID string, groupID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&groupDelegationModel{}).
		Where("group_id = ?", strings.TrimSpace(groupID)).
		Where("delegate_id = ?", strings.TrimSpace(delegateID)).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("governance_repo_delegation_check_failed", err,
			"group_id", strings.TrimSpace(groupID),
			"delegate_id", strings.TrimSpace(delegateID),
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return count > 0, nil
}

func (r *Repository) UpsertGroupMember(ctx context.Context, groupID string, memberID string, active bool) error {
	row := groupMemberModel{
		GroupID:   strings.TrimSpace(groupID),
		MemberID:  strings.TrimSpace(memberID),
		Active:    active,
		UpdatedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_id"}, {Name: "member_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"active":     row.Active,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("governance_repo_upsert_group_member_failed", create.Error,
			"group_id", row.GroupID,
			"member_id", row.MemberID,
		)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("governance_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("governance_repo_idempotency_expire_delete_failed", err,
				"idempotency_key", strings.TrimSpace(key),
			)
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		VoteID:      row.VoteID,
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: strings.TrimSpace(record.RequestHash),
		VoteID:      strings.TrimSpace(record.VoteID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("governance_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("governance_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash || existing.VoteID != row.VoteID {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("governance_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("governance_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("governance_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("governance_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("governance_repo_reserve_event_failed", create.Error,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("governance_repo_reserve_event_load_existing_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrConflict
	}
	return true, nil
}

func (r *Repository) listVoters(ctx context.Context, voteID string) ([]string, error) {
	var voters []string
	err := r.db.WithContext(ctx).
		Model(&voterSnapshotModel{}).
		Where("vote_id = ?", voteID).
		Order("member_id ASC").
		Pluck("member_id", &voters).
		Error
	if err != nil {
		return nil, r.logError("governance_repo_list_voters_failed", err, "vote_id", voteID)
	}
	return voters, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "group-governance/voting-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("governance repository operation failed", fields...)
	return err
}

type voteModel struct {
	ID                  string     `gorm:"column:id;primaryKey"`
	GroupID             string     `gorm:"column:group_id"`
	Title               string     `gorm:"column:title"`
	Description         string     `gorm:"column:description"`
	VoteType            string     `gorm:"column:vote_type"`
	AllowProxy          bool       `gorm:"column:allow_proxy"`
	StartDate           time.Time  `gorm:"column:start_date"`
	EndDate             time.Time  `gorm:"column:end_date"`
	Status              string     `gorm:"column:status"`
	Outcome             string     `gorm:"column:outcome"`
	TotalEligibleVoters int        `gorm:"column:total_eligible_voters"`
	TotalVotesCast      int        `gorm:"column:total_votes_cast"`
	YesVotes            int        `gorm:"column:yes_votes"`
	NoVotes             int        `gorm:"column:no_votes"`
	AbstainVotes        int        `gorm:"column:abstain_votes"`
	CreatedBy           string     `gorm:"column:created_by"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
	ClosedAt            *time.Time `gorm:"column:closed_at"`
}

func (voteModel) TableName() string {
	return "governance_votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	row := voteModel{
		ID:                  strings.TrimSpace(vote.VoteID),
		GroupID:             strings.TrimSpace(vote.GroupID),
		Title:               strings.TrimSpace(vote.Title),
		Description:         strings.TrimSpace(vote.Description),
		VoteType:            string(vote.VoteType),
		AllowProxy:          vote.AllowProxy,
		StartDate:           vote.StartDate.UTC(),
		EndDate:             vote.EndDate.UTC(),
		Status:              string(vote.Status),
		Outcome:             string(vote.Outcome),
		TotalEligibleVoters: vote.TotalEligibleVoters,
		TotalVotesCast:      vote.TotalVotesCast,
		YesVotes:            vote.YesVotes,
		NoVotes:             vote.NoVotes,
		AbstainVotes:        vote.AbstainVotes,
		CreatedBy:           strings.TrimSpace(vote.CreatedBy),
		CreatedAt:           vote.CreatedAt.UTC(),
		UpdatedAt:           vote.UpdatedAt.UTC(),
		ClosedAt:            normalizeOptionalTime(vote.ClosedAt),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m voteModel) toEntity(voters []string) entities.Vote {
	return entities.Vote{
		VoteID:              m.ID,
		GroupID:             m.GroupID,
		Title:               m.Title,
		Description:         m.Description,
		VoteType:            entities.VoteType(m.VoteType),
		AllowProxy:          m.AllowProxy,
		StartDate:           m.StartDate.UTC(),
		EndDate:             m.EndDate.UTC(),
		Status:              entities.VoteStatus(m.Status),
		Outcome:             entities.Outcome(m.Outcome),
		EligibleVoters:      voters,
		TotalEligibleVoters: m.TotalEligibleVoters,
		TotalVotesCast:      m.TotalVotesCast,
		YesVotes:            m.YesVotes,
		NoVotes:             m.NoVotes,
		AbstainVotes:        m.AbstainVotes,
		CreatedBy:           m.CreatedBy,
		CreatedAt:           m.CreatedAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
		ClosedAt:            normalizeOptionalTime(m.ClosedAt),
	}
}

type voterSnapshotModel struct {
	VoteID   string `gorm:"column:vote_id;primaryKey"`
	MemberID string `gorm:"column:member_id;primaryKey"`
}

func (voterSnapshotModel) TableName() string {
	return "governance_vote_voters"
}

func voterModelsFromEntity(vote entities.Vote) []voterSnapshotModel {
	rows := make([]voterSnapshotModel, 0, len(vote.EligibleVoters))
	for _, memberID := range vote.EligibleVoters {
		rows = append(rows, voterSnapshotModel{
			VoteID:   strings.TrimSpace(vote.VoteID),
			MemberID: strings.TrimSpace(memberID),
		})
	}
	return rows
}

type ballotModel struct {
	ID      string    `gorm:"column:id;primaryKey"`
	VoteID  string    `gorm:"column:vote_id;uniqueIndex:idx_governance_ballots_vote_voter"`
	CastBy  string    `gorm:"column:cast_by"`
	CastFor string    `gorm:"column:cast_for;uniqueIndex:idx_governance_ballots_vote_voter"`
	Choice  string    `gorm:"column:choice"`
	CastAt  time.Time `gorm:"column:cast_at"`
}

func (ballotModel) TableName() string {
	return "governance_ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	return ballotModel{
		ID:      strings.TrimSpace(ballot.BallotID),
		VoteID:  strings.TrimSpace(ballot.VoteID),
		CastBy:  strings.TrimSpace(ballot.CastBy),
		CastFor: strings.TrimSpace(ballot.CastFor),
		Choice:  string(ballot.Choice),
		CastAt:  ballot.CastAt.UTC(),
	}
}

func (m ballotModel) toEntity() entities.Ballot {
	return entities.Ballot{
		BallotID: m.ID,
		VoteID:   m.VoteID,
		CastBy:   m.CastBy,
		CastFor:  m.CastFor,
		Choice:   entities.BallotChoice(m.Choice),
		CastAt:   m.CastAt.UTC(),
	}
}

type groupMemberModel struct {
	GroupID   string    `gorm:"column:group_id;primaryKey"`
	MemberID  string    `gorm:"column:member_id;primaryKey"`
	Active    bool      `gorm:"column:active"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (groupMemberModel) TableName() string {
	return "group_members"
}

type groupAdminModel struct {
	GroupID string `gorm:"column:group_id;primaryKey"`
	UserID  string `gorm:"column:user_id;primaryKey"`
}

func (groupAdminModel) TableName() string {
	return "group_admins"
}

type groupDelegationModel struct {
	GroupID    string `gorm:"column:group_id;primaryKey"`
	DelegateID string `gorm:"column:delegate_id;primaryKey"`
	MemberID   string `gorm:"column:member_id;primaryKey"`
}

func (groupDelegationModel) TableName() string {
	return "group_proxy_delegations"
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	VoteID      string    `gorm:"column:vote_id"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "governance_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "governance_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "governance_event_dedup"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.BallotStore = (*Repository)(nil)
var _ ports.MembershipDirectory = (*Repository)(nil)
var _ ports.Authorization = (*Repository)(nil)
var _ ports.MembershipProjectionWriter = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
