package repository

import (
	"context"
	"errors"
	"time"

	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/utils/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DecisionRepository is the swipe ledger: data access for like/pass
// decisions between users.
type DecisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository creates a new repository bound to the given DB connection.
func NewDecisionRepository(database *gorm.DB) *DecisionRepository {
	return &DecisionRepository{db: database}
}

// Put inserts or updates a decision made by actor -> recipient.
//
// Behavior:
//   - If the (actor_id, recipient_id) pair exists → the row is updated with
//     the new "liked" value and a fresh updated_at (last write wins).
//   - If it doesn't exist → a new row is inserted.
//   - Composite PK ensures the one-row-per-pair guarantee.
func (r *DecisionRepository) Put(
	ctx context.Context,
	actorID, recipientID uint64,
	liked bool,
) error {
	decision := db.Decision{
		ActorID:     actorID,
		RecipientID: recipientID,
		Liked:       liked,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "recipient_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
		}).
		Create(&decision).Error
}

// Get returns the decision for the ordered pair, or found=false when the
// actor never decided on the recipient.
func (r *DecisionRepository) Get(
	ctx context.Context,
	actorID, recipientID uint64,
) (db.Decision, bool, error) {
	var d db.Decision
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND recipient_id = ?", actorID, recipientID).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Decision{}, false, nil
	}
	if err != nil {
		return db.Decision{}, false, err
	}
	return d, true, nil
}

// HasLiked checks whether an actor has liked a recipient. Used for the
// reciprocal check when resolving a new like into a match.
func (r *DecisionRepository) HasLiked(
	ctx context.Context,
	actorID, recipientID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("decisions d").
		Where("d.actor_id = ? AND d.recipient_id = ? AND d.liked = ?", actorID, recipientID, true).
		Count(&count).Error
	return count > 0, err
}

// GetLikers returns users who liked the given recipient.
//
// Behavior:
//   - Only decisions where recipient_id = X and liked = true are returned.
//   - Excludes users that the recipient explicitly passed (liked = false).
//   - Ordered by updated_at DESC, actor_id DESC.
//   - Supports cursor-based pagination via paginationToken.
func (r *DecisionRepository) GetLikers(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]db.Decision, *string, error) {
	return r.likers(ctx, recipientID, paginationToken, limit, false)
}

// GetNewLikers returns users who liked the recipient but have not been liked
// back (the "new" tab of the liked-you feed).
func (r *DecisionRepository) GetNewLikers(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]db.Decision, *string, error) {
	return r.likers(ctx, recipientID, paginationToken, limit, true)
}

func (r *DecisionRepository) likers(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
	excludeMutual bool,
) ([]db.Decision, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("decisions d").
		Where("d.recipient_id = ? AND d.liked = ?", recipientID, true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM decisions d2
				WHERE d2.actor_id = ?
				  AND d2.recipient_id = d.actor_id
				  AND d2.liked = ?
			)`, recipientID, false).
		Order("d.updated_at DESC, d.actor_id DESC").
		Limit(limit + 1)

	if excludeMutual {
		sub := r.db.
			Table("decisions").
			Select("1").
			Where("actor_id = d.recipient_id AND recipient_id = d.actor_id AND liked = ?", true)
		query = query.Where("NOT EXISTS (?)", sub)
	}

	if cursor.LikerID > 0 && cursor.UpdatedUnix > 0 {
		ts := time.UnixMilli(cursor.UpdatedUnix)
		query = query.Where(
			"(d.updated_at < ? OR (d.updated_at = ? AND d.actor_id < ?))",
			ts, ts, cursor.LikerID,
		)
	}

	var decisions []db.Decision
	if err := query.Find(&decisions).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(decisions) > limit {
		last := decisions[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			LikerID:     last.ActorID,
			UpdatedUnix: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		decisions = decisions[:limit]
	}

	return decisions, nextToken, nil
}

// CountLikers returns how many users liked the given recipient, excluding
// users the recipient explicitly passed. Used with the Redis cache as the
// fallback source of truth.
func (r *DecisionRepository) CountLikers(
	ctx context.Context,
	recipientID uint64,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("decisions d").
		Where("d.recipient_id = ? AND d.liked = ?", recipientID, true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM decisions d2
				WHERE d2.actor_id = ?
				  AND d2.recipient_id = d.actor_id
				  AND d2.liked = ?
			)`, recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
