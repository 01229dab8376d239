package repository

import (
	"context"

	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/utils/pairkey"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchRepository stores materialized mutual likes, keyed by the canonical
// pair id so creation is idempotent across the two racing likers.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Upsert creates the match for the pair if it does not exist and returns its
// canonical id. Calling it twice, or from both sides of a mutual like, is
// harmless: the conflicting insert is a no-op on the same row.
func (r *MatchRepository) Upsert(ctx context.Context, userA, userB uint64) (string, error) {
	key, lo, hi := pairkey.Canonical(userA, userB)
	m := db.Match{
		PairID:  key,
		UserAID: lo,
		UserBID: hi,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_id"}},
			DoNothing: true,
		}).
		Create(&m).Error
	if err != nil {
		return "", err
	}
	return key, nil
}

// Exists reports whether the pair is matched.
func (r *MatchRepository) Exists(ctx context.Context, userA, userB uint64) (bool, error) {
	key, _, _ := pairkey.Canonical(userA, userB)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("pair_id = ?", key).
		Count(&count).Error
	return count > 0, err
}

// MatchWithProfile is a match row paired with the counterpart's profile
// snapshot, ready for the matches screen.
type MatchWithProfile struct {
	Match       db.Match
	Counterpart db.User
}

// ListForUser returns the user's matches, newest first, each enriched with
// the other participant's profile. Matches whose counterpart row is missing
// are skipped rather than failing the whole list.
func (r *MatchRepository) ListForUser(ctx context.Context, userID uint64) ([]MatchWithProfile, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}

	out := make([]MatchWithProfile, 0, len(matches))
	for _, m := range matches {
		otherID := m.UserAID
		if otherID == userID {
			otherID = m.UserBID
		}
		var other db.User
		if err := r.db.WithContext(ctx).First(&other, otherID).Error; err != nil {
			continue
		}
		out = append(out, MatchWithProfile{Match: m, Counterpart: other})
	}
	return out, nil
}
