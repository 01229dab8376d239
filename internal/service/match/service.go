// Package match resolves swipes into matches and serves the liked-you feed.
package match

import (
	"context"
	"strconv"
	"time"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/db"
	svcErr "github.com/emberapp/ember-server/internal/errors"
	"github.com/emberapp/ember-server/internal/repository"
)

// Result is the outcome of registering a like.
type Result struct {
	Matched bool
	MatchID string
}

// Liker is one entry of the liked-you feed.
type Liker struct {
	UserID        uint64
	UnixTimestamp int64
}

// Service implements the swipe → match flow on top of the decision ledger.
// The two directional writes of a mutual like are never wrapped in a
// transaction; both sides converge on the same canonical match row and the
// insert is idempotent, so the race is benign.
type Service struct {
	appCtx       *app.AppContext
	decisionRepo *repository.DecisionRepository
	matchRepo    *repository.MatchRepository
	chatRepo     *repository.ChatRepository
	profileRepo  *repository.ProfileRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		decisionRepo: repository.NewDecisionRepository(appCtx.DB),
		matchRepo:    repository.NewMatchRepository(appCtx.DB),
		chatRepo:     repository.NewChatRepository(appCtx.DB),
		profileRepo:  repository.NewProfileRepository(appCtx.DB),
	}
}

// RegisterLike records a like from → to and checks for the reciprocal like.
// On a mutual like it upserts the match at the canonical pair id, opens the
// chat channel, and notifies both participants best-effort. Notification
// failures never affect the returned result.
func (s *Service) RegisterLike(ctx context.Context, fromID, toID uint64) (Result, error) {
	if fromID == toID {
		return Result{}, svcErr.InvalidArgument("cannot decide on yourself")
	}

	if err := s.decisionRepo.Put(ctx, fromID, toID, true); err != nil {
		return Result{}, err
	}
	s.bumpLikeCount(ctx, toID, +1)

	reciprocal, found, err := s.decisionRepo.Get(ctx, toID, fromID)
	if err != nil {
		return Result{}, err
	}
	if !found || !reciprocal.Liked {
		return Result{Matched: false}, nil
	}

	matchID, err := s.matchRepo.Upsert(ctx, fromID, toID)
	if err != nil {
		return Result{}, err
	}

	// The match modal drops straight into the conversation, so the channel
	// is created here rather than on first open.
	if _, err := s.chatRepo.Upsert(ctx, fromID, toID); err != nil {
		s.appCtx.Logger.Warn("match chat precreate failed", "match_id", matchID, "err", err)
	}

	s.notifyMatch(ctx, fromID, toID)

	s.appCtx.Logger.Info("match created", "match_id", matchID)
	return Result{Matched: true, MatchID: matchID}, nil
}

// RegisterDislike records a pass. It never produces a match and never tears
// down an existing one.
func (s *Service) RegisterDislike(ctx context.Context, fromID, toID uint64) error {
	if fromID == toID {
		return svcErr.InvalidArgument("cannot decide on yourself")
	}
	if err := s.decisionRepo.Put(ctx, fromID, toID, false); err != nil {
		return err
	}
	s.bumpLikeCount(ctx, toID, -1)
	return nil
}

// ListMatches returns the user's matches with counterpart profiles.
func (s *Service) ListMatches(ctx context.Context, userID uint64) ([]repository.MatchWithProfile, error) {
	return s.matchRepo.ListForUser(ctx, userID)
}

// ListLikedYou returns users who liked the recipient, newest first, with
// cursor pagination. Users the recipient passed on are excluded.
func (s *Service) ListLikedYou(ctx context.Context, recipientID uint64, token *string, limit int) ([]Liker, *string, error) {
	decisions, next, err := s.decisionRepo.GetLikers(ctx, recipientID, token, limit)
	if err != nil {
		return nil, nil, err
	}
	return toLikers(decisions), next, nil
}

// ListNewLikedYou is ListLikedYou minus likes the recipient already
// reciprocated.
func (s *Service) ListNewLikedYou(ctx context.Context, recipientID uint64, token *string, limit int) ([]Liker, *string, error) {
	decisions, next, err := s.decisionRepo.GetNewLikers(ctx, recipientID, token, limit)
	if err != nil {
		return nil, nil, err
	}
	return toLikers(decisions), next, nil
}

// CountLikedYou returns how many users liked the recipient.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID).
//  2. On cache miss or parse error, falls back to the DB count.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) CountLikedYou(ctx context.Context, recipientID uint64) (uint64, error) {
	key := s.appCtx.RedisCache.KeyForLikeCount(recipientID)

	if cached, _ := s.appCtx.RedisCache.Get(ctx, key); cached != "" {
		if n, err := strconv.ParseUint(cached, 10, 64); err == nil {
			// refresh TTL since this user is active
			_ = s.appCtx.RedisCache.Client.Expire(ctx, key, time.Hour).Err()
			return n, nil
		}
	}

	count, err := s.decisionRepo.CountLikers(ctx, recipientID)
	if err != nil {
		return 0, err
	}

	_ = s.appCtx.RedisCache.Set(ctx, key, strconv.FormatInt(count, 10), time.Hour)

	return uint64(count), nil
}

// bumpLikeCount keeps the cached liked-you counter in step with swipes.
// Cache errors are ignored; the DB count is the fallback source of truth.
func (s *Service) bumpLikeCount(ctx context.Context, recipientID uint64, delta int) {
	key := s.appCtx.RedisCache.KeyForLikeCount(recipientID)
	if delta > 0 {
		_, _ = s.appCtx.RedisCache.Incr(ctx, key)
	} else {
		_, _ = s.appCtx.RedisCache.Decr(ctx, key)
	}
	_ = s.appCtx.RedisCache.Client.Expire(ctx, key, time.Hour).Err()
}

func (s *Service) notifyMatch(ctx context.Context, fromID, toID uint64) {
	fromName, toName := "", ""
	if p, err := s.profileRepo.Get(ctx, fromID); err == nil {
		fromName = p.FirstName
	}
	if p, err := s.profileRepo.Get(ctx, toID); err == nil {
		toName = p.FirstName
	}
	s.appCtx.Notifier.NotifyMatch(ctx, toID, fromName)
	s.appCtx.Notifier.NotifyMatch(ctx, fromID, toName)
}

func toLikers(decisions []db.Decision) []Liker {
	likers := make([]Liker, 0, len(decisions))
	for _, d := range decisions {
		likers = append(likers, Liker{
			UserID:        d.ActorID,
			UnixTimestamp: d.UpdatedAt.UnixMilli(),
		})
	}
	return likers
}
