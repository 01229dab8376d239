// Package discovery produces the ranked candidate queue a viewer swipes
// through.
package discovery

import (
	"context"
	"sort"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/geo"
	"github.com/emberapp/ember-server/internal/repository"
)

// Candidate is a profile annotated with its distance from the viewer, when
// both sides have coordinates.
type Candidate struct {
	Profile    db.User
	DistanceKm *float64
}

// Service builds discovery queues on top of the profile and decision
// repositories.
type Service struct {
	appCtx      *app.AppContext
	profileRepo *repository.ProfileRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		profileRepo: repository.NewProfileRepository(appCtx.DB),
	}
}

// NextCandidates returns up to limit complete profiles for the viewer to
// swipe on, nearest first.
//
// Rules:
//   - The viewer is always excluded. Previously swiped profiles are excluded
//     unless includeAlreadySwiped is set.
//   - A candidate is annotated with distance only when both viewer and
//     candidate have a location.
//   - maxDistanceKm > 0 drops annotated candidates beyond the limit;
//     candidates without a distance are never dropped by it.
//   - With a located viewer the queue sorts ascending by distance, unlocated
//     candidates last. Without one, the pool order stands.
//
// Backend read failures degrade to an empty queue: the swipe deck shows
// "no more profiles" instead of an error.
func (s *Service) NextCandidates(
	ctx context.Context,
	viewerID uint64,
	limit int,
	includeAlreadySwiped bool,
	maxDistanceKm float64,
) []Candidate {
	if limit <= 0 {
		limit = s.appCtx.Cfg.Discovery.DefaultLimit
	}

	viewer, err := s.profileRepo.Get(ctx, viewerID)
	if err != nil {
		s.appCtx.Logger.Warn("discovery: viewer load failed", "viewer_id", viewerID, "err", err)
		return nil
	}

	pool, err := s.profileRepo.ListCandidatePool(ctx, viewerID, !includeAlreadySwiped, s.appCtx.Cfg.Discovery.FetchCap)
	if err != nil {
		s.appCtx.Logger.Warn("discovery: pool load failed", "viewer_id", viewerID, "err", err)
		return nil
	}

	viewerLocated := viewer.HasLocation()

	candidates := make([]Candidate, 0, len(pool))
	for _, p := range pool {
		c := Candidate{Profile: p}
		if viewerLocated && p.HasLocation() {
			d := geo.DistanceKm(*viewer.Latitude, *viewer.Longitude, *p.Latitude, *p.Longitude)
			if maxDistanceKm > 0 && d > maxDistanceKm {
				continue
			}
			c.DistanceKm = &d
		}
		candidates = append(candidates, c)
	}

	if viewerLocated {
		sort.SliceStable(candidates, func(i, j int) bool {
			di, dj := candidates[i].DistanceKm, candidates[j].DistanceKm
			switch {
			case di == nil:
				return false // unlocated sorts last
			case dj == nil:
				return true
			default:
				return *di < *dj
			}
		})
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	s.appCtx.Logger.Debug("discovery queue built",
		"viewer_id", viewerID,
		"pool", len(pool),
		"returned", len(candidates),
	)
	return candidates
}
