package repository

import (
	"context"
	"time"

	"github.com/emberapp/ember-server/internal/db"

	"gorm.io/gorm"
)

// ProfileRepository provides data access for the User model: the account row
// plus the dating profile the mobile client patches field by field. Writes
// are partial-column updates so independent features (profile form, location
// refresh, push registration) never clobber each other.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Get returns the user by id. gorm.ErrRecordNotFound when absent.
func (r *ProfileRepository) Get(ctx context.Context, userID uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns the user by email, for login.
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a fresh account row.
func (r *ProfileRepository) Create(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// ProfileFields is the patchable portion of a profile save. Only these
// columns are written; auth and location columns stay untouched.
type ProfileFields struct {
	FirstName        string
	LastName         string
	BirthDate        string
	GenderPreference string
	Photos           []string
	Interests        []string
	About            string
}

// SaveProfile patches the profile columns and re-derives profile_complete
// from the photo list (non-empty photos = complete).
func (r *ProfileRepository) SaveProfile(ctx context.Context, userID uint64, f ProfileFields) error {
	return r.db.WithContext(ctx).Model(&db.User{ID: userID}).
		Select("first_name", "last_name", "birth_date", "gender_preference",
			"photos", "interests", "about", "profile_complete").
		Updates(db.User{
			FirstName:        f.FirstName,
			LastName:         f.LastName,
			BirthDate:        f.BirthDate,
			GenderPreference: f.GenderPreference,
			Photos:           f.Photos,
			Interests:        f.Interests,
			About:            f.About,
			ProfileComplete:  len(f.Photos) > 0,
		}).Error
}

// UpdateLocation patches coordinates and their freshness timestamp.
func (r *ProfileRepository) UpdateLocation(ctx context.Context, userID uint64, lat, lon float64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"latitude":            lat,
			"longitude":           lon,
			"location_updated_at": at,
		}).Error
}

// UpdatePushSubscription stores the serialized push subscription. The value
// is opaque here; only the notify package interprets it.
func (r *ProfileRepository) UpdatePushSubscription(ctx context.Context, userID uint64, sub string) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		Update("push_subscription", sub).Error
}

// AppendPhoto adds an uploaded photo URL to the profile and marks the
// profile complete.
func (r *ProfileRepository) AppendPhoto(ctx context.Context, userID uint64, url string) error {
	u, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	photos := append(u.Photos, url)
	return r.db.WithContext(ctx).Model(&db.User{ID: userID}).
		Select("photos", "profile_complete").
		Updates(db.User{Photos: photos, ProfileComplete: true}).Error
}

// ListCandidatePool returns complete profiles eligible for the viewer's
// discovery queue. The viewer is always excluded; when excludeSwiped is set,
// anyone the viewer already decided on is excluded too (pushed into SQL the
// same way the likers queries exclude passed users). fetchCap bounds the
// pool read so a large users table never gets loaded wholesale.
func (r *ProfileRepository) ListCandidatePool(
	ctx context.Context,
	viewerID uint64,
	excludeSwiped bool,
	fetchCap int,
) ([]db.User, error) {
	query := r.db.WithContext(ctx).
		Table("users u").
		Where("u.profile_complete = ?", true).
		Where("u.id <> ?", viewerID).
		Order("u.id ASC").
		Limit(fetchCap)

	if excludeSwiped {
		query = query.Where(`
			NOT EXISTS (
				SELECT 1 FROM decisions d
				WHERE d.actor_id = ?
				  AND d.recipient_id = u.id
			)`, viewerID)
	}

	var users []db.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
