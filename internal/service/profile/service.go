// Package profile owns accounts and the profile record: signup/login,
// profile saves, location refresh, push registration, photo upload.
package profile

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/auth"
	"github.com/emberapp/ember-server/internal/db"
	svcErr "github.com/emberapp/ember-server/internal/errors"
	"github.com/emberapp/ember-server/internal/repository"
)

// Service implements account and profile operations.
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

// Session is the result of a successful signup or login.
type Session struct {
	UserID uint64
	Token  string
}

// Signup creates an account and returns a session token.
func (s *Service) Signup(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return Session{}, svcErr.InvalidArgument("a valid email is required")
	}
	if len(password) < 6 {
		return Session{}, svcErr.InvalidArgument("password must be at least 6 characters")
	}

	if _, err := s.profileRepo.GetByEmail(ctx, email); err == nil {
		return Session{}, svcErr.AlreadyExists("an account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, err
	}

	u := &db.User{Email: email, PasswordHash: string(hash)}
	if err := s.profileRepo.Create(ctx, u); err != nil {
		return Session{}, err
	}

	token, err := auth.GenerateToken(u.ID, s.appCtx.Cfg.Auth.JWTSecret, s.appCtx.Cfg.Auth.TokenTTL)
	if err != nil {
		return Session{}, err
	}
	s.appCtx.Logger.Info("account created", "user_id", u.ID)
	return Session{UserID: u.ID, Token: token}, nil
}

// Login verifies credentials and returns a session token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.profileRepo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, svcErr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, svcErr.Unauthorized("invalid email or password")
	}

	token, err := auth.GenerateToken(u.ID, s.appCtx.Cfg.Auth.JWTSecret, s.appCtx.Cfg.Auth.TokenTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: u.ID, Token: token}, nil
}

// Get loads the profile. Reads fail closed: a missing row surfaces as
// not-found, never as a half-empty profile.
func (s *Service) Get(ctx context.Context, userID uint64) (*db.User, error) {
	return s.profileRepo.Get(ctx, userID)
}

// Save patches the profile fields and re-derives the completeness flag.
// Interests outside the fixed vocabulary are rejected.
func (s *Service) Save(ctx context.Context, userID uint64, f repository.ProfileFields) error {
	switch f.GenderPreference {
	case "", db.PreferenceMen, db.PreferenceWomen, db.PreferenceBoth:
	default:
		return svcErr.InvalidArgument("gender_preference must be men, women or both")
	}
	for _, in := range f.Interests {
		if !knownInterest(in) {
			return svcErr.InvalidArgument("unknown interest: " + in)
		}
	}
	return s.profileRepo.SaveProfile(ctx, userID, f)
}

// UpdateLocation stores coordinates obtained by the device. The client is
// responsible for the bounded geolocation wait; by the time this is called
// the fix either exists or the client degraded to "unavailable" and skipped
// the call.
func (s *Service) UpdateLocation(ctx context.Context, userID uint64, lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return svcErr.InvalidArgument("coordinates out of range")
	}
	return s.profileRepo.UpdateLocation(ctx, userID, lat, lon, time.Now().UTC())
}

// RegisterPushSubscription stores the device's push subscription payload.
func (s *Service) RegisterPushSubscription(ctx context.Context, userID uint64, subscription string) error {
	if strings.TrimSpace(subscription) == "" {
		return svcErr.InvalidArgument("subscription payload is required")
	}
	return s.profileRepo.UpdatePushSubscription(ctx, userID, subscription)
}

// UploadPhoto pushes the image to the media host and appends the returned
// URL to the profile, marking it complete. Upload errors propagate: the
// caller decides whether to retry or proceed without the photo.
func (s *Service) UploadPhoto(ctx context.Context, userID uint64, r io.Reader, name string) (string, error) {
	url, err := s.appCtx.Uploader.UploadImage(ctx, r, name)
	if err != nil {
		return "", err
	}
	if err := s.profileRepo.AppendPhoto(ctx, userID, url); err != nil {
		return "", err
	}
	return url, nil
}

func knownInterest(v string) bool {
	for _, in := range db.AllInterests {
		if in == v {
			return true
		}
	}
	return false
}
