package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/zenplan-api/internal/domain/entity"
	repo "github.com/oksasatya/zenplan-api/internal/domain/repository"
	"github.com/oksasatya/zenplan-api/internal/observability"
	"github.com/oksasatya/zenplan-api/pkg/helpers"
	"github.com/oksasatya/zenplan-api/pkg/validation"
)

const defaultSessionTTL = 7 * 24 * time.Hour

// AvatarStorage persists avatar images and returns their public URL.
type AvatarStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// UserService handles accounts and login sessions. Sessions live in Redis
// under helpers.SessionKey; without Redis tokens are trusted on signature alone.
type UserService struct {
	Repo       repo.UserRepository
	JWT        *helpers.JWTManager
	Redis      *redis.Client
	Avatars    AvatarStorage
	SessionTTL time.Duration
	Logger     *logrus.Logger
}

func NewUserService(r repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, avatars AvatarStorage, sessionTTL time.Duration, logger *logrus.Logger) *UserService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &UserService{Repo: r, JWT: jwt, Redis: rdb, Avatars: avatars, SessionTTL: sessionTTL, Logger: logger}
}

type TokenPair struct {
	SessionID          string
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// NormalizeEmail is the canonical stored form of an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	var verr ValidationError
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	if name == "" {
		verr.add("name", "is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		verr.add("email", "must be a valid email")
	}
	switch {
	case len(in.Password) < validation.MinPasswordLength:
		verr.add("password", fmt.Sprintf("must be at least %d characters long", validation.MinPasswordLength))
	case len(in.Password) > helpers.MaxPasswordBytes:
		verr.add("password", fmt.Sprintf("must be at most %d bytes long", helpers.MaxPasswordBytes))
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{Name: name, Email: email, Password: hash}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger().WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		observability.RecordLogin(false)
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		observability.RecordLogin(false)
		return nil, TokenPair{}, err
	}
	observability.RecordLogin(true)
	return u, pair, nil
}

// IssueTokens opens a new session for u and signs its access/refresh pair.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		s.logger().WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		s.logger().WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := helpers.SessionKey(u.ID, sid)
		pipe := s.Redis.TxPipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"avatar_url": u.AvatarURL,
			"sid":        sid,
			"created_at": helpers.NowRFC3339(),
		})
		pipe.Expire(ctx, key, s.SessionTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			return TokenPair{}, fmt.Errorf("store session: %w", err)
		}
	}

	return TokenPair{SessionID: sid, AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh exchanges a refresh token for a new pair. The old session is
// revoked so a refresh token can only be used once.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	if s.Redis != nil {
		n, err := s.Redis.Del(ctx, helpers.SessionKey(claims.UserID, claims.SessionID)).Result()
		if err != nil {
			return TokenPair{}, fmt.Errorf("revoke session: %w", err)
		}
		if n == 0 {
			return TokenPair{}, ErrSessionNotFound
		}
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	return s.IssueTokens(ctx, u)
}

// Logout revokes one session. Unknown sessions are not an error.
func (s *UserService) Logout(ctx context.Context, userID, sessionID string) error {
	if s.Redis == nil || sessionID == "" {
		return nil
	}
	if err := s.Redis.Del(ctx, helpers.SessionKey(userID, sessionID)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.logger().WithField("user_id", userID).Debug("session revoked")
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

type UpdateProfileInput struct {
	Name string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID, sessionID string, in UpdateProfileInput) (*entity.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "is required"}}
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Name = name
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.touchSession(ctx, userID, sessionID, map[string]any{"name": u.Name})
	return u, nil
}

// UploadAvatar stores the image under avatars/<user>/ and records its URL.
func (s *UserService) UploadAvatar(ctx context.Context, userID, sessionID string, r io.Reader, filename, contentType string) (*entity.User, error) {
	if s.Avatars == nil {
		return nil, ErrStorageDisabled
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(path.Ext(filename))
	objectPath := path.Join("avatars", userID, uuid.NewString()+ext)
	url, err := s.Avatars.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	u.AvatarURL = url
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.touchSession(ctx, userID, sessionID, map[string]any{"avatar_url": u.AvatarURL})
	return u, nil
}

// hsetIfExists writes the field/value pairs in ARGV only while KEYS[1] is
// still alive, so an expired session is never recreated without a TTL.
var hsetIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV))
return 1
`)

// touchSession mirrors profile changes into the cached session, keeping its TTL.
func (s *UserService) touchSession(ctx context.Context, userID, sessionID string, fields map[string]any) {
	if s.Redis == nil || sessionID == "" {
		return
	}
	key := helpers.SessionKey(userID, sessionID)
	fields["updated_at"] = helpers.NowRFC3339()
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	if err := hsetIfExists.Run(ctx, s.Redis, []string{key}, args...).Err(); err != nil {
		s.logger().WithError(err).WithField("key", key).Warn("session update failed")
	}
}

func (s *UserService) logger() *logrus.Logger {
	if s.Logger == nil {
		return helpers.NewDiscardLogger()
	}
	return s.Logger
}
