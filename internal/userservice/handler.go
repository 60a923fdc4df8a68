package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hazelbrook/bloglist/internal/common"
)

var (
	ErrAuthenticationFailure = errors.New("invalid authentication credentials")

	// ErrWeakPassword is raised before hashing, independent of any store-level
	// constraint.
	ErrWeakPassword = errors.New("please enter a password that is at least 3 characters long")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, logger *slog.Logger, secret string, ttl time.Duration) *UserService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &UserService{
		m:      newUserModel(db),
		mb:     mb,
		c:      common.NewCache(userCacheTTL, 5*time.Minute),
		logger: logger,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// RegisterUser creates a new user account and publishes a user.registered event.
// The event is best-effort: a broker failure is logged but never fails the
// registration.
func (s *UserService) RegisterUser(ctx context.Context, username, name, password string) (*User, error) {
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	v := common.NewValidator()
	validateUsername(v, username)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := User{
		Username: username,
		Name:     name,
		Blogs:    []BlogRef{},
	}

	err := u.Password.set(password)
	if err != nil {
		return nil, err
	}

	err = s.m.insertUser(ctx, &u)
	if err != nil {
		return nil, err
	}

	s.publishRegistered(ctx, &u)

	return &u, nil
}

func (s *UserService) publishRegistered(ctx context.Context, u *User) {
	if s.mb == nil {
		return
	}

	data := struct {
		Username string
	}{
		Username: u.Username,
	}

	msg, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("could not marshal user.registered event", slog.String("error", err.Error()))
		return
	}

	err = s.mb.Publish(ctx, msg, common.UserRegisteredKey, common.UserExchange)
	if err != nil {
		s.logger.Error("could not publish user.registered event", slog.String("username", u.Username), slog.String("error", err.Error()))
	}
}

// ListUsers returns all users with their owned blogs expanded to projections.
func (s *UserService) ListUsers(ctx context.Context) ([]User, error) {
	return s.m.getUsers(ctx)
}

// LoginUser checks the credentials and returns a signed bearer token together
// with the authenticated user.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (string, *User, error) {
	v := common.NewValidator()
	v.Check(username != "", "username", "must be provided")
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return "", nil, v.ValidationError()
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return "", nil, ErrAuthenticationFailure
		default:
			return "", nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, ErrAuthenticationFailure
	}

	token, err := issueToken(s.secret, user, s.ttl)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// VerifyAccessToken verifies the token signature and expiry and returns the
// decoded claims. The verdicts are distinct: ErrTokenExpired for an elapsed
// expiry, ErrTokenInvalid for everything else.
func (s *UserService) VerifyAccessToken(token string) (*TokenClaims, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	return verifyToken(s.secret, token)
}

// FlushCache drops every memoized user. Needed after a database reset so
// recycled ids cannot resolve to stale records.
func (s *UserService) FlushCache() {
	s.c.Flush()
}

// GetUserByID resolves a user id to a user record, memoized for a short time.
func (s *UserService) GetUserByID(ctx context.Context, id int) (*User, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := common.CacheKeyUserByID(id)
	if cached, ok := s.c.Get(key); ok {
		return cached.(*User), nil
	}

	user, err := s.m.getUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.c.Set(key, user)

	return user, nil
}
