package userservice

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/hazelbrook/bloglist/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*UserService, *sql.DB) {
	db := common.TestDB("file://../../migrations", t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewUserService(db, nil, logger, "test-secret", 0), db
}

func countUsers(t *testing.T, db *sql.DB) int {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n)
	require.NoError(t, err)
	return n
}

func TestRegisterUser(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	t.Run("valid registration", func(t *testing.T) {
		user, err := s.RegisterUser(ctx, "bloguser", "Blog User", "blogpassword")
		require.NoError(t, err)

		assert.NotZero(t, user.ID)
		assert.Equal(t, "bloguser", user.Username)
		assert.Equal(t, "Blog User", user.Name)
		assert.Empty(t, user.Blogs)

		// the raw password is never persisted
		var hash []byte
		err = db.QueryRow("SELECT password_hash FROM users WHERE id = $1", user.ID).Scan(&hash)
		require.NoError(t, err)
		assert.NotEqual(t, []byte("blogpassword"), hash)
	})

	t.Run("weak password creates no record", func(t *testing.T) {
		before := countUsers(t, db)

		user, err := s.RegisterUser(ctx, "anotheruser", "", "pw")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrWeakPassword)
		assert.Equal(t, before, countUsers(t, db))
	})

	t.Run("missing password creates no record", func(t *testing.T) {
		before := countUsers(t, db)

		_, err := s.RegisterUser(ctx, "anotheruser", "", "")
		assert.ErrorIs(t, err, ErrWeakPassword)
		assert.Equal(t, before, countUsers(t, db))
	})

	t.Run("duplicate username creates no record", func(t *testing.T) {
		before := countUsers(t, db)

		user, err := s.RegisterUser(ctx, "bloguser", "", "blogpassword")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrDuplicateUsername)
		assert.Equal(t, before, countUsers(t, db))
	})

	t.Run("too short username", func(t *testing.T) {
		_, err := s.RegisterUser(ctx, "ab", "", "blogpassword")

		var validationErr common.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}

func TestLoginUser(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.RegisterUser(ctx, "bloguser", "Blog User", "blogpassword")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		token, user, err := s.LoginUser(ctx, "bloguser", "blogpassword")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "bloguser", user.Username)

		claims, err := s.VerifyAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, "bloguser", claims.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := s.LoginUser(ctx, "bloguser", "wrongpassword")
		assert.ErrorIs(t, err, ErrAuthenticationFailure)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := s.LoginUser(ctx, "nosuchuser", "blogpassword")
		assert.ErrorIs(t, err, ErrAuthenticationFailure)
	})
}

func TestListUsers(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	owner, err := s.RegisterUser(ctx, "bloguser", "Blog User", "blogpassword")
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO blogs (title, author, url, user_id) VALUES ($1, $2, $3, $4)", "T", "A", "U", owner.ID)
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	got := users[0]
	assert.Equal(t, "bloguser", got.Username)
	require.Len(t, got.Blogs, 1)
	assert.Equal(t, "T", got.Blogs[0].Title)
	assert.Equal(t, "A", got.Blogs[0].Author)
	assert.Equal(t, "U", got.Blogs[0].URL)
}

func TestGetUserByID(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.RegisterUser(ctx, "bloguser", "Blog User", "blogpassword")
	require.NoError(t, err)

	got, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Username, got.Username)

	// second lookup is served from the cache
	again, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Same(t, got, again)

	_, err = s.GetUserByID(ctx, created.ID+1000)
	assert.ErrorIs(t, err, ErrNotFound)
}
