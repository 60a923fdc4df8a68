package userservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/hazelbrook/bloglist/internal/common"
)

const (
	// DefaultTokenTTL is used when no token lifetime is configured.
	DefaultTokenTTL = 10 * time.Minute

	userCacheTTL = time.Minute
)

type UserService struct {
	m      *DBModel
	mb     common.MessageProducer
	c      *common.Cache
	logger *slog.Logger
	secret []byte
	ttl    time.Duration
}

type DBModel struct {
	db *sql.DB
}

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name,omitempty"`
	Password  Password  `json:"-"`
	Blogs     []BlogRef `json:"blogs"`
	CreatedAt time.Time `json:"-"`
}

// BlogRef is the projection of an owned blog embedded in a serialized user.
type BlogRef struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	URL    string `json:"url"`
}

// Password keeps the hash in an unexported field so it can never leak through
// serialization, whichever code path marshals a User.
type Password struct {
	Plain string `json:"-"`
	hash  []byte
}
