package blogservice

import (
	"database/sql"
	"time"
)

type Blog struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Author   string    `json:"author,omitempty"`
	URL      string    `json:"url"`
	Likes    int       `json:"likes"`
	User     UserRef   `json:"user"`
	LikedBy  []UserRef `json:"likedBy"`
	Comments []Comment `json:"comments"`
}

// UserRef is the inline expansion of a referenced user. A liker carries only
// the username; an owner or comment author carries username and name.
type UserRef struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

type Comment struct {
	ID   int       `json:"id"`
	Text string    `json:"text"`
	User UserRef   `json:"user"`
	Date time.Time `json:"date"`
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m *BlogModel
}
