package userservice

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrNotFound          = errors.New("user not found")
)

func newUserModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

func (m *DBModel) insertUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	args := []any{
		u.Username,
		u.Name,
		u.Password.hash,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		switch {
		case err.Error() == "pq: duplicate key value violates unique constraint \"users_username_key\"":
			return ErrDuplicateUsername
		default:
			return err
		}
	}
	return nil
}

func (m *DBModel) getUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, name, password_hash
		FROM users
		WHERE username = $1`

	var u User

	err := m.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.Name, &u.Password.hash)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *DBModel) getUserByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, username, name
		FROM users
		WHERE id = $1`

	var u User

	err := m.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.Name)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

// getUsers returns all users with their owned blogs projected to
// {id, title, author, url}. The blogs of a user are exactly the rows whose
// user_id references that user, so no dangling references can occur.
func (m *DBModel) getUsers(ctx context.Context) ([]User, error) {
	query := `
		SELECT id, username, name
		FROM users
		ORDER BY id`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	index := make(map[int]int)

	for rows.Next() {
		var u User
		err := rows.Scan(&u.ID, &u.Username, &u.Name)
		if err != nil {
			return nil, err
		}
		u.Blogs = []BlogRef{}
		index[u.ID] = len(users)
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	blogQuery := `
		SELECT id, title, author, url, user_id
		FROM blogs
		ORDER BY id`

	blogRows, err := m.db.QueryContext(ctx, blogQuery)
	if err != nil {
		return nil, err
	}
	defer blogRows.Close()

	for blogRows.Next() {
		var ref BlogRef
		var userID int
		err := blogRows.Scan(&ref.ID, &ref.Title, &ref.Author, &ref.URL, &userID)
		if err != nil {
			return nil, err
		}

		if i, ok := index[userID]; ok {
			users[i].Blogs = append(users[i].Blogs, ref)
		}
	}

	if err := blogRows.Err(); err != nil {
		return nil, err
	}

	if users == nil {
		users = []User{}
	}

	return users, nil
}
