package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hazelbrook/bloglist/internal/common"
)

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrUserForeignKey  = errors.New("user_id does not exist")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

func (m *BlogModel) insert(ctx context.Context, title, author, url string, userID int) (int, error) {
	query := `
		INSERT INTO blogs (title, author, url, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int
	err := m.db.QueryRowContext(ctx, query, title, author, url, userID).Scan(&id)
	if err != nil {
		switch {
		case common.ForeignKeyError(err, "blogs_user_id_fkey"):
			return 0, ErrUserForeignKey
		default:
			return 0, err
		}
	}

	return id, nil
}

// getBlogById returns one blog with its owner, likers and comments expanded.
// The like count is derived from the likers set, so it always equals its size.
func (m *BlogModel) getBlogById(ctx context.Context, id int) (*Blog, error) {
	query := `
		SELECT b.id, b.title, b.author, b.url, b.user_id, u.username, u.name,
			(SELECT COUNT(*) FROM blog_likes l WHERE l.blog_id = b.id)
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE b.id = $1`

	row := m.db.QueryRowContext(ctx, query, id)

	var blog Blog
	err := row.Scan(&blog.ID, &blog.Title, &blog.Author, &blog.URL, &blog.User.ID, &blog.User.Username, &blog.User.Name, &blog.Likes)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	blog.LikedBy = []UserRef{}
	blog.Comments = []Comment{}

	err = m.fillAssociations(ctx, map[int]*Blog{blog.ID: &blog})
	if err != nil {
		return nil, err
	}

	return &blog, nil
}

// getBlogs returns all blogs with all associations expanded. No pagination.
func (m *BlogModel) getBlogs(ctx context.Context) ([]Blog, error) {
	query := `
		SELECT b.id, b.title, b.author, b.url, b.user_id, u.username, u.name,
			(SELECT COUNT(*) FROM blog_likes l WHERE l.blog_id = b.id)
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		ORDER BY b.id`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		var blog Blog
		err := rows.Scan(&blog.ID, &blog.Title, &blog.Author, &blog.URL, &blog.User.ID, &blog.User.Username, &blog.User.Name, &blog.Likes)
		if err != nil {
			return nil, err
		}
		blog.LikedBy = []UserRef{}
		blog.Comments = []Comment{}
		blogs = append(blogs, blog)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	index := make(map[int]*Blog, len(blogs))
	for i := range blogs {
		index[blogs[i].ID] = &blogs[i]
	}

	err = m.fillAssociations(ctx, index)
	if err != nil {
		return nil, err
	}

	return blogs, nil
}

// fillAssociations loads the likers and comments for every blog in the map.
// Comments keep insertion order.
func (m *BlogModel) fillAssociations(ctx context.Context, blogs map[int]*Blog) error {
	if len(blogs) == 0 {
		return nil
	}

	ids := make([]int, 0, len(blogs))
	for id := range blogs {
		ids = append(ids, id)
	}

	likerQuery := `
		SELECT l.blog_id, u.id, u.username
		FROM blog_likes l
		JOIN users u ON l.user_id = u.id
		WHERE l.blog_id = ANY($1)
		ORDER BY l.created_at, u.id`

	likerRows, err := m.db.QueryContext(ctx, likerQuery, pq.Array(ids))
	if err != nil {
		return err
	}
	defer likerRows.Close()

	for likerRows.Next() {
		var blogID int
		var liker UserRef
		err := likerRows.Scan(&blogID, &liker.ID, &liker.Username)
		if err != nil {
			return err
		}
		blogs[blogID].LikedBy = append(blogs[blogID].LikedBy, liker)
	}

	if err := likerRows.Err(); err != nil {
		return err
	}

	commentQuery := `
		SELECT c.blog_id, c.id, c.text, c.created_at, u.id, u.username, u.name
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.blog_id = ANY($1)
		ORDER BY c.created_at, c.id`

	commentRows, err := m.db.QueryContext(ctx, commentQuery, pq.Array(ids))
	if err != nil {
		return err
	}
	defer commentRows.Close()

	for commentRows.Next() {
		var blogID int
		var comment Comment
		err := commentRows.Scan(&blogID, &comment.ID, &comment.Text, &comment.Date, &comment.User.ID, &comment.User.Username, &comment.User.Name)
		if err != nil {
			return err
		}
		blogs[blogID].Comments = append(blogs[blogID].Comments, comment)
	}

	return commentRows.Err()
}

func (m *BlogModel) deleteBlog(ctx context.Context, id int) error {
	query := `
		DELETE FROM blogs
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// toggleLike flips the user's membership in the blog's likers set. The flip is
// an atomic set operation inside one transaction rather than a read-then-write
// of a counter, so concurrent toggles by different users cannot lose updates.
func (m *BlogModel) toggleLike(ctx context.Context, blogID, userID int) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	insertQuery := `
		INSERT INTO blog_likes (blog_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (blog_id, user_id) DO NOTHING`

	res, err := tx.ExecContext(ctx, insertQuery, blogID, userID)
	if err != nil {
		_ = tx.Rollback()
		switch {
		case common.ForeignKeyError(err, "blog_likes_blog_id_fkey"):
			return ErrRecordNotFound
		case common.ForeignKeyError(err, "blog_likes_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if inserted == 0 {
		deleteQuery := `
			DELETE FROM blog_likes
			WHERE blog_id = $1 AND user_id = $2`

		_, err = tx.ExecContext(ctx, deleteQuery, blogID, userID)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (m *BlogModel) insertComment(ctx context.Context, blogID, userID int, text string) error {
	query := `
		INSERT INTO comments (blog_id, user_id, text)
		VALUES ($1, $2, $3)`

	_, err := m.db.ExecContext(ctx, query, blogID, userID, text)
	if err != nil {
		switch {
		case common.ForeignKeyError(err, "comments_blog_id_fkey"):
			return ErrRecordNotFound
		case common.ForeignKeyError(err, "comments_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) blogExists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM blogs WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

// updateComment replaces the text of one comment, leaving its id, author and
// date untouched. A missing blog and a missing comment are distinct verdicts.
func (m *BlogModel) updateComment(ctx context.Context, blogID, commentID int, text string) error {
	exists, err := m.blogExists(ctx, blogID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRecordNotFound
	}

	query := `
		UPDATE comments
		SET text = $1
		WHERE id = $2 AND blog_id = $3`

	res, err := m.db.ExecContext(ctx, query, text, commentID, blogID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrCommentNotFound
	}

	return nil
}

// deleteComment removes the matching comment. A commentID that matches nothing
// leaves the collection unchanged and still succeeds, mirroring the original
// contract of the endpoint.
func (m *BlogModel) deleteComment(ctx context.Context, blogID, commentID int) error {
	exists, err := m.blogExists(ctx, blogID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRecordNotFound
	}

	query := `
		DELETE FROM comments
		WHERE id = $1 AND blog_id = $2`

	_, err = m.db.ExecContext(ctx, query, commentID, blogID)
	return err
}
