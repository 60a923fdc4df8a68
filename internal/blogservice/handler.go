package blogservice

import (
	"context"
	"database/sql"

	"github.com/hazelbrook/bloglist/internal/common"
)

func NewBlogService(db *sql.DB) *BlogService {
	return &BlogService{m: newBlogModel(db)}
}

type CreateBlogRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	UserID int    `json:"user_id"`
}

// CreateBlog creates a new blog owned by the requesting user. Likes always
// start at zero regardless of the request payload.
func (s *BlogService) CreateBlog(ctx context.Context, req *CreateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateBlog(v, req.Title, req.URL)
	validateInt(v, req.UserID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	id, err := s.m.insert(ctx, req.Title, req.Author, req.URL, req.UserID)
	if err != nil {
		return nil, err
	}

	return s.m.getBlogById(ctx, id)
}

// GetBlogs returns all blogs with owner, likers and comment authors expanded.
func (s *BlogService) GetBlogs(ctx context.Context) ([]Blog, error) {
	return s.m.getBlogs(ctx)
}

// GetBlogByID returns one blog by its ID.
func (s *BlogService) GetBlogByID(ctx context.Context, id int) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getBlogById(ctx, id)
}

// DeleteBlog removes a blog and, through the schema, its likes and comments.
// Ownership is enforced by the caller, which holds both the blog and the
// acting user.
func (s *BlogService) DeleteBlog(ctx context.Context, id int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.deleteBlog(ctx, id)
}

// ToggleLike adds the user to the blog's likers when absent and removes them
// when present. Toggling twice returns the blog to its prior like state.
func (s *BlogService) ToggleLike(ctx context.Context, blogID, userID int) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, blogID, "id")
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	err := s.m.toggleLike(ctx, blogID, userID)
	if err != nil {
		return nil, err
	}

	return s.m.getBlogById(ctx, blogID)
}

// AddComment appends a comment authored by the requesting user and returns the
// updated blog.
func (s *BlogService) AddComment(ctx context.Context, blogID, userID int, text string) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, blogID, "id")
	validateInt(v, userID, "user_id")
	validateCommentText(v, text)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	err := s.m.insertComment(ctx, blogID, userID, sanitizeText(text))
	if err != nil {
		return nil, err
	}

	return s.m.getBlogById(ctx, blogID)
}

// EditComment replaces the text of an existing comment, preserving its id,
// author and date, and returns the updated blog.
func (s *BlogService) EditComment(ctx context.Context, blogID, commentID int, text string) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, blogID, "id")
	validateInt(v, commentID, "comment_id")
	validateCommentText(v, text)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	err := s.m.updateComment(ctx, blogID, commentID, sanitizeText(text))
	if err != nil {
		return nil, err
	}

	return s.m.getBlogById(ctx, blogID)
}

// DeleteComment removes a comment by id. A non-matching comment id is a no-op
// that still succeeds.
func (s *BlogService) DeleteComment(ctx context.Context, blogID, commentID int) error {
	v := common.NewValidator()
	validateInt(v, blogID, "id")
	validateInt(v, commentID, "comment_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.deleteComment(ctx, blogID, commentID)
}
