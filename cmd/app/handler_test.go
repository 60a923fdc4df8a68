package main

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hazelbrook/bloglist/internal/blogservice"
	"github.com/hazelbrook/bloglist/internal/userservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerAndLogin(t *testing.T, ts *testServer, username, name, password string) string {
	t.Helper()

	status, _, _ := ts.post(t, "/api/users", map[string]any{
		"username": username,
		"name":     name,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	status, _, body := ts.post(t, "/api/login", map[string]any{
		"username": username,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusOK, status)

	var res loginUserResponse
	decodeJSON(t, body, &res)
	require.NotEmpty(t, res.Token)

	return res.Token
}

func TestRegisterUserHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	testCases := []struct {
		name       string
		payload    any
		wantStatus int
		wantError  string
	}{
		{
			name: "Valid Request",
			payload: map[string]any{
				"username": "mluukkai",
				"name":     "Matti Luukkainen",
				"password": "salainen",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "Weak Password",
			payload: map[string]any{
				"username": "shortpw",
				"name":     "Short Password",
				"password": "pw",
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "please enter a password that is at least 3 characters long",
		},
		{
			name: "Duplicate Username",
			payload: map[string]any{
				"username": "mluukkai",
				"name":     "Someone Else",
				"password": "salainen",
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "expected `username` to be unique",
		},
		{
			name: "Short Username",
			payload: map[string]any{
				"username": "ml",
				"name":     "Too Short",
				"password": "salainen",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "Missing Username",
			payload: map[string]any{
				"name":     "No Username",
				"password": "salainen",
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, body := ts.post(t, "/api/users", tc.payload, nil)
			assert.Equal(t, tc.wantStatus, status)

			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, errorMessage(t, body))
			}

			if status == http.StatusCreated {
				var user userservice.User
				decodeJSON(t, body, &user)
				assert.NotZero(t, user.ID)
				assert.Equal(t, "mluukkai", user.Username)
				assert.Equal(t, "Matti Luukkainen", user.Name)
				assert.Empty(t, user.Blogs)

				// the hash must never leave the server
				var raw map[string]any
				decodeJSON(t, body, &raw)
				assert.NotContains(t, raw, "passwordHash")
				assert.NotContains(t, raw, "password")
			}
		})
	}
}

func TestLoginUserHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	status, _, _ := ts.post(t, "/api/users", map[string]any{
		"username": "mluukkai",
		"name":     "Matti Luukkainen",
		"password": "salainen",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	t.Run("Valid Credentials", func(t *testing.T) {
		status, _, body := ts.post(t, "/api/login", map[string]any{
			"username": "mluukkai",
			"password": "salainen",
		}, nil)
		assert.Equal(t, http.StatusOK, status)

		var res loginUserResponse
		decodeJSON(t, body, &res)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, "mluukkai", res.Username)
		assert.Equal(t, "Matti Luukkainen", res.Name)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		status, _, body := ts.post(t, "/api/login", map[string]any{
			"username": "mluukkai",
			"password": "wrong",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "invalid username or password", errorMessage(t, body))
	})

	t.Run("Unknown User", func(t *testing.T) {
		status, _, body := ts.post(t, "/api/login", map[string]any{
			"username": "nobody",
			"password": "salainen",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "invalid username or password", errorMessage(t, body))
	})
}

func TestListUsersHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	token := registerAndLogin(t, ts, "mluukkai", "Matti Luukkainen", "salainen")

	status, _, _ := ts.post(t, "/api/blogs", map[string]any{
		"title": "Canonical string reduction",
		"url":   "http://example.com/canonical",
	}, &token)
	require.Equal(t, http.StatusCreated, status)

	status, _, body := ts.get(t, "/api/users", nil)
	assert.Equal(t, http.StatusOK, status)

	var users []userservice.User
	decodeJSON(t, body, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "mluukkai", users[0].Username)
	require.Len(t, users[0].Blogs, 1)
	assert.Equal(t, "Canonical string reduction", users[0].Blogs[0].Title)
}

func TestBlogLifecycle(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	ownerToken := registerAndLogin(t, ts, "mluukkai", "Matti Luukkainen", "salainen")
	otherToken := registerAndLogin(t, ts, "hellas", "Arto Hellas", "salainen")

	var blogID int

	t.Run("Create", func(t *testing.T) {
		status, _, body := ts.post(t, "/api/blogs", map[string]any{
			"title":  "Go Concurrency Patterns",
			"author": "Rob Pike",
			"url":    "http://example.com/concurrency",
			"likes":  99,
		}, &ownerToken)
		assert.Equal(t, http.StatusCreated, status)

		var blog blogservice.Blog
		decodeJSON(t, body, &blog)
		assert.NotZero(t, blog.ID)
		assert.Equal(t, "Go Concurrency Patterns", blog.Title)
		assert.Equal(t, 0, blog.Likes)
		assert.Equal(t, "mluukkai", blog.User.Username)
		assert.Empty(t, blog.LikedBy)
		assert.Empty(t, blog.Comments)

		blogID = blog.ID
	})

	t.Run("Create Without Token", func(t *testing.T) {
		status, _, body := ts.post(t, "/api/blogs", map[string]any{
			"title": "No Auth",
			"url":   "http://example.com/noauth",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "token missing or invalid", errorMessage(t, body))
	})

	t.Run("Create Without Title", func(t *testing.T) {
		status, _, _ := ts.post(t, "/api/blogs", map[string]any{
			"url": "http://example.com/untitled",
		}, &ownerToken)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("List", func(t *testing.T) {
		status, _, body := ts.get(t, "/api/blogs", nil)
		assert.Equal(t, http.StatusOK, status)

		var blogs []blogservice.Blog
		decodeJSON(t, body, &blogs)
		require.Len(t, blogs, 1)
		assert.Equal(t, "mluukkai", blogs[0].User.Username)
	})

	t.Run("Get By ID", func(t *testing.T) {
		status, _, body := ts.get(t, fmt.Sprintf("/api/blogs/%d", blogID), nil)
		assert.Equal(t, http.StatusOK, status)

		var blog blogservice.Blog
		decodeJSON(t, body, &blog)
		assert.Equal(t, blogID, blog.ID)
	})

	t.Run("Toggle Like On", func(t *testing.T) {
		status, _, body := ts.put(t, fmt.Sprintf("/api/blogs/%d", blogID), nil, &otherToken)
		assert.Equal(t, http.StatusOK, status)

		var blog blogservice.Blog
		decodeJSON(t, body, &blog)
		assert.Equal(t, 1, blog.Likes)
		require.Len(t, blog.LikedBy, 1)
		assert.Equal(t, "hellas", blog.LikedBy[0].Username)
	})

	t.Run("Toggle Like Off", func(t *testing.T) {
		status, _, body := ts.put(t, fmt.Sprintf("/api/blogs/%d", blogID), nil, &otherToken)
		assert.Equal(t, http.StatusOK, status)

		var blog blogservice.Blog
		decodeJSON(t, body, &blog)
		assert.Equal(t, 0, blog.Likes)
		assert.Empty(t, blog.LikedBy)
	})

	t.Run("Toggle Like On Missing Blog", func(t *testing.T) {
		status, _, body := ts.put(t, "/api/blogs/999999", nil, &otherToken)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "blog not found", errorMessage(t, body))
	})

	t.Run("Delete By Non Owner", func(t *testing.T) {
		status, _, body := ts.delete(t, fmt.Sprintf("/api/blogs/%d", blogID), &otherToken)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "target blog belongs to another user", errorMessage(t, body))
	})

	t.Run("Delete By Owner", func(t *testing.T) {
		status, _, _ := ts.delete(t, fmt.Sprintf("/api/blogs/%d", blogID), &ownerToken)
		assert.Equal(t, http.StatusNoContent, status)

		status, _, body := ts.get(t, fmt.Sprintf("/api/blogs/%d", blogID), nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "blog not found", errorMessage(t, body))
	})

	t.Run("Delete Missing Blog", func(t *testing.T) {
		status, _, body := ts.delete(t, fmt.Sprintf("/api/blogs/%d", blogID), &ownerToken)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "resource not found", errorMessage(t, body))
	})
}

func TestCommentHandlers(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	ownerToken := registerAndLogin(t, ts, "mluukkai", "Matti Luukkainen", "salainen")
	commenterToken := registerAndLogin(t, ts, "hellas", "Arto Hellas", "salainen")

	status, _, body := ts.post(t, "/api/blogs", map[string]any{
		"title": "Type Parameters Proposal",
		"url":   "http://example.com/generics",
	}, &ownerToken)
	require.Equal(t, http.StatusCreated, status)

	var blog blogservice.Blog
	decodeJSON(t, body, &blog)
	blogID := blog.ID

	var commentID int

	t.Run("Add", func(t *testing.T) {
		status, _, body := ts.post(t, fmt.Sprintf("/api/blogs/%d/comments", blogID), map[string]any{
			"text": "great writeup",
		}, &commenterToken)
		assert.Equal(t, http.StatusOK, status)

		var blog blogservice.Blog
		decodeJSON(t, body, &blog)
		require.Len(t, blog.Comments, 1)
		assert.Equal(t, "great writeup", blog.Comments[0].Text)
		assert.Equal(t, "hellas", blog.Comments[0].User.Username)
		assert.False(t, blog.Comments[0].Date.IsZero())

		commentID = blog.Comments[0].ID
	})

	t.Run("Add To Missing Blog", func(t *testing.T) {
		status, _, body := ts.post(t, "/api/blogs/999999/comments", map[string]any{
			"text": "into the void",
		}, &commenterToken)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "resource not found", errorMessage(t, body))
	})

	t.Run("Add Without Text", func(t *testing.T) {
		status, _, _ := ts.post(t, fmt.Sprintf("/api/blogs/%d/comments", blogID), map[string]any{}, &commenterToken)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Edit", func(t *testing.T) {
		status, _, body := ts.put(t, fmt.Sprintf("/api/blogs/%d/%d", blogID, commentID), map[string]any{
			"text": "great writeup, updated",
		}, &commenterToken)
		assert.Equal(t, http.StatusOK, status)

		var blog blogservice.Blog
		decodeJSON(t, body, &blog)
		require.Len(t, blog.Comments, 1)
		assert.Equal(t, commentID, blog.Comments[0].ID)
		assert.Equal(t, "great writeup, updated", blog.Comments[0].Text)
		assert.Equal(t, "hellas", blog.Comments[0].User.Username)
	})

	t.Run("Edit Unknown Comment", func(t *testing.T) {
		status, _, body := ts.put(t, fmt.Sprintf("/api/blogs/%d/999999", blogID), map[string]any{
			"text": "nope",
		}, &commenterToken)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "comment to edit not found", errorMessage(t, body))
	})

	t.Run("Edit Comment On Missing Blog", func(t *testing.T) {
		status, _, body := ts.put(t, fmt.Sprintf("/api/blogs/999999/%d", commentID), map[string]any{
			"text": "nope",
		}, &commenterToken)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "blog not found", errorMessage(t, body))
	})

	t.Run("Delete Unknown Comment Is Silent", func(t *testing.T) {
		status, _, _ := ts.delete(t, fmt.Sprintf("/api/blogs/%d/999999", blogID), &commenterToken)
		assert.Equal(t, http.StatusNoContent, status)
	})

	t.Run("Delete Comment On Missing Blog", func(t *testing.T) {
		status, _, body := ts.delete(t, fmt.Sprintf("/api/blogs/999999/%d", commentID), &commenterToken)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "blog not found", errorMessage(t, body))
	})

	t.Run("Delete", func(t *testing.T) {
		status, _, _ := ts.delete(t, fmt.Sprintf("/api/blogs/%d/%d", blogID, commentID), &commenterToken)
		assert.Equal(t, http.StatusNoContent, status)

		status, _, body := ts.get(t, fmt.Sprintf("/api/blogs/%d", blogID), nil)
		require.Equal(t, http.StatusOK, status)

		var blog blogservice.Blog
		decodeJSON(t, body, &blog)
		assert.Empty(t, blog.Comments)
	})
}

func TestTokenVerdicts(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	registerAndLogin(t, ts, "mluukkai", "Matti Luukkainen", "salainen")

	payload := map[string]any{
		"title": "unauthorized",
		"url":   "http://example.com/unauthorized",
	}

	t.Run("Garbage Token", func(t *testing.T) {
		token := "not-a-jwt"
		status, _, body := ts.post(t, "/api/blogs", payload, &token)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "token missing or invalid", errorMessage(t, body))
	})

	t.Run("Expired Token", func(t *testing.T) {
		claims := jwt.MapClaims{
			"username": "mluukkai",
			"id":       1,
			"iat":      time.Now().Add(-time.Hour).Unix(),
			"exp":      time.Now().Add(-time.Minute).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(app.config.Secret))
		require.NoError(t, err)

		status, _, body := ts.post(t, "/api/blogs", payload, &token)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "token expired", errorMessage(t, body))
	})

	t.Run("Token Without Subject", func(t *testing.T) {
		claims := jwt.MapClaims{
			"username": "mluukkai",
			"iat":      time.Now().Unix(),
			"exp":      time.Now().Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(app.config.Secret))
		require.NoError(t, err)

		status, _, body := ts.post(t, "/api/blogs", payload, &token)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "token invalid", errorMessage(t, body))
	})

	t.Run("Wrong Signing Key", func(t *testing.T) {
		claims := jwt.MapClaims{
			"username": "mluukkai",
			"id":       1,
			"iat":      time.Now().Unix(),
			"exp":      time.Now().Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-secret"))
		require.NoError(t, err)

		status, _, body := ts.post(t, "/api/blogs", payload, &token)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "token missing or invalid", errorMessage(t, body))
	})
}

func TestMalformattedID(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	status, _, body := ts.get(t, "/api/blogs/abc123", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "malformatted id", errorMessage(t, body))
}

func TestUnknownEndpoint(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	status, _, body := ts.get(t, "/api/nonsense", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "unknown endpoint", errorMessage(t, body))
}

func TestHealthCheckHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	status, _, body := ts.get(t, "/api/healthcheck", nil)
	assert.Equal(t, http.StatusOK, status)

	var env map[string]any
	decodeJSON(t, body, &env)
	assert.Equal(t, "available", env["status"])
}

func TestResetHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	token := registerAndLogin(t, ts, "mluukkai", "Matti Luukkainen", "salainen")

	status, _, _ := ts.post(t, "/api/blogs", map[string]any{
		"title": "soon to be gone",
		"url":   "http://example.com/gone",
	}, &token)
	require.Equal(t, http.StatusCreated, status)

	status, _, _ = ts.post(t, "/api/testing/reset", nil, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _, body := ts.get(t, "/api/users", nil)
	require.Equal(t, http.StatusOK, status)

	var users []userservice.User
	decodeJSON(t, body, &users)
	assert.Empty(t, users)

	status, _, body = ts.get(t, "/api/blogs", nil)
	require.Equal(t, http.StatusOK, status)

	var blogs []blogservice.Blog
	decodeJSON(t, body, &blogs)
	assert.Empty(t, blogs)
}
