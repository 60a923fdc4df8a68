package main

import (
	"context"
	"net/http"

	"github.com/hazelbrook/bloglist/internal/userservice"
)

type contextKey string

const (
	tokenContextKey = contextKey("token")
	userContextKey  = contextKey("user")
)

func (app *application) createTokenContext(r *http.Request, token string) *http.Request {
	ctx := context.WithValue(r.Context(), tokenContextKey, token)
	return r.WithContext(ctx)
}

func (app *application) getTokenContext(r *http.Request) string {
	token, ok := r.Context().Value(tokenContextKey).(string)
	if !ok {
		return ""
	}
	return token
}

func (app *application) createUserContext(r *http.Request, user *userservice.User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

// getUserContext returns the acting user, or nil when the token's subject did
// not resolve to a stored user. Callers must not assume it resolves.
func (app *application) getUserContext(r *http.Request) *userservice.User {
	user, ok := r.Context().Value(userContextKey).(*userservice.User)
	if !ok {
		return nil
	}
	return user
}
