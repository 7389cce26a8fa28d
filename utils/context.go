package utils

import (
	"context"
	"net/http"

	"krishilink/apperr"
	"krishilink/globals"
	"krishilink/models"
)

func GetUserEmailFromContext(ctx context.Context) string {
	email, ok := ctx.Value(globals.UserEmailKey).(string)
	if !ok || email == "" {
		return ""
	}
	return email
}

func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, globals.UserEmailKey, email)
}

func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(globals.RequestIDKey).(string)
	return id
}

// RequireQueryEmail returns the "email" query parameter after checking that it
// is present and matches the authenticated caller.
func RequireQueryEmail(r *http.Request) (string, error) {
	email := models.NormalizeEmail(r.URL.Query().Get("email"))
	if email == "" {
		return "", apperr.BadRequest("email query parameter is required")
	}
	if caller := models.NormalizeEmail(GetUserEmailFromContext(r.Context())); caller != email {
		return "", apperr.Forbidden("Forbidden access")
	}
	return email, nil
}
