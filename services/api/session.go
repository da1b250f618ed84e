package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type callerKey struct{}

func withCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func callerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// requireSession resolves the caller identity from a bearer session token.
// Handlers downstream must use the resolved identity only; a client-supplied
// user id is never trusted.
func (a *API) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, E(KindUnauthenticated, "missing bearer token"))
			return
		}

		ctx, cancel := withTimeout(r.Context())
		defer cancel()

		caller, err := a.resolveSession(ctx, token)
		if err != nil {
			respondError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

func (a *API) resolveSession(ctx context.Context, token string) (Caller, error) {
	orm := a.store.ORM.WithContext(ctx)

	var session sessionModel
	if err := orm.Where("token = ?", token).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Caller{}, E(KindUnauthenticated, "invalid session token")
		}
		return Caller{}, wrapE(KindUnavailable, err, "session lookup failed")
	}

	now := time.Now().UTC()
	if session.RevokedAt != nil {
		return Caller{}, E(KindUnauthenticated, "session revoked")
	}
	if now.After(session.ExpiresAt) {
		return Caller{}, E(KindUnauthenticated, "session expired")
	}

	var user userModel
	if err := orm.First(&user, "id = ?", session.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Caller{}, E(KindUnauthenticated, "session user no longer exists")
		}
		return Caller{}, wrapE(KindUnavailable, err, "session user lookup failed")
	}

	return user.toCaller(), nil
}

// IssueSession creates (or reuses) the user record for email and inserts a
// fresh session token. It backs the operator tooling that stands in for an
// external identity provider.
func IssueSession(ctx context.Context, orm *gorm.DB, email, name string, ttl time.Duration) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", E(KindInvalidInput, "a valid email is required")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	now := time.Now().UTC()

	var user userModel
	err := orm.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = userModel{
			ID:            uuid.New(),
			Email:         email,
			Name:          name,
			EmailVerified: true,
			CreatedAt:     now,
		}
		if err := orm.WithContext(ctx).Create(&user).Error; err != nil {
			return "", err
		}
	case err != nil:
		return "", err
	}

	session := sessionModel{
		ID:        uuid.New(),
		Token:     newOpaqueToken(),
		UserID:    user.ID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := orm.WithContext(ctx).Create(&session).Error; err != nil {
		return "", err
	}

	return session.Token, nil
}

// RevokeSession marks the session for token as revoked.
func RevokeSession(ctx context.Context, orm *gorm.DB, token string) error {
	now := time.Now().UTC()
	res := orm.WithContext(ctx).
		Model(&sessionModel{}).
		Where("token = ? AND revoked_at IS NULL", token).
		Update("revoked_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return E(KindNotFound, "no active session for token")
	}
	return nil
}

// newOpaqueToken returns an unguessable token built from two random UUIDs.
func newOpaqueToken() string {
	return strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", "")
}
