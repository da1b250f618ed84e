package api

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestAPI builds an API on an isolated in-memory database. The pgx pool
// and bus are left nil; paths that need them are covered with fakes in their
// own tests.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	orm, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := orm.AutoMigrate(
		&userModel{},
		&sessionModel{},
		&contactModel{},
		&inviteModel{},
		&alertModel{},
		&responseModel{},
		&mediaModel{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	a, err := New(&Store{ORM: orm}, Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new api: %v", err)
	}
	return a
}

func createTestUser(t *testing.T, a *API, email, name string) Caller {
	t.Helper()

	user := userModel{
		ID:            uuid.New(),
		Email:         email,
		Name:          name,
		EmailVerified: true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := a.store.ORM.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user.toCaller()
}

// linkContacts wires target as a verified, linked contact of owner, the state
// an accepted invite leaves behind.
func linkContacts(t *testing.T, a *API, owner, target Caller) Contact {
	t.Helper()

	contact, err := a.linkVerifiedContact(context.Background(), owner.ID, target.Email, target.ID)
	if err != nil {
		t.Fatalf("link contact: %v", err)
	}
	return contact
}

func createTestAlert(t *testing.T, a *API, owner Caller, coords *Coordinates) Alert {
	t.Helper()

	alert, err := a.createAlert(context.Background(), owner, "sos", coords)
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}
	return alert
}

func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s: %v", kind, got, err)
	}
}
