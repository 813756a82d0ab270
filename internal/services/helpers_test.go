package services_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"grocerly/internal/config"
	"grocerly/internal/domain"
	"grocerly/internal/repos"
	"grocerly/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(config.DB{DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func authSvc(db *sqlx.DB) *services.AuthService {
	return services.NewAuthService(repos.NewUserRepo(db), config.Auth{JWTSecret: "test-secret"})
}

func register(t *testing.T, db *sqlx.DB, name, email, contact string) *domain.Identity {
	t.Helper()
	u, err := authSvc(db).Register(context.Background(), services.RegisterInput{
		Username: name, Email: email, ContactNo: contact, Password: "secret123",
	})
	require.NoError(t, err)
	return &domain.Identity{UserID: u.ID, Username: u.Username, Email: u.Email, ContactNo: u.ContactNumber}
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func count(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}
