package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocerly/internal/services"
)

func TestRegister(t *testing.T) {
	db := memdb(t)
	svc := authSvc(db)
	ctx := context.Background()

	u, err := svc.Register(ctx, services.RegisterInput{
		Username: " asha ", Email: "asha@example.com", ContactNo: "9876543210", Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "asha", u.Username)

	var stored string
	require.NoError(t, db.Get(&stored, `SELECT password_hash FROM users WHERE user_id=?`, u.ID))
	assert.NotEqual(t, "secret123", stored)

	_, err = svc.Register(ctx, services.RegisterInput{Username: "x", Email: "ASHA@example.com", ContactNo: "9000000000", Password: "secret123"})
	assert.Equal(t, services.KindConflict, services.KindOf(err))
	assert.EqualError(t, err, "User with this email already exists")

	_, err = svc.Register(ctx, services.RegisterInput{Username: "x", Email: "x@example.com", ContactNo: "9876543210", Password: "secret123"})
	assert.EqualError(t, err, "User with this contact number already exists")

	_, err = svc.Register(ctx, services.RegisterInput{Username: "x", Email: "x@example.com"})
	assert.Equal(t, services.KindValidation, services.KindOf(err))
	assert.EqualError(t, err, "Please provide all required fields")

	_, err = svc.Register(ctx, services.RegisterInput{Username: "x", Email: "not-an-email", ContactNo: "9000000001", Password: "secret123"})
	assert.EqualError(t, err, "email must be a valid email")

	_, err = svc.Register(ctx, services.RegisterInput{Username: "x", Email: "x@example.com", ContactNo: "9000000001", Password: "abc"})
	assert.EqualError(t, err, "password must be at least 6")
}

func TestLoginAndVerify(t *testing.T) {
	db := memdb(t)
	who := register(t, db, "asha", "asha@example.com", "9876543210")
	svc := authSvc(db)
	ctx := context.Background()

	tok, u, err := svc.Login(ctx, services.LoginInput{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, who.UserID, u.ID)

	id, err := svc.Verify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, who.UserID, id.UserID)
	assert.Equal(t, "asha", id.Username)
	assert.Equal(t, "9876543210", id.ContactNo)

	_, _, err = svc.Login(ctx, services.LoginInput{ContactNo: "9876543210", Password: "wrong-pass"})
	assert.Equal(t, services.KindAuth, services.KindOf(err))
	assert.EqualError(t, err, "Invalid password.")

	_, _, err = svc.Login(ctx, services.LoginInput{Email: "nobody@example.com", Password: "secret123"})
	assert.Equal(t, services.KindNotFound, services.KindOf(err))

	_, _, err = svc.Login(ctx, services.LoginInput{Password: "secret123"})
	assert.Equal(t, services.KindValidation, services.KindOf(err))
}

func TestLoginRotatesToken(t *testing.T) {
	db := memdb(t)
	register(t, db, "asha", "asha@example.com", "9876543210")
	svc := authSvc(db)
	ctx := context.Background()

	first, _, err := svc.Login(ctx, services.LoginInput{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)
	second, _, err := svc.Login(ctx, services.LoginInput{ContactNo: "9876543210", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = svc.Verify(ctx, first)
	assert.Equal(t, services.KindAuth, services.KindOf(err))
	assert.EqualError(t, err, "Token revoked or invalid. Please login again.")

	_, err = svc.Verify(ctx, second)
	assert.NoError(t, err)
	assert.Equal(t, 1, count(t, db, "tokens"))
}

func TestLogoutRevokes(t *testing.T) {
	db := memdb(t)
	register(t, db, "asha", "asha@example.com", "9876543210")
	svc := authSvc(db)
	ctx := context.Background()

	tok, _, err := svc.Login(ctx, services.LoginInput{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, tok))

	_, err = svc.Verify(ctx, tok)
	assert.Equal(t, services.KindAuth, services.KindOf(err))
}

func TestVerifyRejectsForgedToken(t *testing.T) {
	db := memdb(t)
	register(t, db, "asha", "asha@example.com", "9876543210")
	ctx := context.Background()

	tok, _, err := authSvc(db).Login(ctx, services.LoginInput{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)

	other := authSvc(db)
	other.Secret = []byte("someone-else")
	_, err = other.Verify(ctx, tok)
	assert.Equal(t, services.KindAuth, services.KindOf(err))
	assert.Contains(t, err.Error(), "Invalid token. Please login again.")

	_, err = authSvc(db).Verify(ctx, "")
	assert.EqualError(t, err, "Access token required")
}

func TestUpdateProfile(t *testing.T) {
	db := memdb(t)
	a := register(t, db, "asha", "asha@example.com", "9876543210")
	register(t, db, "bala", "bala@example.com", "9876543211")
	svc := authSvc(db)
	ctx := context.Background()

	addr := " 12 MG Road "
	u, err := svc.UpdateProfile(ctx, a.UserID, services.ProfileInput{
		Username: "Asha K", Email: "asha@example.com", ContactNumber: "9876543210", Address: &addr,
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha K", u.Username)
	assert.Equal(t, "12 MG Road", u.Address)

	_, err = svc.UpdateProfile(ctx, a.UserID, services.ProfileInput{
		Username: "Asha", Email: "bala@example.com", ContactNumber: "9876543210",
	})
	assert.Equal(t, services.KindConflict, services.KindOf(err))
	assert.EqualError(t, err, "Email already in use by another account")

	_, err = svc.UpdateProfile(ctx, a.UserID, services.ProfileInput{
		Username: "Asha", Email: "asha@example.com", ContactNumber: "9876543211",
	})
	assert.EqualError(t, err, "Contact number already in use by another account")

	_, err = svc.UpdateProfile(ctx, a.UserID, services.ProfileInput{Username: "Asha"})
	assert.EqualError(t, err, "Username, email, and contact number are required")

	_, err = svc.Profile(ctx, 9999)
	assert.Equal(t, services.KindNotFound, services.KindOf(err))
}
