package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"grocerly/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `user_id, username, email, contact_number, password_hash, COALESCE(address,'') AS address`

func (r *UserRepo) one(ctx context.Context, where string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE `+where, arg)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.one(ctx, `LOWER(email)=LOWER(?)`, email)
}

func (r *UserRepo) ByContact(ctx context.Context, contact string) (*domain.User, error) {
	return r.one(ctx, `contact_number=?`, contact)
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.one(ctx, `user_id=?`, id)
}

// Taken reports whether email or contact number already belong to a user other than exceptID.
// Pass exceptID=0 for a new account.
func (r *UserRepo) Taken(ctx context.Context, email, contact string, exceptID int64) (emailTaken, contactTaken bool, err error) {
	var n int
	if err = r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE LOWER(email)=LOWER(?) AND user_id != ?`, email, exceptID); err != nil {
		return
	}
	emailTaken = n > 0
	if err = r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE contact_number=? AND user_id != ?`, contact, exceptID); err != nil {
		return
	}
	contactTaken = n > 0
	return
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users(username, email, contact_number, password_hash, created_at)
		VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, u.Username, u.Email, u.ContactNumber, u.Hash)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, username, email, contact string, address sql.NullString) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET username=?, email=?, contact_number=?, address=?
		WHERE user_id=?
	`, username, email, contact, address, id)
	return err
}

// ReplaceToken stores token as the only active credential for the user.
func (r *UserRepo) ReplaceToken(ctx context.Context, userID int64, username, token string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tokens WHERE user_id=?`, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tokens(user_id, username, access_token, created_at)
		VALUES(?, ?, ?, CURRENT_TIMESTAMP)
	`, userID, username, token); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *UserRepo) TokenActive(ctx context.Context, userID int64, token string) (bool, error) {
	var one int
	err := r.DB.GetContext(ctx, &one, `SELECT 1 FROM tokens WHERE access_token=? AND user_id=?`, token, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepo) DeleteToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM tokens WHERE access_token=?`, token)
	return err
}
