package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/utils"
)

const userColumns = "id, username, email, password_hash, confirmed, avatar, refresh_token, created_at, updated_at"

// UserRepo encapsulates all database queries related to users.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the provided DB handle.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// GetByEmail fetches a user by normalized email. sql.ErrNoRows signals
// absence and is left to the caller to interpret.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = "SELECT " + userColumns + " FROM users WHERE email = ? LIMIT 1"
	var u model.User
	err := r.db.QueryRowContext(ctx, q, email).Scan(&u.ID, &u.Username, &u.Email,
		&u.PasswordHash, &u.Confirmed, &u.Avatar, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create hashes the password and inserts a new user. The avatar may be nil
// when enrichment failed; that is not an error. A duplicate email maps to
// ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, username, email, password string, cost int, avatar *string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	const qInsert = "INSERT INTO users (username, email, password_hash, avatar) VALUES (?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, username, email, hash, avatar)
	if err != nil {
		// MySQL error 1062: duplicate entry for the unique email index.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	u := &model.User{ID: uint64(id), Username: username, Email: email, PasswordHash: hash, Avatar: avatar}
	const qSelect = "SELECT confirmed, created_at, updated_at FROM users WHERE id = ?"
	if err := r.db.QueryRowContext(ctx, qSelect, u.ID).Scan(&u.Confirmed, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateRefreshToken unconditionally overwrites the user's refresh token.
// A nil token clears it.
func (r *UserRepo) UpdateRefreshToken(ctx context.Context, userID uint64, token *string) error {
	const q = "UPDATE users SET refresh_token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	_, err := r.db.ExecContext(ctx, q, token, userID)
	return err
}

// ConfirmEmail sets confirmed = TRUE for the given email. Idempotent:
// confirming an already-confirmed user is a no-op.
func (r *UserRepo) ConfirmEmail(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = "UPDATE users SET confirmed = TRUE, updated_at = CURRENT_TIMESTAMP WHERE email = ?"
	_, err := r.db.ExecContext(ctx, q, email)
	return err
}

// UpdateAvatar overwrites the avatar URL and returns the updated user.
func (r *UserRepo) UpdateAvatar(ctx context.Context, email, url string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = "UPDATE users SET avatar = ?, updated_at = CURRENT_TIMESTAMP WHERE email = ?"
	if _, err := r.db.ExecContext(ctx, q, url, email); err != nil {
		return nil, err
	}
	return r.GetByEmail(ctx, email)
}
