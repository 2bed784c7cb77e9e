package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/museumtech/exhibition-manager/internal/utils"
)

// AdminUser mirrors the 'admin_users' table. The password hash is never
// serialized into API responses.
type AdminUser struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

// Create hashes the password and inserts the admin, returning its ID.
// Email is stored exactly as given (case-sensitive); duplicates are
// rejected by the unique key and surfaced as ErrEmailExists.
func (r *AdminRepo) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admin_users (email, password_hash) VALUES (?,?)",
		email, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an admin by exact email.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (AdminUser, error) {
	var u AdminUser
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,created_at,updated_at FROM admin_users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches an admin by id.
func (r *AdminRepo) GetByID(ctx context.Context, id uint64) (AdminUser, error) {
	var u AdminUser
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,created_at,updated_at FROM admin_users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
