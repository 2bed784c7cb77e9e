// This file defines the Exhibition model and repository methods for CRUD
// operations. An Exhibition is a named collection of stations owned by a
// single admin; every query here is scoped by admin_user_id so one admin
// can never see or touch another admin's records.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Exhibition represents an exhibition row. Description is nullable and
// serializes to JSON null when absent.
type Exhibition struct {
	ID          uint64    `json:"id"`
	AdminUserID uint64    `json:"admin_user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExhibitionRepo encapsulates all database queries related to exhibitions.
type ExhibitionRepo struct {
	db *sql.DB
}

// NewExhibitionRepo constructs an ExhibitionRepo with the provided DB
// handle. This allows dependency injection of the database in tests and
// at startup.
func NewExhibitionRepo(db *sql.DB) *ExhibitionRepo {
	return &ExhibitionRepo{db: db}
}

const exhibitionCols = "id, admin_user_id, title, description, created_at, updated_at"

func scanExhibition(row interface{ Scan(...any) error }, e *Exhibition) error {
	return row.Scan(&e.ID, &e.AdminUserID, &e.Title, &e.Description, &e.CreatedAt, &e.UpdatedAt)
}

// Create inserts a new exhibition. On success the struct is re-read so
// callers receive the generated ID and DB-assigned timestamps.
func (r *ExhibitionRepo) Create(ctx context.Context, e *Exhibition) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO exhibitions (admin_user_id, title, description) VALUES (?, ?, ?)",
		e.AdminUserID, e.Title, e.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)

	const qSelect = "SELECT " + exhibitionCols + " FROM exhibitions WHERE id = ?"
	return scanExhibition(r.db.QueryRowContext(ctx, qSelect, e.ID), e)
}

// GetByIDAndOwner fetches an exhibition by id but only if it belongs to
// the specified owner. Missing and foreign rows both come back as
// ErrExhibitionNotFound.
func (r *ExhibitionRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*Exhibition, error) {
	const q = "SELECT " + exhibitionCols + " FROM exhibitions WHERE id = ? AND admin_user_id = ?"
	var e Exhibition
	if err := scanExhibition(r.db.QueryRowContext(ctx, q, id, ownerID), &e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExhibitionNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListByOwner returns all exhibitions for an owner, newest first.
func (r *ExhibitionRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*Exhibition, error) {
	const q = "SELECT " + exhibitionCols + ` FROM exhibitions
	           WHERE admin_user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Exhibition{}
	for rows.Next() {
		e := new(Exhibition)
		if err := scanExhibition(rows, e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateByIDAndOwner updates title and description if the exhibition
// belongs to the owner, refreshing updated_at, and returns the updated
// record. Returns ErrExhibitionNotFound when no row matched.
func (r *ExhibitionRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, title string, description *string) (*Exhibition, error) {
	const q = `UPDATE exhibitions
	           SET title = ?, description = ?, updated_at = CURRENT_TIMESTAMP(6)
	           WHERE id = ? AND admin_user_id = ?`
	res, err := r.db.ExecContext(ctx, q, title, description, id, ownerID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrExhibitionNotFound
	}
	return r.GetByIDAndOwner(ctx, id, ownerID)
}

// DeleteByIDAndOwner removes an exhibition and all of its stations inside
// one transaction so no orphaned stations can remain. The deleted record
// is returned so the API can echo it back. ErrExhibitionNotFound covers
// both missing and foreign rows.
func (r *ExhibitionRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) (*Exhibition, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const qSelect = "SELECT " + exhibitionCols + " FROM exhibitions WHERE id = ? AND admin_user_id = ?"
	var e Exhibition
	if err = scanExhibition(tx.QueryRowContext(ctx, qSelect, id, ownerID), &e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrExhibitionNotFound
		}
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM stations WHERE exhibition_id = ?", id); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM exhibitions WHERE id = ?", id); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &e, nil
}
