package repository // repository holds data access logic for domain entities

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Station represents a multilingual text unit inside an exhibition. Texts
// maps a language code to the display string for that language and is
// persisted as a JSON document.
type Station struct {
	ID           uint64            `json:"id"`
	ExhibitionID uint64            `json:"exhibition_id"`
	Title        string            `json:"title"`
	Texts        map[string]string `json:"texts"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// StationRepo provides persistence for stations. Ownership of a station is
// derived through its exhibition, so owner checks join against the
// exhibitions table.
type StationRepo struct {
	db *sql.DB
}

// NewStationRepo constructs a StationRepo with the given DB handle.
func NewStationRepo(db *sql.DB) *StationRepo {
	return &StationRepo{db: db}
}

const stationCols = "id, exhibition_id, title, texts, created_at, updated_at"

func scanStation(row interface{ Scan(...any) error }, s *Station) error {
	var texts []byte
	if err := row.Scan(&s.ID, &s.ExhibitionID, &s.Title, &texts, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	return json.Unmarshal(texts, &s.Texts)
}

// Create inserts a new station and re-reads the row so the caller gets
// the generated ID and timestamps.
func (r *StationRepo) Create(ctx context.Context, s *Station) error {
	texts, err := json.Marshal(s.Texts)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO stations (exhibition_id, title, texts) VALUES (?, ?, ?)",
		s.ExhibitionID, s.Title, texts)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	const qSelect = "SELECT " + stationCols + " FROM stations WHERE id = ?"
	return scanStation(r.db.QueryRowContext(ctx, qSelect, s.ID), s)
}

// ListByExhibition returns all stations of an exhibition in creation
// order. The caller is expected to have verified exhibition ownership.
func (r *StationRepo) ListByExhibition(ctx context.Context, exhibitionID uint64) ([]*Station, error) {
	const q = "SELECT " + stationCols + ` FROM stations
	           WHERE exhibition_id = ? ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, q, exhibitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Station{}
	for rows.Next() {
		s := new(Station)
		if err := scanStation(rows, s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetWithOwner resolves a station together with the admin that owns its
// exhibition. Returns ErrStationNotFound when the station does not exist;
// the caller decides how to treat an owner mismatch.
func (r *StationRepo) GetWithOwner(ctx context.Context, id uint64) (*Station, uint64, error) {
	const q = `SELECT s.id, s.exhibition_id, s.title, s.texts, s.created_at, s.updated_at, e.admin_user_id
	           FROM stations s
	           JOIN exhibitions e ON e.id = s.exhibition_id
	           WHERE s.id = ?`
	var (
		s       Station
		texts   []byte
		ownerID uint64
	)
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.ExhibitionID, &s.Title, &texts, &s.CreatedAt, &s.UpdatedAt, &ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrStationNotFound
		}
		return nil, 0, err
	}
	if err := json.Unmarshal(texts, &s.Texts); err != nil {
		return nil, 0, err
	}
	return &s, ownerID, nil
}

// OwnedBy reports whether the station's exhibition belongs to the given
// admin. A missing station also reports false.
func (r *StationRepo) OwnedBy(ctx context.Context, stationID, ownerID uint64) (bool, error) {
	const q = `SELECT s.id FROM stations s
	           JOIN exhibitions e ON e.id = s.exhibition_id
	           WHERE s.id = ? AND e.admin_user_id = ?`
	var id uint64
	err := r.db.QueryRowContext(ctx, q, stationID, ownerID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update replaces title and texts, refreshing updated_at, and returns the
// updated record. Ownership must have been checked by the caller via
// OwnedBy; a vanished row surfaces as ErrStationNotFound.
func (r *StationRepo) Update(ctx context.Context, id uint64, title string, texts map[string]string) (*Station, error) {
	raw, err := json.Marshal(texts)
	if err != nil {
		return nil, err
	}
	const q = `UPDATE stations
	           SET title = ?, texts = ?, updated_at = CURRENT_TIMESTAMP(6)
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, title, raw, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrStationNotFound
	}
	const qSelect = "SELECT " + stationCols + " FROM stations WHERE id = ?"
	var s Station
	if err := scanStation(r.db.QueryRowContext(ctx, qSelect, id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes a station and returns the deleted record. Ownership must
// have been checked by the caller via OwnedBy.
func (r *StationRepo) Delete(ctx context.Context, id uint64) (*Station, error) {
	const qSelect = "SELECT " + stationCols + " FROM stations WHERE id = ?"
	var s Station
	if err := scanStation(r.db.QueryRowContext(ctx, qSelect, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM stations WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &s, nil
}
