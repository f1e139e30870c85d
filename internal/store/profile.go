package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Bound names a calibration bound.
type Bound string

const (
	// BoundClosed is the fully-closed hand openness (minOpen).
	BoundClosed Bound = "closed"
	// BoundOpen is the fully-open hand openness (maxOpen).
	BoundOpen Bound = "open"
)

// Profile is a named pair of calibration bounds. A nil bound is unset.
type Profile struct {
	ID        string
	Name      string
	MinOpen   *float64
	MaxOpen   *float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalibrationEvent records one calibrate command applied to a profile.
type CalibrationEvent struct {
	ID        int64
	ProfileID string
	Bound     Bound
	Value     float64
	CreatedAt time.Time
}

// ProfileRepository provides CRUD operations for calibration profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

const profileColumns = `id, name, min_open, max_open, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	var minOpen, maxOpen sql.NullFloat64

	if err := row.Scan(&p.ID, &p.Name, &minOpen, &maxOpen, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	if minOpen.Valid {
		p.MinOpen = &minOpen.Float64
	}
	if maxOpen.Valid {
		p.MaxOpen = &maxOpen.Float64
	}
	return p, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Create inserts a new profile.
func (r *ProfileRepository) Create(p *Profile) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullable(p.MinOpen), nullable(p.MaxOpen), p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("profile %q: %w", p.Name, ErrConflict)
	}
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// GetByName retrieves a profile by its name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List retrieves all profiles ordered by name.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update writes the name and both bounds of an existing profile.
func (r *ProfileRepository) Update(p *Profile) error {
	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, min_open = ?, max_open = ?, updated_at = ? WHERE id = ?`,
		p.Name, nullable(p.MinOpen), nullable(p.MaxOpen), p.UpdatedAt, p.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("profile %q: %w", p.Name, ErrConflict)
	}
	if err != nil {
		return err
	}

	return expectOneRow(result)
}

// Delete removes a profile and its calibration history.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// Calibrate sets one bound of a profile and appends it to the calibration
// history in a single transaction.
func (r *ProfileRepository) Calibrate(id string, bound Bound, value float64) error {
	var column string
	switch bound {
	case BoundClosed:
		column = "min_open"
	case BoundOpen:
		column = "max_open"
	default:
		return fmt.Errorf("unknown bound %q", bound)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE profiles SET `+column+` = ?, updated_at = ? WHERE id = ?`, value, time.Now(), id)
	if err != nil {
		return err
	}
	if err := expectOneRow(result); err != nil {
		return err
	}

	if _, err := tx.Exec(
		`INSERT INTO calibration_events (profile_id, bound, value, created_at) VALUES (?, ?, ?, ?)`,
		id, string(bound), value, time.Now(),
	); err != nil {
		return err
	}

	return tx.Commit()
}

// History returns the calibration events of a profile, oldest first.
func (r *ProfileRepository) History(id string) ([]CalibrationEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, profile_id, bound, value, created_at
		 FROM calibration_events
		 WHERE profile_id = ?
		 ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []CalibrationEvent
	for rows.Next() {
		var e CalibrationEvent
		var bound string
		if err := rows.Scan(&e.ID, &e.ProfileID, &bound, &e.Value, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Bound = Bound(bound)
		events = append(events, e)
	}

	return events, rows.Err()
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
