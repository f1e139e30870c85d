package store

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
)

// Setting keys.
const (
	SettingColor         = "color"
	SettingShape         = "shape"
	SettingActiveProfile = "active_profile"
)

// Sprite shapes understood by the viewer.
const (
	ShapeCircle = "circle"
	ShapeSquare = "square"
	ShapeStar   = "star"
)

// ErrInvalidSetting is returned when a viewer setting fails validation.
var ErrInvalidSetting = errors.New("invalid setting")

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ViewerSettings are the cosmetic particle options shown by the viewer.
type ViewerSettings struct {
	Color string `json:"color"`
	Shape string `json:"shape"`
}

// DefaultViewerSettings returns white circular sprites.
func DefaultViewerSettings() ViewerSettings {
	return ViewerSettings{Color: "#ffffff", Shape: ShapeCircle}
}

// Validate checks the color format and the shape name.
func (v ViewerSettings) Validate() error {
	if !colorPattern.MatchString(v.Color) {
		return fmt.Errorf("%w: color %q must be #rrggbb", ErrInvalidSetting, v.Color)
	}
	switch v.Shape {
	case ShapeCircle, ShapeSquare, ShapeStar:
	default:
		return fmt.Errorf("%w: unknown shape %q", ErrInvalidSetting, v.Shape)
	}
	return nil
}

// SettingsRepository reads and writes key-value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value for key, or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// Viewer returns stored viewer settings with defaults for missing keys.
func (r *SettingsRepository) Viewer() (ViewerSettings, error) {
	v := DefaultViewerSettings()

	for key, dst := range map[string]*string{SettingColor: &v.Color, SettingShape: &v.Shape} {
		value, err := r.Get(key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return ViewerSettings{}, err
		}
		*dst = value
	}
	return v, nil
}

// SaveViewer validates and stores viewer settings.
func (r *SettingsRepository) SaveViewer(v ViewerSettings) error {
	if err := v.Validate(); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	if _, err := stmt.Exec(SettingColor, v.Color); err != nil {
		return err
	}
	if _, err := stmt.Exec(SettingShape, v.Shape); err != nil {
		return err
	}

	return tx.Commit()
}
