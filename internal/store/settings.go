package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/orientation"
)

// ErrNotFound is returned when a requested setting does not exist.
var ErrNotFound = errors.New("not found")

// Setting keys.
const (
	KeyDisplaySize = "display.size"
	KeyOrientation = "device.orientation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Setting is one stored key/value pair.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingsRepository reads and writes the settings table.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set inserts or replaces the value stored under key.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	return err
}

// Delete removes key. Deleting a missing key returns ErrNotFound.
func (r *SettingsRepository) Delete(key string) error {
	result, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// All returns every setting ordered by key.
func (r *SettingsRepository) All() ([]Setting, error) {
	rows, err := r.db.Query(`SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// DisplaySize returns the stored display surface size.
func (r *SettingsRepository) DisplaySize() (geometry.Size, error) {
	value, err := r.Get(KeyDisplaySize)
	if err != nil {
		return geometry.Size{}, err
	}
	var size geometry.Size
	if err := json.UnmarshalFromString(value, &size); err != nil {
		return geometry.Size{}, fmt.Errorf("decode %s: %w", KeyDisplaySize, err)
	}
	return size, nil
}

// SetDisplaySize stores the display surface size.
func (r *SettingsRepository) SetDisplaySize(size geometry.Size) error {
	if err := size.Validate(); err != nil {
		return err
	}
	value, err := json.MarshalToString(size)
	if err != nil {
		return err
	}
	return r.Set(KeyDisplaySize, value)
}

// Orientation returns the stored device orientation.
func (r *SettingsRepository) Orientation() (orientation.Orientation, error) {
	value, err := r.Get(KeyOrientation)
	if err != nil {
		return orientation.Unknown, err
	}
	o, err := orientation.Parse(value)
	if err != nil {
		return orientation.Unknown, fmt.Errorf("decode %s: %w", KeyOrientation, err)
	}
	return o, nil
}

// SetOrientation stores the device orientation.
func (r *SettingsRepository) SetOrientation(o orientation.Orientation) error {
	return r.Set(KeyOrientation, o.String())
}
