package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/madhubani/internal/canvas"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// styleKey is the settings row holding the persisted pen style.
const styleKey = "pen_style"

// SettingsRepository provides access to the key-value settings table.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get retrieves a setting value by key.
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

// Set stores a setting value, replacing any previous one.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// Style loads the persisted pen style. ErrNotFound means no style has been
// saved yet; callers fall back to the default.
func (r *SettingsRepository) Style() (canvas.Style, error) {
	raw, err := r.Get(styleKey)
	if err != nil {
		return canvas.Style{}, err
	}

	var style canvas.Style
	if err := json.Unmarshal([]byte(raw), &style); err != nil {
		return canvas.Style{}, fmt.Errorf("decode stored style: %w", err)
	}
	return style, nil
}

// SaveStyle persists the pen style for the next run.
func (r *SettingsRepository) SaveStyle(style canvas.Style) error {
	raw, err := json.Marshal(style)
	if err != nil {
		return fmt.Errorf("encode style: %w", err)
	}
	return r.Set(styleKey, string(raw))
}
