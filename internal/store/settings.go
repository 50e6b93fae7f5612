package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/ayusman/posturewatch/internal/classifier"
	"github.com/ayusman/posturewatch/internal/geometry"
	"github.com/ayusman/posturewatch/internal/objdetect"
	"github.com/ayusman/posturewatch/internal/smoothing"
)

// ErrInvalidSettings is returned when settings fail validation.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings are the user-tunable parameters of the posture pipeline.
type Settings struct {
	Strategy           string  `json:"strategy"`
	NeckThreshold      float64 `json:"neck_threshold"`
	TorsoThreshold     float64 `json:"torso_threshold"`
	AlignmentThreshold float64 `json:"alignment_threshold"`
	SmoothingWindow    int     `json:"smoothing_window"`
	SmoothingThreshold float64 `json:"smoothing_threshold"`
	Acceptance         float64 `json:"acceptance"`
	DefaultLabel       string  `json:"default_label"`
	FrameAveraging     int     `json:"frame_averaging"`
	Overlay            bool    `json:"overlay"`
}

// DefaultSettings returns the settings used when nothing has been saved.
func DefaultSettings() Settings {
	return Settings{
		Strategy:           classifier.StrategyGeometric,
		NeckThreshold:      geometry.DefaultNeckThreshold,
		TorsoThreshold:     geometry.DefaultTorsoThreshold,
		AlignmentThreshold: geometry.DefaultAlignmentThreshold,
		SmoothingWindow:    smoothing.DefaultWindowSize,
		SmoothingThreshold: smoothing.DefaultThreshold,
		Acceptance:         objdetect.DefaultAcceptance,
		DefaultLabel:       objdetect.DefaultLabelMap().Default,
		FrameAveraging:     1,
		Overlay:            true,
	}
}

// Validate checks every field is in range.
func (s Settings) Validate() error {
	switch {
	case s.Strategy != classifier.StrategyGeometric && s.Strategy != classifier.StrategySilhouette:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidSettings, s.Strategy)
	case s.NeckThreshold <= 0 || s.NeckThreshold > 180:
		return fmt.Errorf("%w: neck_threshold must be in (0, 180]", ErrInvalidSettings)
	case s.TorsoThreshold <= 0 || s.TorsoThreshold > 180:
		return fmt.Errorf("%w: torso_threshold must be in (0, 180]", ErrInvalidSettings)
	case s.AlignmentThreshold <= 0:
		return fmt.Errorf("%w: alignment_threshold must be positive", ErrInvalidSettings)
	case s.SmoothingWindow < 1 || s.SmoothingWindow > 100:
		return fmt.Errorf("%w: smoothing_window must be in [1, 100]", ErrInvalidSettings)
	case s.SmoothingThreshold < 0 || s.SmoothingThreshold > 1:
		return fmt.Errorf("%w: smoothing_threshold must be in [0, 1]", ErrInvalidSettings)
	case s.Acceptance < 0 || s.Acceptance > 1:
		return fmt.Errorf("%w: acceptance must be in [0, 1]", ErrInvalidSettings)
	case !validLabel(s.DefaultLabel):
		return fmt.Errorf("%w: default_label %q", ErrInvalidSettings, s.DefaultLabel)
	case s.FrameAveraging < 1 || s.FrameAveraging > 30:
		return fmt.Errorf("%w: frame_averaging must be in [1, 30]", ErrInvalidSettings)
	}
	return nil
}

// Thresholds returns the geometric decision thresholds.
func (s Settings) Thresholds() geometry.Thresholds {
	return geometry.Thresholds{
		Neck:      s.NeckThreshold,
		Torso:     s.TorsoThreshold,
		Alignment: s.AlignmentThreshold,
	}
}

// Smoothing returns the smoother configuration.
func (s Settings) Smoothing() smoothing.Config {
	return smoothing.Config{
		WindowSize: s.SmoothingWindow,
		Threshold:  s.SmoothingThreshold,
	}
}

// SettingsRepository reads and writes Settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the saved settings. Keys never saved keep their defaults.
func (r *SettingsRepository) Get() (Settings, error) {
	out := DefaultSettings()

	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return out, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return out, err
		}
		if err := out.set(key, value); err != nil {
			return out, fmt.Errorf("setting %q: %w", key, err)
		}
	}
	return out, rows.Err()
}

// Save validates and stores every field of settings.
func (r *SettingsRepository) Save(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range settings.values() {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Reset removes all saved settings so Get returns defaults again.
func (r *SettingsRepository) Reset() error {
	_, err := r.db.Exec(`DELETE FROM settings WHERE key != ?`, seededKey)
	return err
}

func (s Settings) values() map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return map[string]string{
		"strategy":            s.Strategy,
		"neck_threshold":      f(s.NeckThreshold),
		"torso_threshold":     f(s.TorsoThreshold),
		"alignment_threshold": f(s.AlignmentThreshold),
		"smoothing_window":    strconv.Itoa(s.SmoothingWindow),
		"smoothing_threshold": f(s.SmoothingThreshold),
		"acceptance":          f(s.Acceptance),
		"default_label":       s.DefaultLabel,
		"frame_averaging":     strconv.Itoa(s.FrameAveraging),
		"overlay":             strconv.FormatBool(s.Overlay),
	}
}

func (s *Settings) set(key, value string) error {
	var err error
	switch key {
	case "strategy":
		s.Strategy = value
	case "neck_threshold":
		s.NeckThreshold, err = strconv.ParseFloat(value, 64)
	case "torso_threshold":
		s.TorsoThreshold, err = strconv.ParseFloat(value, 64)
	case "alignment_threshold":
		s.AlignmentThreshold, err = strconv.ParseFloat(value, 64)
	case "smoothing_window":
		s.SmoothingWindow, err = strconv.Atoi(value)
	case "smoothing_threshold":
		s.SmoothingThreshold, err = strconv.ParseFloat(value, 64)
	case "acceptance":
		s.Acceptance, err = strconv.ParseFloat(value, 64)
	case "default_label":
		s.DefaultLabel = value
	case "frame_averaging":
		s.FrameAveraging, err = strconv.Atoi(value)
	case "overlay":
		s.Overlay, err = strconv.ParseBool(value)
	}
	return err
}
