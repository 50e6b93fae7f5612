package store

import (
	"errors"
	"testing"
)

func TestSettingsRepository_Defaults(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Settings().Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != DefaultSettings() {
		t.Errorf("Get() = %+v, want defaults %+v", got, DefaultSettings())
	}

	th := got.Thresholds()
	if th.Neck != 40 || th.Torso != 10 || th.Alignment != 100 {
		t.Errorf("unexpected default thresholds %+v", th)
	}
	sm := got.Smoothing()
	if sm.WindowSize != 3 || sm.Threshold != 0.3 {
		t.Errorf("unexpected default smoothing %+v", sm)
	}
}

func TestSettingsRepository_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	want := Settings{
		Strategy:           "silhouette",
		NeckThreshold:      35.5,
		TorsoThreshold:     8,
		AlignmentThreshold: 120,
		SmoothingWindow:    5,
		SmoothingThreshold: 0.45,
		Acceptance:         0.25,
		DefaultLabel:       "unknown",
		FrameAveraging:     3,
		Overlay:            false,
	}
	if err := repo.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	// overwrite
	want.NeckThreshold = 30
	if err := repo.Save(want); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	got, _ = repo.Get()
	if got.NeckThreshold != 30 {
		t.Errorf("NeckThreshold = %v, want 30", got.NeckThreshold)
	}

	if err := repo.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	got, _ = repo.Get()
	if got != DefaultSettings() {
		t.Errorf("after Reset, Get() = %+v, want defaults", got)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"unknown strategy", func(s *Settings) { s.Strategy = "tarot" }},
		{"zero neck threshold", func(s *Settings) { s.NeckThreshold = 0 }},
		{"torso over 180", func(s *Settings) { s.TorsoThreshold = 181 }},
		{"negative alignment", func(s *Settings) { s.AlignmentThreshold = -1 }},
		{"zero window", func(s *Settings) { s.SmoothingWindow = 0 }},
		{"smoothing threshold above 1", func(s *Settings) { s.SmoothingThreshold = 1.5 }},
		{"negative acceptance", func(s *Settings) { s.Acceptance = -0.1 }},
		{"bad default label", func(s *Settings) { s.DefaultLabel = "meh" }},
		{"zero frame averaging", func(s *Settings) { s.FrameAveraging = 0 }},
	}

	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

func TestSettingsRepository_SaveRejectsInvalid(t *testing.T) {
	s := newTestStore(t)

	bad := DefaultSettings()
	bad.SmoothingWindow = -2
	if err := s.Settings().Save(bad); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}

	got, _ := s.Settings().Get()
	if got.SmoothingWindow != DefaultSettings().SmoothingWindow {
		t.Error("invalid settings should not be persisted")
	}
}

func TestSettingsRepository_CorruptValue(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.DB().Exec(`INSERT INTO settings (key, value) VALUES ('smoothing_window', 'lots')`); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Settings().Get(); err == nil {
		t.Error("expected error for unparseable value")
	}
}
