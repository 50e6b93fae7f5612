package store

import (
	"errors"
	"testing"
)

func TestLabelRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Labels()

	labels, err := repo.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(labels) != 1 || labels[1] != "bad" {
		t.Errorf("seeded labels = %v, want map[1:bad]", labels)
	}

	if err := repo.Set(0, "good"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(1, "unknown"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	m, err := repo.LabelMap("good")
	if err != nil {
		t.Fatalf("LabelMap() error = %v", err)
	}
	if m.Label(0) != "good" || m.Label(1) != "unknown" || m.Label(9) != "good" {
		t.Errorf("unexpected label map %+v", m)
	}

	if err := repo.Delete(0); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestLabelRepository_Invalid(t *testing.T) {
	s := newTestStore(t)
	repo := s.Labels()

	if err := repo.Set(2, "slouchy"); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings for bad label, got %v", err)
	}
	if err := repo.Set(-1, "bad"); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings for negative id, got %v", err)
	}
}
