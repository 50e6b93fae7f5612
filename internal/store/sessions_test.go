package store

import (
	"errors"
	"testing"
	"time"
)

func TestSessionRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"s1", "s2", "s3"} {
		sess := &Session{ID: id, Strategy: "geometric", StartedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := repo.Start(sess); err != nil {
			t.Fatalf("Start(%s) error = %v", id, err)
		}
	}

	got, err := repo.GetByID("s2")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.StoppedAt != nil {
		t.Error("new session should not be stopped")
	}
	if !got.StartedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, base.Add(time.Hour))
	}

	if err := repo.Stop("s2"); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := repo.Stop("s2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("stopping twice should return ErrNotFound, got %v", err)
	}
	got, _ = repo.GetByID("s2")
	if got.StoppedAt == nil {
		t.Error("expected StoppedAt after Stop")
	}

	recent, err := repo.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "s3" || recent[1].ID != "s2" {
		ids := make([]string, len(recent))
		for i, r := range recent {
			ids[i] = r.ID
		}
		t.Errorf("Recent(2) = %v, want [s3 s2]", ids)
	}

	if _, err := repo.GetByID("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_StartDefaultsTime(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{ID: "now", Strategy: "silhouette"}
	if err := s.Sessions().Start(sess); err != nil {
		t.Fatal(err)
	}
	if sess.StartedAt.IsZero() {
		t.Error("StartedAt should be filled in")
	}
}
