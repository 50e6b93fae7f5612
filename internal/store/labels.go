package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ayusman/posturewatch/internal/objdetect"
)

var defaultClassLabels = objdetect.DefaultLabelMap().Labels

func validLabel(l string) bool {
	switch l {
	case "good", "bad", "unknown":
		return true
	}
	return false
}

// LabelRepository maps model class ids to posture labels.
type LabelRepository struct {
	db *sql.DB
}

// Labels returns the label repository for this store.
func (s *Store) Labels() *LabelRepository {
	return &LabelRepository{db: s.db}
}

// All returns every explicit class id mapping.
func (r *LabelRepository) All() (map[int]string, error) {
	rows, err := r.db.Query(`SELECT class_id, label FROM class_labels ORDER BY class_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]string)
	for rows.Next() {
		var (
			id    int
			label string
		)
		if err := rows.Scan(&id, &label); err != nil {
			return nil, err
		}
		out[id] = label
	}
	return out, rows.Err()
}

// Set maps classID to label, replacing any existing mapping.
func (r *LabelRepository) Set(classID int, label string) error {
	if classID < 0 {
		return fmt.Errorf("%w: class id %d", ErrInvalidSettings, classID)
	}
	if !validLabel(label) {
		return fmt.Errorf("%w: label %q", ErrInvalidSettings, label)
	}
	_, err := r.db.Exec(
		`INSERT INTO class_labels (class_id, label, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(class_id) DO UPDATE SET label = excluded.label, updated_at = excluded.updated_at`,
		classID, label, time.Now(),
	)
	return err
}

// Delete removes the mapping for classID.
func (r *LabelRepository) Delete(classID int) error {
	res, err := r.db.Exec(`DELETE FROM class_labels WHERE class_id = ?`, classID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// LabelMap combines the stored mappings with the default label.
func (r *LabelRepository) LabelMap(defaultLabel string) (objdetect.LabelMap, error) {
	labels, err := r.All()
	if err != nil {
		return objdetect.LabelMap{}, err
	}
	return objdetect.LabelMap{Labels: labels, Default: defaultLabel}, nil
}
