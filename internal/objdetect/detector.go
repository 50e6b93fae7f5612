// Package objdetect runs the silhouette posture model: an object detector
// whose classes are posture labels.
package objdetect

import (
	"image"
	"sort"
)

// DefaultAcceptance is the minimum confidence for a detection to be used.
const DefaultAcceptance = 0.3

// Detection is one class/confidence pair reported by the model.
type Detection struct {
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
}

// Detector finds posture classes in a canonical skeleton image.
type Detector interface {
	// Detect returns every detection the model reports, in no particular order.
	Detect(img image.Image) ([]Detection, error)
	// Close releases model resources.
	Close() error
}

// Select returns the highest-confidence detection whose confidence is at
// least acceptance. Ties keep the earliest detection.
func Select(dets []Detection, acceptance float64) (Detection, bool) {
	var (
		best  Detection
		found bool
	)
	for _, d := range dets {
		if d.Confidence < acceptance {
			continue
		}
		if !found || d.Confidence > best.Confidence {
			best = d
			found = true
		}
	}
	return best, found
}

// LabelMap turns model class ids into posture labels.
type LabelMap struct {
	Labels  map[int]string `json:"labels"`
	Default string         `json:"default"`
}

// DefaultLabelMap returns the mapping of the shipped model: class 1 is bad
// posture, anything else is good.
func DefaultLabelMap() LabelMap {
	return LabelMap{
		Labels:  map[int]string{1: "bad"},
		Default: "good",
	}
}

// Label returns the label for classID, or the default.
func (m LabelMap) Label(classID int) string {
	if l, ok := m.Labels[classID]; ok {
		return l
	}
	return m.Default
}

// ClassIDs returns the explicitly mapped class ids in ascending order.
func (m LabelMap) ClassIDs() []int {
	ids := make([]int, 0, len(m.Labels))
	for id := range m.Labels {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
