package geometry

// Body is the subset of landmarks, in pixel coordinates, that the posture
// rules look at.
type Body struct {
	LeftEar       Point `json:"left_ear"`
	LeftShoulder  Point `json:"left_shoulder"`
	RightShoulder Point `json:"right_shoulder"`
	LeftHip       Point `json:"left_hip"`
}

// Analysis is the per-frame result of the geometric posture rules.
type Analysis struct {
	Body           Body    `json:"body"`
	ShoulderOffset float64 `json:"shoulder_offset"`
	Neck           Angle   `json:"neck"`
	Torso          Angle   `json:"torso"`
	Aligned        bool    `json:"aligned"`
	Posture        Posture `json:"posture"`
}

// Degenerate reports whether either angle came from undefined geometry.
func (a Analysis) Degenerate() bool {
	return a.Neck.Degenerate || a.Torso.Degenerate
}

// Analyze applies the posture rules to a body seen from the side.
// Neck inclination is measured at the shoulder towards the ear, torso
// inclination at the hip towards the shoulder.
func Analyze(b Body, t Thresholds) Analysis {
	a := Analysis{
		Body:           b,
		ShoulderOffset: Distance(b.LeftShoulder, b.RightShoulder),
		Neck:           Inclination(b.LeftShoulder, b.LeftEar),
		Torso:          Inclination(b.LeftHip, b.LeftShoulder),
	}
	a.Aligned = a.ShoulderOffset < t.Alignment
	a.Posture = t.Classify(float64(a.Neck.Degrees), float64(a.Torso.Degrees))
	return a
}
