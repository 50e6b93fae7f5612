package geometry

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestDistance(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 Point
		want   float64
	}{
		{name: "same point", p1: Point{3, 4}, p2: Point{3, 4}, want: 0},
		{name: "3-4-5 triangle", p1: Point{0, 0}, p2: Point{3, 4}, want: 5},
		{name: "symmetric", p1: Point{3, 4}, p2: Point{0, 0}, want: 5},
		{name: "horizontal", p1: Point{-2, 1}, p2: Point{8, 1}, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.p1, tt.p2); math.Abs(got-tt.want) > epsilon {
				t.Errorf("Distance() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestInclination(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 Point
		want   Angle
	}{
		{name: "straight up", p1: Point{100, 200}, p2: Point{100, 100}, want: Angle{Degrees: 0}},
		{name: "horizontal", p1: Point{100, 200}, p2: Point{200, 200}, want: Angle{Degrees: 90}},
		{name: "straight down", p1: Point{100, 200}, p2: Point{100, 300}, want: Angle{Degrees: 180}},
		// acos(0.6) = 53.13 degrees, truncated
		{name: "leaning forward", p1: Point{0, 240}, p2: Point{96, 168}, want: Angle{Degrees: 53}},
		{name: "y1 is zero", p1: Point{5, 0}, p2: Point{10, 20}, want: Angle{Degenerate: true}},
		{name: "coincident points", p1: Point{10, 20}, p2: Point{10, 20}, want: Angle{Degenerate: true}},
		{name: "NaN input", p1: Point{10, 20}, p2: Point{math.NaN(), 5}, want: Angle{Degenerate: true}},
		{name: "infinite input", p1: Point{10, 20}, p2: Point{math.Inf(1), 5}, want: Angle{Degenerate: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Inclination(tt.p1, tt.p2); got != tt.want {
				t.Errorf("Inclination() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInclination_DegenerateReadsZero(t *testing.T) {
	a := Inclination(Point{5, 0}, Point{10, 20})
	if a.Degrees != 0 {
		t.Errorf("degenerate angle should read 0 degrees, got %d", a.Degrees)
	}
	if !a.Degenerate {
		t.Error("y1 == 0 should be flagged as degenerate")
	}
}

func TestInclination_Range(t *testing.T) {
	for x1 := -50.0; x1 <= 50; x1 += 25 {
		for y1 := -300.0; y1 <= 300; y1 += 37 {
			if y1 == 0 {
				continue
			}
			for x2 := -400.0; x2 <= 400; x2 += 61 {
				for y2 := -400.0; y2 <= 400; y2 += 53 {
					p1, p2 := Point{x1, y1}, Point{x2, y2}
					a := Inclination(p1, p2)
					if a.Degenerate {
						if p1 != p2 {
							t.Fatalf("Inclination(%v, %v) unexpectedly degenerate", p1, p2)
						}
						continue
					}
					if a.Degrees < 0 || a.Degrees > 180 {
						t.Fatalf("Inclination(%v, %v) = %d, outside [0, 180]", p1, p2, a.Degrees)
					}
				}
			}
		}
	}
}

func TestThresholds_Classify(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name        string
		neck, torso float64
		wantPosture Posture
	}{
		{name: "just inside both", neck: 39.9, torso: 9.9, wantPosture: PostureGood},
		{name: "neck on boundary", neck: 40.0, torso: 9.9, wantPosture: PostureBad},
		{name: "torso on boundary", neck: 39.9, torso: 10.0, wantPosture: PostureBad},
		{name: "upright", neck: 0, torso: 0, wantPosture: PostureGood},
		{name: "both over", neck: 60, torso: 25, wantPosture: PostureBad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := th.Classify(tt.neck, tt.torso); got != tt.wantPosture {
				t.Errorf("Classify(%v, %v) = %s, want %s", tt.neck, tt.torso, got, tt.wantPosture)
			}
		})
	}

	t.Run("custom thresholds", func(t *testing.T) {
		strict := Thresholds{Neck: 20, Torso: 5, Alignment: 100}
		if got := strict.Classify(25, 0); got != PostureBad {
			t.Errorf("expected bad with strict neck threshold, got %s", got)
		}
	})
}

func TestThresholds_Aligned(t *testing.T) {
	th := DefaultThresholds()

	if !th.Aligned(Point{300, 200}, Point{360, 200}) {
		t.Error("60px offset should be aligned")
	}
	if th.Aligned(Point{300, 200}, Point{400, 200}) {
		t.Error("100px offset should not be aligned (strict <)")
	}
	if th.Aligned(Point{100, 200}, Point{400, 260}) {
		t.Error("300px offset should not be aligned")
	}
}

func TestAnalyze(t *testing.T) {
	th := DefaultThresholds()

	t.Run("upright side view", func(t *testing.T) {
		b := Body{
			LeftEar:       Point{320, 120},
			LeftShoulder:  Point{320, 240},
			RightShoulder: Point{330, 240},
			LeftHip:       Point{320, 360},
		}
		a := Analyze(b, th)

		if a.Neck.Degrees != 0 || a.Torso.Degrees != 0 {
			t.Errorf("expected 0/0 degrees, got %d/%d", a.Neck.Degrees, a.Torso.Degrees)
		}
		if a.Posture != PostureGood {
			t.Errorf("expected good posture, got %s", a.Posture)
		}
		if !a.Aligned {
			t.Error("expected aligned")
		}
		if a.ShoulderOffset != 10 {
			t.Errorf("expected offset 10, got %f", a.ShoulderOffset)
		}
		if a.Degenerate() {
			t.Error("expected no degenerate angles")
		}
	})

	t.Run("head forward", func(t *testing.T) {
		b := Body{
			LeftEar:       Point{416, 168},
			LeftShoulder:  Point{320, 240},
			RightShoulder: Point{330, 240},
			LeftHip:       Point{320, 360},
		}
		a := Analyze(b, th)

		if a.Neck.Degrees != 53 {
			t.Errorf("expected neck 53, got %d", a.Neck.Degrees)
		}
		if a.Posture != PostureBad {
			t.Errorf("expected bad posture, got %s", a.Posture)
		}
	})

	t.Run("shoulder on top edge is degenerate", func(t *testing.T) {
		b := Body{
			LeftEar:       Point{320, 0},
			LeftShoulder:  Point{320, 0},
			RightShoulder: Point{330, 0},
			LeftHip:       Point{320, 360},
		}
		a := Analyze(b, th)

		if !a.Neck.Degenerate {
			t.Error("expected degenerate neck angle")
		}
		if !a.Degenerate() {
			t.Error("expected analysis to report degenerate geometry")
		}
		// masked to 0, so the rules still see a "good" neck
		if a.Neck.Degrees != 0 {
			t.Errorf("expected masked neck angle 0, got %d", a.Neck.Degrees)
		}
	})
}
