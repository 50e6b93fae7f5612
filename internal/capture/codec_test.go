package capture

import (
	"encoding/base64"
	"errors"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

func encodedFrame(t *testing.T, w, h int) string {
	t.Helper()
	frame := SolidFrame(w, h, color.RGBA{R: 10, G: 200, B: 30})
	defer frame.Close()

	b, err := EncodeJPEG(*frame, DefaultJPEGQuality)
	if err != nil {
		t.Fatalf("EncodeJPEG() error = %v", err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

func TestDecodeBase64(t *testing.T) {
	raw := encodedFrame(t, 64, 48)

	tests := []struct {
		name  string
		input string
	}{
		{name: "plain base64", input: raw},
		{name: "data URL", input: "data:image/jpeg;base64," + raw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mat, err := DecodeBase64(tt.input)
			if err != nil {
				t.Fatalf("DecodeBase64() error = %v", err)
			}
			defer mat.Close()

			if mat.Cols() != 64 || mat.Rows() != 48 {
				t.Errorf("decoded %dx%d, want 64x48", mat.Cols(), mat.Rows())
			}
		})
	}
}

func TestDecodeBase64_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "bad base64", input: "!!!not base64!!!"},
		{name: "not an image", input: base64.StdEncoding.EncodeToString([]byte("hello world"))},
		{name: "data URL without payload separator", input: "data:image/jpeg;base64"},
		{name: "data URL with empty payload", input: "data:image/jpeg;base64,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mat, err := DecodeBase64(tt.input)
			defer mat.Close()
			if !errors.Is(err, ErrDecode) {
				t.Errorf("expected ErrDecode, got %v", err)
			}
		})
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{name: "already small", w: 640, h: 480, wantW: 640, wantH: 480},
		{name: "landscape", w: 1600, h: 1200, wantW: 800, wantH: 600},
		{name: "portrait", w: 1080, h: 1920, wantW: 450, wantH: 800},
		{name: "exactly at limit", w: 800, h: 200, wantW: 800, wantH: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := gocv.NewMatWithSize(tt.h, tt.w, gocv.MatTypeCV8UC3)
			defer frame.Close()

			out := FitWithin(frame, MaxTransmitSide)
			defer out.Close()

			if out.Cols() != tt.wantW || out.Rows() != tt.wantH {
				t.Errorf("FitWithin() = %dx%d, want %dx%d", out.Cols(), out.Rows(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestEncodeJPEG(t *testing.T) {
	frame := SolidFrame(32, 32, color.RGBA{})
	defer frame.Close()

	b, err := EncodeJPEG(*frame, 90)
	if err != nil {
		t.Fatalf("EncodeJPEG() error = %v", err)
	}
	if len(b) < 2 || b[0] != 0xFF || b[1] != 0xD8 {
		t.Error("output does not start with a JPEG SOI marker")
	}
}
