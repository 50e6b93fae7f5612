package capture

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"gocv.io/x/gocv"
)

// MaxTransmitSide is the longest side, in pixels, of frames sent to clients.
const MaxTransmitSide = 800

// DefaultJPEGQuality is the quality used for streamed frames.
const DefaultJPEGQuality = 80

// ErrDecode is returned when client-supplied frame data cannot be decoded.
var ErrDecode = errors.New("frame decode failed")

// DecodeBase64 decodes a base64 JPEG/PNG frame, optionally prefixed with a
// data URL header ("data:image/jpeg;base64,"). The caller owns the Mat.
func DecodeBase64(s string) (gocv.Mat, error) {
	if strings.HasPrefix(s, "data:image") {
		i := strings.IndexByte(s, ',')
		if i < 0 {
			return gocv.NewMat(), fmt.Errorf("%w: malformed data URL", ErrDecode)
		}
		s = s[i+1:]
	}
	if s == "" {
		return gocv.NewMat(), fmt.Errorf("%w: empty frame", ErrDecode)
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %v", ErrDecode, err)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("%w: not an image", ErrDecode)
	}
	return mat, nil
}

// FitWithin returns a copy of frame scaled down so neither side exceeds
// maxSide. Smaller frames are copied unchanged. The caller owns the result.
func FitWithin(frame gocv.Mat, maxSide int) gocv.Mat {
	w, h := frame.Cols(), frame.Rows()
	longest := w
	if h > longest {
		longest = h
	}
	if maxSide <= 0 || longest <= maxSide {
		return frame.Clone()
	}

	out := gocv.NewMat()
	gocv.Resize(frame, &out, image.Pt(w*maxSide/longest, h*maxSide/longest), 0, 0, gocv.InterpolationArea)
	return out
}

// EncodeJPEG encodes frame as JPEG at the given quality.
func EncodeJPEG(frame gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	b := buf.GetBytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
