// Package camera provides the media streams the capture screen snapshots
// selfies from: HTTP snapshot cameras and websocket frame feeds.
package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	// Decoders for frames served by cameras.
	_ "image/png"
)

var (
	// ErrNoDevice means no camera is configured or reachable.
	ErrNoDevice = errors.New("camera: no device available")
	// ErrPermissionDenied means the device refused access.
	ErrPermissionDenied = errors.New("camera: permission denied")
	// ErrStreamStopped is returned by Frame after Stop.
	ErrStreamStopped = errors.New("camera: stream stopped")
)

// Device opens exclusive video streams.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open video stream. Stop must be called on every exit path;
// it is idempotent.
type Stream interface {
	// Frame returns the current frame.
	Frame(ctx context.Context) (image.Image, error)
	Stop() error
}

// Unavailable is the Device used when no camera is configured.
type Unavailable struct{}

func (Unavailable) Open(context.Context) (Stream, error) {
	return nil, ErrNoDevice
}

// DefaultFrameWidth and DefaultFrameHeight size frames that report an
// empty bounds rectangle.
const (
	DefaultFrameWidth  = 640
	DefaultFrameHeight = 480
)

// EncodeJPEG draws frame onto a fresh RGBA canvas and re-encodes it as a
// JPEG at the given quality (1..100).
func EncodeJPEG(frame image.Image, quality int) ([]byte, error) {
	if frame == nil {
		return nil, errors.New("camera: nil frame")
	}
	bounds := frame.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		w, h = DefaultFrameWidth, DefaultFrameHeight
	}
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), frame, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("camera: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeFrame(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("camera: decode frame: %w", err)
	}
	return img, nil
}
