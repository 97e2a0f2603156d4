package camera

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"
)

const maxFrameBytes = 10 << 20

// SnapshotDevice is a network camera exposing its current frame at a URL
// (JPEG or PNG). Opening probes the URL once.
type SnapshotDevice struct {
	url    string
	client *http.Client
}

func NewSnapshotDevice(url string, client *http.Client) *SnapshotDevice {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SnapshotDevice{url: url, client: client}
}

func (d *SnapshotDevice) Open(ctx context.Context) (Stream, error) {
	if d.url == "" {
		return nil, ErrNoDevice
	}
	s := &snapshotStream{device: d}
	// The probe frame is discarded; it only proves the device answers.
	if _, err := s.fetch(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

type snapshotStream struct {
	device  *SnapshotDevice
	mu      sync.Mutex
	stopped bool
}

func (s *snapshotStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return nil, ErrStreamStopped
	}
	data, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return decodeFrame(data)
}

func (s *snapshotStream) Stop() error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	return nil
}

func (s *snapshotStream) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.device.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	res, err := s.device.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	defer res.Body.Close()
	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, ErrPermissionDenied
	case res.StatusCode/100 != 2:
		return nil, fmt.Errorf("%w: snapshot status %s", ErrNoDevice, res.Status)
	}
	return io.ReadAll(io.LimitReader(res.Body, maxFrameBytes))
}
