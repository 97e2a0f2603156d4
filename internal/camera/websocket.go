package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketDevice is a camera agent pushing encoded frames (JPEG or PNG) as
// binary websocket messages. Opening dials the feed; the stream keeps the
// latest frame received.
type WebSocketDevice struct {
	url    string
	dialer *websocket.Dialer
}

func NewWebSocketDevice(url string) *WebSocketDevice {
	return &WebSocketDevice{url: url, dialer: websocket.DefaultDialer}
}

func (d *WebSocketDevice) Open(ctx context.Context) (Stream, error) {
	if d.url == "" {
		return nil, ErrNoDevice
	}
	conn, resp, err := d.dialer.DialContext(ctx, d.url, nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	s := &wsStream{
		conn:    conn,
		arrived: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

type wsStream struct {
	conn *websocket.Conn

	mu      sync.Mutex
	latest  []byte
	readErr error
	// arrived is closed once the first frame (or a read error) is in.
	arrived     chan struct{}
	arrivedOnce sync.Once

	stopOnce sync.Once
	stopped  bool
	done     chan struct{}
}

func (s *wsStream) readLoop() {
	defer close(s.done)
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			s.arrivedOnce.Do(func() { close(s.arrived) })
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		s.mu.Lock()
		s.latest = data
		s.mu.Unlock()
		s.arrivedOnce.Do(func() { close(s.arrived) })
	}
}

func (s *wsStream) Frame(ctx context.Context) (image.Image, error) {
	select {
	case <-s.arrived:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	stopped, latest, readErr := s.stopped, s.latest, s.readErr
	s.mu.Unlock()

	if stopped {
		return nil, ErrStreamStopped
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, readErr)
	}
	return decodeFrame(latest)
}

// Stop closes the feed and waits for the reader to exit.
func (s *wsStream) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()

		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream stopped"))
		err = s.conn.Close()
		<-s.done
		if errors.Is(err, websocket.ErrCloseSent) {
			err = nil
		}
	})
	return err
}
