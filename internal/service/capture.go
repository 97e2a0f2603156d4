package service

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"starmatch/internal/camera"
	"starmatch/internal/domain"
	"starmatch/internal/logger"
	"starmatch/internal/port"
	"starmatch/internal/util"

	"go.uber.org/zap"
)

// CameraState is the camera half of the capture screen state.
type CameraState string

const (
	CameraIdle      CameraState = "idle"
	CameraStreaming CameraState = "streaming"
)

const (
	msgCameraUnavailable = "Unable to access camera. Please allow permissions or use file upload."
	msgNoImage           = "Please select or capture a selfie first."
	msgUploadFailed      = "Upload failed. Please try again."
	msgCaptureFailed     = "Unable to capture a frame. Please try again."

	captureFilename    = "capture.jpg"
	captureContentType = "image/jpeg"

	// DefaultFrameTimeout bounds the wait for a frame from a feed that has
	// connected but not delivered yet.
	DefaultFrameTimeout = 5 * time.Second
)

// CaptureView is an immutable snapshot of the capture screen.
type CaptureView struct {
	Handoff   domain.Handoff
	Source    domain.ImageSource
	PreviewID string
	Camera    CameraState
	Busy      bool
	Message   string
	CanUpload bool
}

// CaptureController holds the selected/captured selfie and the optional
// camera stream, and uploads the selfie tied to the incoming result.
type CaptureController struct {
	api          port.SelfieAPI
	device       camera.Device
	jpegQuality  int
	frameTimeout time.Duration
	incoming     domain.Handoff
	lifetime     Lifetime

	mu      sync.Mutex
	image   *domain.CapturedImage
	stream  camera.Stream
	busy    bool
	message string
}

// NewCaptureController creates the controller for one visit of the upload
// screen. incoming is the handoff from the quiz (possibly zero).
func NewCaptureController(api port.SelfieAPI, device camera.Device, jpegQuality int, incoming domain.Handoff) *CaptureController {
	if device == nil {
		device = camera.Unavailable{}
	}
	return &CaptureController{
		api:          api,
		device:       device,
		jpegQuality:  jpegQuality,
		frameTimeout: DefaultFrameTimeout,
		incoming:     incoming,
	}
}

// SelectFile makes a user-picked file the active image. An empty pick is ignored.
func (c *CaptureController) SelectFile(name, contentType string, data []byte) {
	if len(data) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceImageLocked(domain.SourceFile, domain.Image{
		Filename:    name,
		ContentType: contentType,
		Data:        data,
	})
}

// StartCamera opens a stream on the device. Failure leaves the image source
// untouched and surfaces a recoverable PERMISSION_ERROR.
func (c *CaptureController) StartCamera(ctx context.Context) error {
	c.mu.Lock()
	if c.stream != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	stream, err := c.device.Open(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		logger.Get().Warn("Camera acquisition failed", zap.Error(err))
		c.message = msgCameraUnavailable
		return domain.NewPermissionError(err)
	}
	if c.lifetime.Ended() || c.stream != nil {
		// Left the screen meanwhile, or a concurrent start won.
		_ = stream.Stop()
		if c.lifetime.Ended() {
			return ErrFlowEnded
		}
		return nil
	}
	c.stream = stream
	c.message = ""
	return nil
}

// Frame returns the live frame for previews while streaming.
func (c *CaptureController) Frame(ctx context.Context) (image.Image, error) {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return nil, domain.NewActionDisabledError("camera is not streaming")
	}
	frame, err := c.frame(ctx, stream)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, domain.NewPermissionError(err)
	}
	return frame, err
}

// Capture snapshots the current frame as a JPEG and makes it the active
// image, replacing any previous one.
func (c *CaptureController) Capture(ctx context.Context) error {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return domain.NewActionDisabledError("camera is not streaming")
	}

	frame, err := c.frame(ctx, stream)
	var data []byte
	if err == nil {
		data, err = camera.EncodeJPEG(frame, c.jpegQuality)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lifetime.Ended() {
		return ErrFlowEnded
	}
	if err != nil {
		logger.Get().Warn("Frame capture failed", zap.Error(err))
		c.message = msgCaptureFailed
		if errors.Is(err, camera.ErrStreamStopped) {
			return domain.NewActionDisabledError("camera is not streaming")
		}
		return domain.NewPermissionError(err)
	}
	c.replaceImageLocked(domain.SourceCapture, domain.Image{
		Filename:    captureFilename,
		ContentType: captureContentType,
		Data:        data,
	})
	return nil
}

// StopCamera releases the stream, if any.
func (c *CaptureController) StopCamera() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
}

// Preview returns the active image when previewID still designates it.
func (c *CaptureController) Preview(previewID string) (domain.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.image == nil || c.image.PreviewID != previewID {
		return domain.Image{}, false
	}
	return c.image.Image, true
}

// Upload sends the active image. Without one it fails before any network
// call. On success the camera is released and the handoff for the result
// screen is returned.
func (c *CaptureController) Upload(ctx context.Context) (domain.Handoff, error) {
	c.mu.Lock()
	if c.image == nil {
		c.message = msgNoImage
		c.mu.Unlock()
		return domain.Handoff{}, domain.NewActionDisabledError(msgNoImage)
	}
	if c.busy {
		c.mu.Unlock()
		return domain.Handoff{}, domain.NewActionDisabledError("upload already in progress")
	}
	c.busy = true
	c.message = ""
	img := c.image.Image
	c.mu.Unlock()

	res, err := c.api.UploadSelfie(ctx, img, c.incoming.ResultID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if c.lifetime.Ended() {
		return domain.Handoff{}, ErrFlowEnded
	}
	if err != nil {
		logger.Get().Error("Selfie upload failed", zap.Error(err), zap.String("result_id", c.incoming.ResultID))
		c.message = msgUploadFailed
		return domain.Handoff{}, err
	}
	c.releaseLocked()

	resultID := c.incoming.ResultID
	if resultID == "" {
		resultID = res.ResultID
	}
	return domain.Handoff{
		ResultID:    resultID,
		Character:   c.incoming.Character,
		Description: c.incoming.Description,
		MashupURL:   res.ImageURL,
	}, nil
}

// View snapshots the controller for rendering.
func (c *CaptureController) View() CaptureView {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := CaptureView{
		Handoff:   c.incoming,
		Source:    domain.SourceNone,
		Camera:    CameraIdle,
		Busy:      c.busy,
		Message:   c.message,
		CanUpload: c.image != nil && !c.busy,
	}
	if c.image != nil {
		v.Source = c.image.Source
		v.PreviewID = c.image.PreviewID
	}
	if c.stream != nil {
		v.Camera = CameraStreaming
	}
	return v
}

// Unmount releases the camera and ends the lifetime. Safe to call more than once.
func (c *CaptureController) Unmount() {
	c.lifetime.End()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
}

// frame reads from stream, giving up after frameTimeout.
func (c *CaptureController) frame(ctx context.Context, stream camera.Stream) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, c.frameTimeout)
	defer cancel()
	return stream.Frame(ctx)
}

func (c *CaptureController) replaceImageLocked(source domain.ImageSource, img domain.Image) {
	// A new preview ID invalidates the previous preview reference.
	c.image = &domain.CapturedImage{
		Image:     img,
		Source:    source,
		PreviewID: util.NewULID(),
	}
	c.message = ""
}

func (c *CaptureController) releaseLocked() {
	if c.stream == nil {
		return
	}
	if err := c.stream.Stop(); err != nil {
		logger.Get().Warn("Failed to stop camera stream", zap.Error(err))
	}
	c.stream = nil
}
