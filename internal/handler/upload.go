package handler

import (
	"errors"
	"io"

	"starmatch/internal/camera"
	"starmatch/internal/domain"
	"starmatch/internal/logger"
	"starmatch/internal/service"
	"starmatch/internal/session"
	"starmatch/internal/validation"
	"starmatch/internal/view"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type uploadPage struct {
	View service.CaptureView
}

// UploadHandler serves the selfie screen: file pick, camera and upload.
type UploadHandler struct {
	pages       *view.Pages
	handoffs    service.HandoffStore
	validator   *validation.Validator
	jpegQuality int
}

// NewUploadHandler creates a new UploadHandler instance
func NewUploadHandler(pages *view.Pages, handoffs service.HandoffStore, jpegQuality int) *UploadHandler {
	return &UploadHandler{
		pages:       pages,
		handoffs:    handoffs,
		validator:   validation.NewValidator(),
		jpegQuality: jpegQuality,
	}
}

// Show handles GET /upload?h=<handoff token>
func (h *UploadHandler) Show(c *fiber.Ctx) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	token := c.Query(handoffParam)
	capture := sess.Upload(token, takeHandoff(c.UserContext(), h.handoffs, token))
	return h.pages.Render(c, fiber.StatusOK, "upload", uploadPage{View: capture.View()})
}

// SelectFile handles POST /upload/file (multipart field "file").
func (h *UploadHandler) SelectFile(c *fiber.Ctx) error {
	capture, sess, err := h.current(c)
	if capture == nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return domain.ValidationErrors{domain.NewMissingFieldError("file")}
	}
	contentType := fh.Header.Get(fiber.HeaderContentType)
	if errs := h.validator.ValidateSelfie(fh.Filename, contentType, fh.Size); len(errs) > 0 {
		return errs
	}

	f, err := fh.Open()
	if err != nil {
		return domain.NewInternalError("failed to open uploaded file", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, validation.MaxSelfieBytes))
	if err != nil {
		return domain.NewInternalError("failed to read uploaded file", err)
	}

	capture.SelectFile(fh.Filename, contentType, data)
	return redirect(c, withHandoff("/upload", sess.Token()))
}

// StartCamera handles POST /upload/camera/start
func (h *UploadHandler) StartCamera(c *fiber.Ctx) error {
	capture, sess, err := h.current(c)
	if capture == nil {
		return err
	}
	// A refused camera is reported on the page; file upload stays available.
	_ = capture.StartCamera(c.UserContext())
	return redirect(c, withHandoff("/upload", sess.Token()))
}

// Capture handles POST /upload/camera/capture
func (h *UploadHandler) Capture(c *fiber.Ctx) error {
	capture, sess, err := h.current(c)
	if capture == nil {
		return err
	}
	if err := capture.Capture(c.UserContext()); err != nil && domain.HasCode(err, domain.ErrValidation) {
		return err
	}
	return redirect(c, withHandoff("/upload", sess.Token()))
}

// StopCamera handles POST /upload/camera/stop
func (h *UploadHandler) StopCamera(c *fiber.Ctx) error {
	capture, sess, err := h.current(c)
	if capture == nil {
		return err
	}
	capture.StopCamera()
	return redirect(c, withHandoff("/upload", sess.Token()))
}

// Frame handles GET /upload/camera/frame: the live frame as a JPEG.
func (h *UploadHandler) Frame(c *fiber.Ctx) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	capture := sess.CurrentCapture()
	if capture == nil {
		return fiber.ErrNotFound
	}

	frame, err := capture.Frame(c.UserContext())
	if err != nil {
		if errors.Is(err, camera.ErrStreamStopped) {
			return fiber.ErrNotFound
		}
		return err
	}
	data, err := camera.EncodeJPEG(frame, h.jpegQuality)
	if err != nil {
		return domain.NewInternalError("failed to encode camera frame", err)
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(data)
}

// Preview handles GET /upload/preview/:id. Only the active image resolves.
func (h *UploadHandler) Preview(c *fiber.Ctx) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	capture := sess.CurrentCapture()
	if capture == nil {
		return fiber.ErrNotFound
	}
	img, ok := capture.Preview(c.Params("id"))
	if !ok {
		return fiber.ErrNotFound
	}
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	c.Set(fiber.HeaderContentType, img.ContentType)
	return c.Send(img.Data)
}

// Submit handles POST /upload/submit. On success the composite is handed to
// the result screen.
func (h *UploadHandler) Submit(c *fiber.Ctx) error {
	capture, sess, err := h.current(c)
	if capture == nil {
		return err
	}

	result, err := capture.Upload(c.UserContext())
	if err != nil {
		logger.Get().Debug("Selfie upload did not complete; showing upload again", zap.Error(err))
		return redirect(c, withHandoff("/upload", sess.Token()))
	}

	token, err := h.handoffs.Put(c.UserContext(), result)
	if err != nil {
		return err
	}
	return redirect(c, withHandoff("/result", token))
}

func (h *UploadHandler) current(c *fiber.Ctx) (*service.CaptureController, *session.Session, error) {
	sess, err := sessionOf(c)
	if err != nil {
		return nil, nil, err
	}
	capture := sess.CurrentCapture()
	if capture == nil {
		return nil, sess, redirect(c, "/upload")
	}
	return capture, sess, nil
}
