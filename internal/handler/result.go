package handler

import (
	"context"
	"net/url"
	"strings"

	"starmatch/internal/service"
	"starmatch/internal/session"
	"starmatch/internal/view"

	"github.com/gofiber/fiber/v2"
)

type resultPage struct {
	View     service.ResultView
	ImageURL string
	Flash    string
}

// flashClipboard "copies" a link by showing it on the next page.
type flashClipboard struct {
	sess *session.Session
}

func (f flashClipboard) Copy(_ context.Context, text string) error {
	f.sess.SetFlash("Link copied: " + text)
	return nil
}

// ResultHandler serves the result screen.
type ResultHandler struct {
	pages          *view.Pages
	handoffs       service.HandoffStore
	backendBaseURL string
	publicURL      string
}

// NewResultHandler creates a new ResultHandler instance. Relative image URLs
// are shown against backendBaseURL; without a composite the result page
// itself, under publicURL, is shared.
func NewResultHandler(pages *view.Pages, handoffs service.HandoffStore, backendBaseURL, publicURL string) *ResultHandler {
	return &ResultHandler{
		pages:          pages,
		handoffs:       handoffs,
		backendBaseURL: strings.TrimRight(backendBaseURL, "/"),
		publicURL:      strings.TrimRight(publicURL, "/"),
	}
}

// Show handles GET /result?h=<handoff token>
func (h *ResultHandler) Show(c *fiber.Ctx) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	token := c.Query(handoffParam)
	presenter := sess.Result(token, takeHandoff(c.UserContext(), h.handoffs, token))
	// A failed fetch is part of the view.
	_ = presenter.Load(c.UserContext())

	v := presenter.View()
	return h.pages.Render(c, fiber.StatusOK, "result", resultPage{
		View:     v,
		ImageURL: h.imageURL(v.MashupURL),
		Flash:    sess.TakeFlash(),
	})
}

// Download handles GET /result/download
func (h *ResultHandler) Download(c *fiber.Ctx) error {
	presenter, sess, err := h.current(c)
	if presenter == nil {
		return err
	}
	img, err := presenter.Download(c.UserContext())
	if err != nil {
		return redirect(c, withHandoff("/result", sess.Token()))
	}
	c.Attachment(img.Filename)
	c.Set(fiber.HeaderContentType, img.ContentType)
	return c.Send(img.Data)
}

// Share handles POST /result/share. The server has no native share sheet,
// so the link is offered for copying.
func (h *ResultHandler) Share(c *fiber.Ctx) error {
	presenter, sess, err := h.current(c)
	if presenter == nil {
		return err
	}
	page := withHandoff("/result", sess.Token())
	presenter.Share(c.UserContext(), nil, flashClipboard{sess: sess}, h.publicURL+page)
	return redirect(c, page)
}

func (h *ResultHandler) current(c *fiber.Ctx) (*service.ResultPresenter, *session.Session, error) {
	sess, err := sessionOf(c)
	if err != nil {
		return nil, nil, err
	}
	presenter := sess.CurrentResult()
	if presenter == nil {
		return nil, sess, redirect(c, "/result")
	}
	return presenter, sess, nil
}

func (h *ResultHandler) imageURL(raw string) string {
	if raw == "" || h.backendBaseURL == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() {
		return raw
	}
	return h.backendBaseURL + "/" + strings.TrimLeft(raw, "/")
}
