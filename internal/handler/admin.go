package handler

import (
	"context"
	"strings"

	"starmatch/internal/domain"
	"starmatch/internal/middleware"
	"starmatch/internal/service"
	"starmatch/internal/session"
	"starmatch/internal/validation"
	"starmatch/internal/view"

	"github.com/gofiber/fiber/v2"
)

const (
	kindQuestions  = "questions"
	kindCharacters = "characters"
)

type adminPage struct {
	Kind       string
	Guarded    bool
	Questions  service.AdminView[domain.Question]
	Characters service.AdminView[domain.Character]
}

type loginPage struct {
	Message string
}

// recordManager is the type-independent part of an admin manager.
type recordManager interface {
	Kind() string
	Load(ctx context.Context) error
	Select(id string) error
	New()
	Delete(ctx context.Context, id string, confirmed bool) error
}

// AdminHandler serves the admin panel and its login.
type AdminHandler struct {
	pages     *view.Pages
	auth      service.AdminAuthService
	validator *validation.Validator
	secure    bool
}

// NewAdminHandler creates a new AdminHandler instance. secure marks the
// admin cookie Secure.
func NewAdminHandler(pages *view.Pages, auth service.AdminAuthService, secure bool) *AdminHandler {
	return &AdminHandler{
		pages:     pages,
		auth:      auth,
		validator: validation.NewValidator(),
		secure:    secure,
	}
}

// LoginPage handles GET /admin/login
func (h *AdminHandler) LoginPage(c *fiber.Ctx) error {
	if !h.auth.Enabled() {
		return redirect(c, "/admin")
	}
	return h.pages.Render(c, fiber.StatusOK, "admin_login", loginPage{})
}

// Login handles POST /admin/login
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	token, err := h.auth.Login(c.FormValue("password"))
	if err != nil {
		if domain.HasCode(err, domain.ErrUnauthorized) {
			return h.pages.Render(c, fiber.StatusUnauthorized, "admin_login", loginPage{Message: "Invalid password"})
		}
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AdminCookie,
		Value:    token,
		Path:     "/admin",
		MaxAge:   int(h.auth.TokenTTL().Seconds()),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return redirect(c, "/admin")
}

// Logout handles POST /admin/logout
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AdminCookie,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return redirect(c, "/")
}

// Show handles GET /admin?kind=questions|characters. The shown list is
// fetched on first display and on reload=1.
func (h *AdminHandler) Show(c *fiber.Ctx) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	kind := c.Query("kind", kindQuestions)
	if errs := h.validator.ValidateAdminKind(kind); len(errs) > 0 {
		return errs
	}

	questions, characters := sess.Admin()
	var phase service.ListPhase
	var mgr recordManager
	if kind == kindQuestions {
		mgr, phase = questions, questions.View().Phase
	} else {
		mgr, phase = characters, characters.View().Phase
	}
	if phase == service.ListLoading || c.Query("reload") == "1" {
		// A failed load is shown as the list notice.
		_ = mgr.Load(c.UserContext())
	}

	return h.pages.Render(c, fiber.StatusOK, "admin", adminPage{
		Kind:       kind,
		Guarded:    h.auth.Enabled(),
		Questions:  questions.View(),
		Characters: characters.View(),
	})
}

// New handles POST /admin/:kind/new
func (h *AdminHandler) New(c *fiber.Ctx) error {
	mgr, err := h.manager(c)
	if mgr == nil {
		return err
	}
	mgr.New()
	return redirect(c, adminURL(mgr.Kind()))
}

// Edit handles GET /admin/:kind/:id
func (h *AdminHandler) Edit(c *fiber.Ctx) error {
	mgr, err := h.manager(c)
	if mgr == nil {
		return err
	}
	if err := mgr.Select(c.Params("id")); err != nil {
		return err
	}
	return redirect(c, adminURL(mgr.Kind()))
}

// Save handles POST /admin/:kind/save. The form edits the active draft.
func (h *AdminHandler) Save(c *fiber.Ctx) error {
	mgr, err := h.manager(c)
	if mgr == nil {
		return err
	}
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	questions, characters := sess.Admin()

	// Save failures are shown next to the draft.
	switch mgr.Kind() {
	case kindQuestions:
		text := strings.TrimSpace(c.FormValue("text"))
		options := parseOptions(formValues(c, "option_id"), formValues(c, "option_text"))
		if err := questions.Edit(func(q *domain.Question) {
			q.Text = text
			q.Options = options
		}); err != nil {
			return err
		}
		_, _ = questions.Save(c.UserContext())
	case kindCharacters:
		name := strings.TrimSpace(c.FormValue("name"))
		description := strings.TrimSpace(c.FormValue("description"))
		baseImageURL := strings.TrimSpace(c.FormValue("base_image_url"))
		if err := characters.Edit(func(ch *domain.Character) {
			ch.Name = name
			ch.Description = description
			ch.BaseImageURL = baseImageURL
		}); err != nil {
			return err
		}
		_, _ = characters.Save(c.UserContext())
	}
	return redirect(c, adminURL(mgr.Kind()))
}

// Delete handles POST /admin/:kind/:id/delete (form field confirm=yes).
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	mgr, err := h.manager(c)
	if mgr == nil {
		return err
	}
	err = mgr.Delete(c.UserContext(), c.Params("id"), c.FormValue("confirm") == "yes")
	if err != nil && domain.HasCode(err, domain.ErrValidation) {
		return err
	}
	return redirect(c, adminURL(mgr.Kind()))
}

func (h *AdminHandler) manager(c *fiber.Ctx) (recordManager, error) {
	kind := c.Params("kind")
	if errs := h.validator.ValidateAdminKind(kind); len(errs) > 0 {
		return nil, errs
	}
	sess, err := sessionOf(c)
	if err != nil {
		return nil, err
	}
	return managerFor(sess, kind), nil
}

func managerFor(sess *session.Session, kind string) recordManager {
	questions, characters := sess.Admin()
	if kind == kindCharacters {
		return characters
	}
	return questions
}

// parseOptions pairs the posted option rows, dropping fully blank ones.
func parseOptions(ids, texts []string) []domain.Option {
	options := make([]domain.Option, 0, len(ids))
	for i, id := range ids {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		id, text = strings.TrimSpace(id), strings.TrimSpace(text)
		if id == "" && text == "" {
			continue
		}
		options = append(options, domain.Option{ID: id, Text: text})
	}
	return options
}

func adminURL(kind string) string {
	return "/admin?kind=" + kind
}
