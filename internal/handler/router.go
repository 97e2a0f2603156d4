package handler

import (
	"strings"
	"time"

	"starmatch/internal/domain"
	"starmatch/internal/middleware"
	"starmatch/internal/service"
	"starmatch/internal/session"
	"starmatch/internal/validation"
	"starmatch/internal/view"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// AppConfig is the subset of configuration the web surface needs.
type AppConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PublicURL      string
	BackendBaseURL string
	SessionTTL     time.Duration
	JPEGQuality    int
}

// Deps are the collaborators shared by every handler.
type Deps struct {
	Pages    *view.Pages
	Registry *session.Registry
	Handoffs service.HandoffStore
	Auth     service.AdminAuthService
	Cache    domain.Cache
}

// NewApp builds the fiber application with every route registered.
func NewApp(cfg AppConfig, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.ReadTimeout,
		BodyLimit:             validation.MaxSelfieBytes + 1024*1024,
		ErrorHandler:          middleware.ErrorHandler(deps.Pages),
		DisableStartupMessage: true,
	})

	app.Use(middleware.RequestLogger())
	app.Use(recover.New())

	health := NewHealthHandler(deps.Cache)
	app.Get("/healthz", health.Check)

	secure := strings.HasPrefix(cfg.PublicURL, "https://")
	app.Use(middleware.Sessions(deps.Registry, secure, cfg.SessionTTL))

	quiz := NewQuizHandler(deps.Pages, deps.Handoffs)
	app.Get("/", quiz.Start)
	app.Get("/quiz", quiz.Show)
	app.Post("/quiz/answer", quiz.Answer)
	app.Post("/quiz/next", quiz.Next)
	app.Post("/quiz/back", quiz.Back)
	app.Post("/quiz/submit", quiz.Submit)

	upload := NewUploadHandler(deps.Pages, deps.Handoffs, cfg.JPEGQuality)
	app.Get("/upload", upload.Show)
	app.Post("/upload/file", upload.SelectFile)
	app.Post("/upload/camera/start", upload.StartCamera)
	app.Post("/upload/camera/capture", upload.Capture)
	app.Post("/upload/camera/stop", upload.StopCamera)
	app.Get("/upload/camera/frame", upload.Frame)
	app.Get("/upload/preview/:id", upload.Preview)
	app.Post("/upload/submit", upload.Submit)

	result := NewResultHandler(deps.Pages, deps.Handoffs, cfg.BackendBaseURL, cfg.PublicURL)
	app.Get("/result", result.Show)
	app.Get("/result/download", result.Download)
	app.Post("/result/share", result.Share)

	admin := NewAdminHandler(deps.Pages, deps.Auth, secure)
	app.Get("/admin/login", admin.LoginPage)
	app.Post("/admin/login", admin.Login)
	app.Post("/admin/logout", admin.Logout)

	adminGroup := app.Group("/admin", middleware.AdminGuard(deps.Auth))
	adminGroup.Get("/", admin.Show)
	adminGroup.Post("/:kind/new", admin.New)
	adminGroup.Post("/:kind/save", admin.Save)
	adminGroup.Get("/:kind/:id", admin.Edit)
	adminGroup.Post("/:kind/:id/delete", admin.Delete)

	return app
}
