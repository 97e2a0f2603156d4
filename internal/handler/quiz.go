package handler

import (
	"errors"

	"starmatch/internal/domain"
	"starmatch/internal/logger"
	"starmatch/internal/service"
	"starmatch/internal/validation"
	"starmatch/internal/view"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type quizPage struct {
	View service.QuizView
}

// QuizHandler serves the start screen and the quiz screen.
type QuizHandler struct {
	pages     *view.Pages
	handoffs  service.HandoffStore
	validator *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(pages *view.Pages, handoffs service.HandoffStore) *QuizHandler {
	return &QuizHandler{
		pages:     pages,
		handoffs:  handoffs,
		validator: validation.NewValidator(),
	}
}

// Start handles GET /
func (h *QuizHandler) Start(c *fiber.Ctx) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	sess.Start()
	return h.pages.Render(c, fiber.StatusOK, "start", nil)
}

// Show handles GET /quiz. restart=1 mounts a fresh quiz.
func (h *QuizHandler) Show(c *fiber.Ctx) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	if c.Query("restart") == "1" {
		sess.Quiz(true)
		return redirect(c, "/quiz")
	}

	flow := sess.Quiz(false)
	// Failures are part of the view; the flow keeps the message.
	_ = flow.Load(c.UserContext())
	return h.pages.Render(c, fiber.StatusOK, "quiz", quizPage{View: flow.View()})
}

// Answer handles POST /quiz/answer
func (h *QuizHandler) Answer(c *fiber.Ctx) error {
	flow, err := h.current(c)
	if flow == nil {
		return err
	}
	questionID, optionID := c.FormValue("question_id"), c.FormValue("option_id")
	if errs := h.validator.ValidateAnswer(questionID, optionID); len(errs) > 0 {
		return errs
	}
	if err := flow.Select(questionID, optionID); err != nil {
		return err
	}
	return redirect(c, "/quiz")
}

// Next handles POST /quiz/next
func (h *QuizHandler) Next(c *fiber.Ctx) error {
	flow, err := h.current(c)
	if flow == nil {
		return err
	}
	flow.Next()
	return redirect(c, "/quiz")
}

// Back handles POST /quiz/back
func (h *QuizHandler) Back(c *fiber.Ctx) error {
	flow, err := h.current(c)
	if flow == nil {
		return err
	}
	flow.Back()
	return redirect(c, "/quiz")
}

// Submit handles POST /quiz/submit. On success the match is handed to the
// upload screen.
func (h *QuizHandler) Submit(c *fiber.Ctx) error {
	flow, err := h.current(c)
	if flow == nil {
		return err
	}

	result, err := flow.Submit(c.UserContext())
	if err != nil {
		if domain.HasCode(err, domain.ErrValidation) {
			return err
		}
		if !errors.Is(err, service.ErrFlowEnded) {
			logger.Get().Debug("Quiz submission failed; showing quiz again", zap.Error(err))
		}
		return redirect(c, "/quiz")
	}

	token, err := h.handoffs.Put(c.UserContext(), result)
	if err != nil {
		return err
	}
	return redirect(c, withHandoff("/upload", token))
}

// current returns the mounted quiz flow. When the quiz is not mounted it
// redirects to the quiz page and returns a nil flow.
func (h *QuizHandler) current(c *fiber.Ctx) (*service.QuizFlow, error) {
	sess, err := sessionOf(c)
	if err != nil {
		return nil, err
	}
	flow := sess.CurrentQuiz()
	if flow == nil {
		return nil, redirect(c, "/quiz")
	}
	return flow, nil
}
