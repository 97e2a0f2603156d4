package session

import (
	"sync"
	"time"

	"starmatch/internal/camera"
	"starmatch/internal/domain"
	"starmatch/internal/port"
	"starmatch/internal/service"
)

// Screen identifies the screen a session currently shows.
type Screen string

const (
	ScreenStart  Screen = "start"
	ScreenQuiz   Screen = "quiz"
	ScreenUpload Screen = "upload"
	ScreenResult Screen = "result"
	ScreenAdmin  Screen = "admin"
)

// Factory holds what the per-screen controllers are built from.
type Factory struct {
	Quiz        port.QuizAPI
	Selfie      port.SelfieAPI
	Result      port.ResultAPI
	Questions   port.RecordAPI[domain.Question]
	Characters  port.RecordAPI[domain.Character]
	Camera      camera.Device
	JPEGQuality int
}

// Session is one visitor's set of screen-scoped controllers. Exactly one
// screen is mounted at a time; entering another screen unmounts the
// previous one, which releases its camera and drops its pending results.
type Session struct {
	ID string

	factory Factory

	mu       sync.Mutex
	lastSeen time.Time
	screen   Screen
	// token is the handoff token the current screen was mounted with.
	token string
	flash string

	quiz       *service.QuizFlow
	capture    *service.CaptureController
	result     *service.ResultPresenter
	questions  *service.AdminCRUD[domain.Question]
	characters *service.AdminCRUD[domain.Character]
}

// New creates a session showing the start screen.
func New(id string, factory Factory) *Session {
	return &Session{
		ID:       id,
		factory:  factory,
		screen:   ScreenStart,
		lastSeen: time.Now(),
	}
}

// Screen returns the mounted screen.
func (s *Session) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// Token returns the handoff token the current screen was mounted with.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetFlash stores a one-shot notice for the next rendered page.
func (s *Session) SetFlash(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash = msg
}

// TakeFlash returns and clears the pending notice.
func (s *Session) TakeFlash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.flash
	s.flash = ""
	return msg
}

// Start shows the start screen.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enterLocked(ScreenStart, "")
}

// Quiz enters the quiz screen, mounting a fresh flow unless the quiz is
// already mounted. restart forces a fresh flow.
func (s *Session) Quiz(restart bool) *service.QuizFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen == ScreenQuiz && s.quiz != nil && !restart {
		return s.quiz
	}
	s.enterLocked(ScreenQuiz, "")
	s.quiz = service.NewQuizFlow(s.factory.Quiz)
	return s.quiz
}

// Upload enters the upload screen for the handoff designated by token. The
// controller is reused while the token is unchanged; take resolves the
// handoff only when a new controller is mounted.
func (s *Session) Upload(token string, take func() domain.Handoff) *service.CaptureController {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen == ScreenUpload && s.capture != nil && s.token == token {
		return s.capture
	}
	s.enterLocked(ScreenUpload, token)
	s.capture = service.NewCaptureController(s.factory.Selfie, s.factory.Camera, s.factory.JPEGQuality, take())
	return s.capture
}

// Result enters the result screen for the handoff designated by token.
func (s *Session) Result(token string, take func() domain.Handoff) *service.ResultPresenter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen == ScreenResult && s.result != nil && s.token == token {
		return s.result
	}
	s.enterLocked(ScreenResult, token)
	s.result = service.NewResultPresenter(s.factory.Result, take())
	return s.result
}

// Admin enters the admin panel, mounting both record managers.
func (s *Session) Admin() (*service.AdminCRUD[domain.Question], *service.AdminCRUD[domain.Character]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != ScreenAdmin || s.questions == nil {
		s.enterLocked(ScreenAdmin, "")
		s.questions = service.NewQuestionAdmin(s.factory.Questions)
		s.characters = service.NewCharacterAdmin(s.factory.Characters)
	}
	return s.questions, s.characters
}

// CurrentCapture returns the mounted capture controller without changing the
// screen; nil means the upload screen is not shown.
func (s *Session) CurrentCapture() *service.CaptureController {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != ScreenUpload {
		return nil
	}
	return s.capture
}

// CurrentQuiz returns the mounted quiz flow, if the quiz screen is shown.
func (s *Session) CurrentQuiz() *service.QuizFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != ScreenQuiz {
		return nil
	}
	return s.quiz
}

// CurrentResult returns the mounted result presenter, if any.
func (s *Session) CurrentResult() *service.ResultPresenter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != ScreenResult {
		return nil
	}
	return s.result
}

// Close unmounts whatever is mounted. The session stays usable.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unmountLocked()
	s.screen = ScreenStart
	s.token = ""
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) enterLocked(screen Screen, token string) {
	s.unmountLocked()
	s.screen = screen
	s.token = token
}

func (s *Session) unmountLocked() {
	if s.quiz != nil {
		s.quiz.Unmount()
		s.quiz = nil
	}
	if s.capture != nil {
		s.capture.Unmount()
		s.capture = nil
	}
	if s.result != nil {
		s.result.Unmount()
		s.result = nil
	}
	if s.questions != nil {
		s.questions.Unmount()
		s.questions = nil
	}
	if s.characters != nil {
		s.characters.Unmount()
		s.characters = nil
	}
}
