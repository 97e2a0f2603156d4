package service

import (
	"context"
	"errors"
	"sync"

	"starmatch/internal/domain"
	"starmatch/internal/logger"
	"starmatch/internal/port"

	"go.uber.org/zap"
)

// QuizPhase is the state of the quiz screen.
type QuizPhase string

const (
	QuizLoading    QuizPhase = "loading"
	QuizReady      QuizPhase = "ready"
	QuizEmpty      QuizPhase = "empty"
	QuizFailed     QuizPhase = "failed"
	QuizSubmitting QuizPhase = "submitting"
	QuizDone       QuizPhase = "done"
)

const (
	msgQuizLoadFailed   = "Failed to load quiz. Please try again later."
	msgQuizSubmitFailed = "Failed to submit answers. Try again."
	msgQuizEmpty        = "No questions are available."
)

var (
	// ErrFlowEnded is returned when a call completes after the screen was left.
	ErrFlowEnded = errors.New("screen was left before the operation completed")
)

// QuizView is an immutable snapshot of the quiz screen for rendering.
type QuizView struct {
	Phase    QuizPhase
	Message  string
	Index    int
	Total    int
	Current  *domain.Question
	Selected string
	Answered int
	Percent  int
	CanBack  bool
	CanNext  bool
	IsLast   bool
	// CanSubmit is true only when every question has an answer.
	CanSubmit bool
}

// QuizFlow owns the question list, the current position and the answer map
// for one quiz session.
type QuizFlow struct {
	api      port.QuizAPI
	lifetime Lifetime

	mu        sync.Mutex
	phase     QuizPhase
	message   string
	questions []domain.Question
	index     int
	answers   domain.AnswerMap
}

// NewQuizFlow creates a flow in the Loading state.
func NewQuizFlow(api port.QuizAPI) *QuizFlow {
	return &QuizFlow{
		api:     api,
		phase:   QuizLoading,
		answers: make(domain.AnswerMap),
	}
}

// Load fetches the question set. It only acts in the Loading state, so a
// failed load stays failed for the session.
func (f *QuizFlow) Load(ctx context.Context) error {
	f.mu.Lock()
	if f.phase != QuizLoading {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	questions, err := f.api.GetQuiz(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lifetime.Ended() {
		return ErrFlowEnded
	}
	if f.phase != QuizLoading {
		// A concurrent Load already applied its result.
		return nil
	}
	if err != nil {
		logger.Get().Error("Failed to load quiz", zap.Error(err))
		f.phase = QuizFailed
		f.message = msgQuizLoadFailed
		return err
	}
	f.questions = questions
	if len(questions) == 0 {
		f.phase = QuizEmpty
		f.message = msgQuizEmpty
		return nil
	}
	f.phase = QuizReady
	return nil
}

// Select records optionID as the answer to the current question. Answers to
// any other question or unknown options are rejected.
func (f *QuizFlow) Select(questionID, optionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase != QuizReady {
		return domain.NewActionDisabledError("quiz is not accepting answers")
	}
	current := f.questions[f.index]
	if current.ID != questionID {
		return domain.NewActionDisabledError("only the current question can be answered")
	}
	if !current.HasOption(optionID) {
		return domain.NewInvalidInputError("unknown option " + optionID)
	}
	f.answers[questionID] = optionID
	return nil
}

// Next advances to the following question when the current one is answered.
func (f *QuizFlow) Next() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.canNextLocked() {
		return false
	}
	f.index++
	return true
}

// Back returns to the previous question.
func (f *QuizFlow) Back() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.canBackLocked() {
		return false
	}
	f.index--
	return true
}

// Submit sends the answers. On success the flow is done and the returned
// Handoff carries the match forward; on failure the flow goes back to Ready
// with every answer kept.
func (f *QuizFlow) Submit(ctx context.Context) (domain.Handoff, error) {
	f.mu.Lock()
	if !f.canSubmitLocked() {
		f.mu.Unlock()
		return domain.Handoff{}, domain.NewActionDisabledError("answer every question before submitting")
	}
	f.phase = QuizSubmitting
	f.message = ""
	answers := f.answers.Clone()
	f.mu.Unlock()

	res, err := f.api.SubmitAnswers(ctx, answers)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lifetime.Ended() {
		return domain.Handoff{}, ErrFlowEnded
	}
	if err != nil {
		logger.Get().Error("Failed to submit answers", zap.Error(err), zap.Int("answers", len(answers)))
		f.phase = QuizReady
		f.message = msgQuizSubmitFailed
		return domain.Handoff{}, err
	}
	f.phase = QuizDone
	return domain.Handoff{
		ResultID:    res.ResultID,
		Character:   res.Character,
		Description: res.Description,
	}, nil
}

// Answers returns a copy of the answer map.
func (f *QuizFlow) Answers() domain.AnswerMap {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers.Clone()
}

// View snapshots the flow for rendering.
func (f *QuizFlow) View() QuizView {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := len(f.questions)
	v := QuizView{
		Phase:     f.phase,
		Message:   f.message,
		Index:     f.index,
		Total:     total,
		Answered:  len(f.answers),
		CanBack:   f.canBackLocked(),
		CanNext:   f.canNextLocked(),
		CanSubmit: f.canSubmitLocked(),
	}
	if total > 0 {
		q := f.questions[f.index].Clone()
		v.Current = &q
		v.Selected = f.answers[q.ID]
		v.IsLast = f.index == total-1
		v.Percent = (len(f.answers)*100 + total/2) / total
	}
	return v
}

// Unmount ends the flow's lifetime; in-flight results are dropped.
func (f *QuizFlow) Unmount() {
	f.lifetime.End()
}

func (f *QuizFlow) canBackLocked() bool {
	return f.phase == QuizReady && f.index > 0
}

func (f *QuizFlow) canNextLocked() bool {
	if f.phase != QuizReady || f.index >= len(f.questions)-1 {
		return false
	}
	_, answered := f.answers[f.questions[f.index].ID]
	return answered
}

func (f *QuizFlow) canSubmitLocked() bool {
	if f.phase != QuizReady || len(f.questions) == 0 {
		return false
	}
	for _, q := range f.questions {
		if _, ok := f.answers[q.ID]; !ok {
			return false
		}
	}
	return true
}
