package port

import (
	"context"

	"starmatch/internal/domain"
)

// QuizAPI is the backend surface the quiz screen needs.
type QuizAPI interface {
	GetQuiz(ctx context.Context) ([]domain.Question, error)
	SubmitAnswers(ctx context.Context, answers domain.AnswerMap) (domain.SubmissionResult, error)
}

// SelfieAPI uploads a selfie for compositing.
type SelfieAPI interface {
	UploadSelfie(ctx context.Context, img domain.Image, resultID string) (domain.MashupResult, error)
}

// ResultAPI fetches composites and their bytes.
type ResultAPI interface {
	GetMashup(ctx context.Context, resultID string) (domain.MashupResult, error)
	FetchImage(ctx context.Context, imageURL string) (domain.Image, error)
}

// RecordAPI is the admin CRUD surface for one record type.
type RecordAPI[T domain.Record] interface {
	List(ctx context.Context) ([]T, error)
	// Save creates the record when it has no ID and updates it otherwise,
	// returning the persisted record.
	Save(ctx context.Context, record T) (T, error)
	Delete(ctx context.Context, id string) error
}
