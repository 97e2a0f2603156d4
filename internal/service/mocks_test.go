package service

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"starmatch/internal/camera"
	"starmatch/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockQuizAPI ---
type MockQuizAPI struct {
	mock.Mock
}

func (m *MockQuizAPI) GetQuiz(ctx context.Context) ([]domain.Question, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Question), args.Error(1)
}

func (m *MockQuizAPI) SubmitAnswers(ctx context.Context, answers domain.AnswerMap) (domain.SubmissionResult, error) {
	args := m.Called(ctx, answers)
	return args.Get(0).(domain.SubmissionResult), args.Error(1)
}

// --- MockSelfieAPI ---
type MockSelfieAPI struct {
	mock.Mock
}

func (m *MockSelfieAPI) UploadSelfie(ctx context.Context, img domain.Image, resultID string) (domain.MashupResult, error) {
	args := m.Called(ctx, img, resultID)
	return args.Get(0).(domain.MashupResult), args.Error(1)
}

// --- MockResultAPI ---
type MockResultAPI struct {
	mock.Mock
}

func (m *MockResultAPI) GetMashup(ctx context.Context, resultID string) (domain.MashupResult, error) {
	args := m.Called(ctx, resultID)
	return args.Get(0).(domain.MashupResult), args.Error(1)
}

func (m *MockResultAPI) FetchImage(ctx context.Context, imageURL string) (domain.Image, error) {
	args := m.Called(ctx, imageURL)
	return args.Get(0).(domain.Image), args.Error(1)
}

// --- MockRecordAPI ---
type MockRecordAPI[T domain.Record] struct {
	mock.Mock
}

func (m *MockRecordAPI[T]) List(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockRecordAPI[T]) Save(ctx context.Context, record T) (T, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(T), args.Error(1)
}

func (m *MockRecordAPI[T]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- ManualMockCache ---
type ManualMockCache struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value string, ttl time.Duration) error
	GetDelFunc func(ctx context.Context, key string) (string, error)
	DeleteFunc func(ctx context.Context, key string) error
	PingFunc   func(ctx context.Context) error
}

func (m *ManualMockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return "", domain.ErrCacheMiss
}

func (m *ManualMockCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	return nil
}

func (m *ManualMockCache) GetDel(ctx context.Context, key string) (string, error) {
	if m.GetDelFunc != nil {
		return m.GetDelFunc(ctx, key)
	}
	return "", domain.ErrCacheMiss
}

func (m *ManualMockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return nil
}

func (m *ManualMockCache) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// --- fakeDevice / fakeStream ---
type fakeDevice struct {
	mu      sync.Mutex
	openErr error
	opened  int
	streams []*fakeStream
}

func (d *fakeDevice) Open(context.Context) (camera.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened++
	if d.openErr != nil {
		return nil, d.openErr
	}
	s := &fakeStream{}
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *fakeDevice) last() *fakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

type fakeStream struct {
	mu       sync.Mutex
	stopped  int
	frameErr error
	// silent makes Frame wait for ctx like a feed that never sends.
	silent bool
}

func (s *fakeStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	silent := s.silent
	s.mu.Unlock()
	if silent {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped > 0 {
		return nil, camera.ErrStreamStopped
	}
	if s.frameErr != nil {
		return nil, s.frameErr
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	return img, nil
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
	return nil
}

func (s *fakeStream) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Text: "Pick a weapon", Options: []domain.Option{{ID: "a", Text: "Lightsaber"}, {ID: "b", Text: "Blaster"}}},
		{ID: "q2", Text: "Pick a ship", Options: []domain.Option{{ID: "a", Text: "X-wing"}, {ID: "b", Text: "Falcon"}}},
		{ID: "q3", Text: "Pick a side", Options: []domain.Option{{ID: "a", Text: "Light"}, {ID: "b", Text: "Dark"}}},
	}
}
