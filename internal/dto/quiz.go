package dto

import "starmatch/internal/domain"

// QuizResponse is the body of GET /api/quiz.
type QuizResponse struct {
	Questions []domain.Question `json:"questions"`
}

// SubmitAnswersRequest is the body of POST /api/quiz/submit.
type SubmitAnswersRequest struct {
	Answers domain.AnswerMap `json:"answers"`
}

// SubmitAnswersResponse is the backend's match for a submission.
type SubmitAnswersResponse struct {
	ResultID    string `json:"resultId"`
	Character   string `json:"character"`
	Description string `json:"description"`
}

// MashupResponse is returned by both POST /api/upload-selfie and
// GET /api/results/{resultId}. Older backends answer with imageUrl.
type MashupResponse struct {
	MashupURL   string `json:"mashupUrl,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	ResultID    string `json:"resultId,omitempty"`
	Character   string `json:"character,omitempty"`
	Description string `json:"description,omitempty"`
}

// URL prefers mashupUrl over imageUrl.
func (r MashupResponse) URL() string {
	if r.MashupURL != "" {
		return r.MashupURL
	}
	return r.ImageURL
}

// ToDomain converts the wire shape to a domain.MashupResult.
func (r MashupResponse) ToDomain() domain.MashupResult {
	return domain.MashupResult{
		ResultID:    r.ResultID,
		ImageURL:    r.URL(),
		Character:   r.Character,
		Description: r.Description,
	}
}

// ListResponse is the admin list envelope: {items: [...]}.
type ListResponse[T any] struct {
	Items []T `json:"items"`
}
