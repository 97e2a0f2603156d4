// Package apiclient wraps the backend's HTTP contract. Every call is a single
// round trip: no retry, no caching. Failures come back as NETWORK_ERROR
// domain errors.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"starmatch/internal/config"
	"starmatch/internal/domain"
	"starmatch/internal/dto"
	"starmatch/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	quizPath       = "/api/quiz"
	submitPath     = "/api/quiz/submit"
	uploadPath     = "/api/upload-selfie"
	resultsPath    = "/api/results/"
	questionsPath  = "/api/admin/questions"
	charactersPath = "/api/admin/characters"

	// maxImageBytes bounds FetchImage downloads.
	maxImageBytes = 20 << 20
)

// Client talks to the quiz/mashup backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client for baseURL. When auth.TokenURL is set, requests carry
// an OAuth2 client-credentials bearer token.
func New(baseURL string, timeout time.Duration, auth config.BackendAuthConfig) *Client {
	httpClient := &http.Client{Timeout: timeout}
	if auth.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     auth.ClientID,
			ClientSecret: auth.ClientSecret,
			TokenURL:     auth.TokenURL,
			Scopes:       auth.Scopes,
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = timeout
	}
	return NewWithHTTPClient(baseURL, httpClient)
}

// NewWithHTTPClient builds a Client around an existing http.Client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// GetQuiz fetches the question set.
func (c *Client) GetQuiz(ctx context.Context) ([]domain.Question, error) {
	var out dto.QuizResponse
	if err := c.doJSON(ctx, "load quiz", http.MethodGet, quizPath, nil, &out); err != nil {
		return nil, err
	}
	if out.Questions == nil {
		return []domain.Question{}, nil
	}
	return out.Questions, nil
}

// SubmitAnswers posts the answer map and returns the character match.
func (c *Client) SubmitAnswers(ctx context.Context, answers domain.AnswerMap) (domain.SubmissionResult, error) {
	var out dto.SubmitAnswersResponse
	req := dto.SubmitAnswersRequest{Answers: answers}
	if err := c.doJSON(ctx, "submit answers", http.MethodPost, submitPath, req, &out); err != nil {
		return domain.SubmissionResult{}, err
	}
	return domain.SubmissionResult{
		ResultID:    out.ResultID,
		Character:   out.Character,
		Description: out.Description,
	}, nil
}

// UploadSelfie sends the image as multipart field "file", tied to resultID
// when one is known.
func (c *Client) UploadSelfie(ctx context.Context, img domain.Image, resultID string) (domain.MashupResult, error) {
	const op = "upload selfie"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	filename := img.Filename
	if filename == "" {
		filename = "selfie"
	}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return domain.MashupResult{}, domain.NewNetworkError(op, err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return domain.MashupResult{}, domain.NewNetworkError(op, err)
	}
	if resultID != "" {
		if err := mw.WriteField("resultId", resultID); err != nil {
			return domain.MashupResult{}, domain.NewNetworkError(op, err)
		}
	}
	if err := mw.Close(); err != nil {
		return domain.MashupResult{}, domain.NewNetworkError(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(uploadPath), &body)
	if err != nil {
		return domain.MashupResult{}, domain.NewNetworkError(op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out dto.MashupResponse
	if err := c.do(op, req, &out); err != nil {
		return domain.MashupResult{}, err
	}
	return out.ToDomain(), nil
}

// GetMashup fetches the composite for a result identifier.
func (c *Client) GetMashup(ctx context.Context, resultID string) (domain.MashupResult, error) {
	var out dto.MashupResponse
	if err := c.doJSON(ctx, "load result", http.MethodGet, resultsPath+url.PathEscape(resultID), nil, &out); err != nil {
		return domain.MashupResult{}, err
	}
	res := out.ToDomain()
	if res.ResultID == "" {
		res.ResultID = resultID
	}
	return res, nil
}

// FetchImage downloads the bytes behind an image URL. Relative URLs are
// resolved against the backend origin.
func (c *Client) FetchImage(ctx context.Context, imageURL string) (domain.Image, error) {
	const op = "download image"
	target := imageURL
	if u, err := url.Parse(imageURL); err == nil && !u.IsAbs() {
		target = c.url(imageURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.Image{}, domain.NewNetworkError(op, err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return domain.Image{}, domain.NewNetworkError(op, err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return domain.Image{}, domain.NewNetworkError(op, fmt.Errorf("unexpected status %s", res.Status))
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, maxImageBytes))
	if err != nil {
		return domain.Image{}, domain.NewNetworkError(op, err)
	}
	return domain.Image{
		ContentType: res.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// ListQuestions returns every question known to the backend.
func (c *Client) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	return listItems[domain.Question](ctx, c, "load questions", questionsPath)
}

// SaveQuestion creates the question when it has no ID, updates it otherwise.
func (c *Client) SaveQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	return saveRecord(ctx, c, "save question", questionsPath, q)
}

// DeleteQuestion removes a question.
func (c *Client) DeleteQuestion(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete question", http.MethodDelete, questionsPath+"/"+url.PathEscape(id), nil, nil)
}

// ListCharacters returns every character known to the backend.
func (c *Client) ListCharacters(ctx context.Context) ([]domain.Character, error) {
	return listItems[domain.Character](ctx, c, "load characters", charactersPath)
}

// SaveCharacter creates the character when it has no ID, updates it otherwise.
func (c *Client) SaveCharacter(ctx context.Context, ch domain.Character) (domain.Character, error) {
	return saveRecord(ctx, c, "save character", charactersPath, ch)
}

// DeleteCharacter removes a character.
func (c *Client) DeleteCharacter(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete character", http.MethodDelete, charactersPath+"/"+url.PathEscape(id), nil, nil)
}

func listItems[T any](ctx context.Context, c *Client, op, path string) ([]T, error) {
	var out dto.ListResponse[T]
	if err := c.doJSON(ctx, op, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		return []T{}, nil
	}
	return out.Items, nil
}

func saveRecord[T domain.Record](ctx context.Context, c *Client, op, collection string, record T) (T, error) {
	method, path := http.MethodPost, collection
	if id := record.RecordID(); id != "" {
		method, path = http.MethodPut, collection+"/"+url.PathEscape(id)
	}
	var saved T
	if err := c.doJSON(ctx, op, method, path, record, &saved); err != nil {
		var zero T
		return zero, err
	}
	return saved, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// doJSON performs one JSON round trip. in may be nil (no body); out may be
// nil (response body ignored, e.g. delete acks).
func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return domain.NewNetworkError(op, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return domain.NewNetworkError(op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		logger.Get().Warn("Backend request failed",
			zap.String("op", op),
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Error(err),
		)
		return domain.NewNetworkError(op, err)
	}
	defer res.Body.Close()

	logger.Get().Debug("Backend request",
		zap.String("op", op),
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", res.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if res.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))
		return domain.NewNetworkError(op, fmt.Errorf("unexpected status %s", res.Status))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return domain.NewNetworkError(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
