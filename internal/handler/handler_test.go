package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"starmatch/internal/adapter"
	"starmatch/internal/apiclient"
	"starmatch/internal/camera"
	"starmatch/internal/config"
	"starmatch/internal/domain"
	"starmatch/internal/service"
	"starmatch/internal/session"
	"starmatch/internal/view"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "testsecretkeydontuseinproduction32bytes!"

// fakeBackend implements the backend HTTP contract in memory.
type fakeBackend struct {
	mu             sync.Mutex
	failQuiz       bool
	failCharacters bool
	noImage        bool
	questions      []domain.Question
	characters     []domain.Character
	submitted      []domain.AnswerMap
	uploads        []string // resultId of every upload
	deleted        []string
	nextID         int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		questions: []domain.Question{
			{ID: "q1", Text: "Pick a weapon", Options: []domain.Option{{ID: "a", Text: "Lightsaber"}, {ID: "b", Text: "Blaster"}}},
			{ID: "q2", Text: "Pick a ship", Options: []domain.Option{{ID: "a", Text: "X-wing"}, {ID: "b", Text: "Falcon"}}},
		},
		characters: []domain.Character{{ID: "c1", Name: "Yoda", Description: "Wise"}},
	}
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	writeJSON := func(v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/quiz":
		if b.failQuiz {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		writeJSON(map[string]any{"questions": b.questions})
	case r.Method == http.MethodPost && r.URL.Path == "/api/quiz/submit":
		var req struct {
			Answers domain.AnswerMap `json:"answers"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.submitted = append(b.submitted, req.Answers)
		writeJSON(map[string]string{"resultId": "r1", "character": "Yoda", "description": "Wise"})
	case r.Method == http.MethodPost && r.URL.Path == "/api/upload-selfie":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.uploads = append(b.uploads, r.FormValue("resultId"))
		writeJSON(map[string]string{"mashupUrl": "/mashups/r1.jpg", "resultId": "r1"})
	case r.Method == http.MethodGet && r.URL.Path == "/api/results/r1":
		if b.noImage {
			writeJSON(map[string]string{"character": "Yoda", "description": "Wise"})
			return
		}
		writeJSON(map[string]string{"imageUrl": "/mashups/r1.jpg", "character": "Yoda", "description": "Wise"})
	case r.Method == http.MethodGet && r.URL.Path == "/mashups/r1.jpg":
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	case strings.HasPrefix(r.URL.Path, "/api/admin/questions"):
		b.serveQuestions(w, r, writeJSON)
	case strings.HasPrefix(r.URL.Path, "/api/admin/characters"):
		if b.failCharacters {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		writeJSON(map[string]any{"items": b.characters})
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeBackend) serveQuestions(w http.ResponseWriter, r *http.Request, writeJSON func(any)) {
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/admin/questions"), "/")
	switch r.Method {
	case http.MethodGet:
		writeJSON(map[string]any{"items": b.questions})
	case http.MethodPost, http.MethodPut:
		var q domain.Question
		_ = json.NewDecoder(r.Body).Decode(&q)
		if q.ID == "" {
			b.nextID++
			q.ID = fmt.Sprintf("new%d", b.nextID)
			b.questions = append(b.questions, q)
		} else {
			for i := range b.questions {
				if b.questions[i].ID == id {
					b.questions[i] = q
				}
			}
		}
		writeJSON(q)
	case http.MethodDelete:
		b.deleted = append(b.deleted, id)
		kept := b.questions[:0]
		for _, q := range b.questions {
			if q.ID != id {
				kept = append(kept, q)
			}
		}
		b.questions = kept
		w.WriteHeader(http.StatusNoContent)
	}
}

type stillCamera struct{}

func (stillCamera) Open(context.Context) (camera.Stream, error) { return stillStream{}, nil }

type stillStream struct{}

func (stillStream) Frame(context.Context) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.White)
	return img, nil
}

func (stillStream) Stop() error { return nil }

type testEnv struct {
	app      *fiber.App
	backend  *fakeBackend
	registry *session.Registry
	handoffs service.HandoffStore
	cookies  map[string]*http.Cookie
}

func newTestEnv(t *testing.T, adminPassword string) *testEnv {
	t.Helper()
	backend := newFakeBackend()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client := apiclient.NewWithHTTPClient(srv.URL, srv.Client())
	registry := session.NewRegistry(session.Factory{
		Quiz:        client,
		Selfie:      client,
		Result:      client,
		Questions:   client.Questions(),
		Characters:  client.Characters(),
		Camera:      stillCamera{},
		JPEGQuality: 92,
	}, time.Hour)
	t.Cleanup(registry.Close)

	auth, err := service.NewAdminAuthService(config.AdminConfig{Password: adminPassword, JWTSecret: testJWTSecret, TokenTTL: time.Hour})
	require.NoError(t, err)

	cache := adapter.NewMemoryCache()
	handoffs := service.NewHandoffStore(cache, time.Minute)
	app := NewApp(AppConfig{
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		PublicURL:      "http://frontend.test",
		BackendBaseURL: srv.URL,
		SessionTTL:     time.Hour,
		JPEGQuality:    92,
	}, Deps{
		Pages:    view.MustLoad(),
		Registry: registry,
		Handoffs: handoffs,
		Auth:     auth,
		Cache:    cache,
	})

	return &testEnv{app: app, backend: backend, registry: registry, handoffs: handoffs, cookies: map[string]*http.Cookie{}}
}

// do sends a request carrying the cookies collected so far, like a browser.
func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(e.cookies, c.Name)
			continue
		}
		e.cookies[c.Name] = c
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req)
}

func (e *testEnv) postFile(t *testing.T, path, filename, contentType string, data []byte) (*http.Response, string) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(t, req)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}
