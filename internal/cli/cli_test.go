package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"starmatch/internal/apiclient"
	"starmatch/internal/domain"
)

// backendStub serves the quiz and admin endpoints from memory.
type backendStub struct {
	mu        sync.Mutex
	questions []domain.Question
	saved     []domain.Question
	uploads   int
	failQuiz  bool
}

func (b *backendStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/api/quiz":
		if b.failQuiz {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"questions": b.questions})
	case r.URL.Path == "/api/quiz/submit":
		_ = json.NewEncoder(w).Encode(map[string]string{"resultId": "r9", "character": "Leia", "description": "Leader"})
	case r.URL.Path == "/api/upload-selfie":
		b.uploads++
		_ = json.NewEncoder(w).Encode(map[string]string{"mashupUrl": "/m/r9.jpg"})
	case r.URL.Path == "/api/results/r9":
		_ = json.NewEncoder(w).Encode(map[string]string{"imageUrl": "/m/r9.jpg"})
	case r.URL.Path == "/m/r9.jpg":
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("composite"))
	case r.URL.Path == "/api/admin/questions" && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"items": b.questions})
	case strings.HasPrefix(r.URL.Path, "/api/admin/questions"):
		var q domain.Question
		_ = json.NewDecoder(r.Body).Decode(&q)
		if q.ID == "" {
			q.ID = "gen"
		}
		b.saved = append(b.saved, q)
		_ = json.NewEncoder(w).Encode(q)
	default:
		http.NotFound(w, r)
	}
}

func newBackendStub(t *testing.T) (*backendStub, *apiclient.Client) {
	t.Helper()
	stub := &backendStub{
		questions: []domain.Question{
			{ID: "q1", Text: "Favourite planet?", Options: []domain.Option{{ID: "a", Text: "Alderaan"}, {ID: "b", Text: "Tatooine"}}},
			{ID: "q2", Text: "Favourite droid?", Options: []domain.Option{{ID: "a", Text: "R2-D2"}, {ID: "b", Text: "C-3PO"}}},
		},
	}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return stub, apiclient.NewWithHTTPClient(srv.URL, srv.Client())
}
