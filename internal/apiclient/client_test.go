package apiclient

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"starmatch/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithHTTPClient(srv.URL, srv.Client())
}

func TestClient_GetQuiz(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/quiz", r.URL.Path)
			_, _ = io.WriteString(w, `{"questions":[{"id":"q1","text":"Pick a ship","options":[{"id":"A","text":"Falcon"},{"id":"B","text":"X-Wing"}]}]}`)
		})

		questions, err := client.GetQuiz(t.Context())
		require.NoError(t, err)
		require.Len(t, questions, 1)
		assert.Equal(t, "q1", questions[0].ID)
		assert.Equal(t, []domain.Option{{ID: "A", Text: "Falcon"}, {ID: "B", Text: "X-Wing"}}, questions[0].Options)
	})

	t.Run("MissingQuestionsIsEmpty", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		})

		questions, err := client.GetQuiz(t.Context())
		require.NoError(t, err)
		assert.NotNil(t, questions)
		assert.Empty(t, questions)
	})

	t.Run("NonSuccessStatus", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.GetQuiz(t.Context())
		require.Error(t, err)
		assert.True(t, domain.HasCode(err, domain.ErrNetwork))
	})

	t.Run("TransportFailure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		client := NewWithHTTPClient(srv.URL, http.DefaultClient)

		_, err := client.GetQuiz(t.Context())
		assert.True(t, domain.HasCode(err, domain.ErrNetwork))
	})

	t.Run("UndecodableBody", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `<html>`)
		})

		_, err := client.GetQuiz(t.Context())
		assert.True(t, domain.HasCode(err, domain.ErrNetwork))
	})
}

func TestClient_SubmitAnswers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/quiz/submit", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"q1": "A"}, body["answers"])

		_, _ = io.WriteString(w, `{"resultId":"r1","character":"Han Solo","description":"Scruffy-looking"}`)
	})

	res, err := client.SubmitAnswers(t.Context(), domain.AnswerMap{"q1": "A"})
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionResult{ResultID: "r1", Character: "Han Solo", Description: "Scruffy-looking"}, res)
}

func TestClient_UploadSelfie(t *testing.T) {
	t.Run("WithResultID", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/upload-selfie", r.URL.Path)
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "r1", r.FormValue("resultId"))

			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			data, _ := io.ReadAll(file)
			assert.Equal(t, "capture.jpg", header.Filename)
			assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
			assert.Equal(t, []byte("jpegbytes"), data)

			_, _ = io.WriteString(w, `{"mashupUrl":"https://cdn/m.jpg","imageUrl":"https://cdn/ignored.jpg"}`)
		})

		res, err := client.UploadSelfie(t.Context(), domain.Image{
			Filename: "capture.jpg", ContentType: "image/jpeg", Data: []byte("jpegbytes"),
		}, "r1")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/m.jpg", res.ImageURL)
	})

	t.Run("WithoutResultIDFallsBackToImageURL", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, present := r.MultipartForm.Value["resultId"]
			assert.False(t, present)
			_, _ = io.WriteString(w, `{"imageUrl":"https://cdn/i.jpg","resultId":"r9"}`)
		})

		res, err := client.UploadSelfie(t.Context(), domain.Image{Filename: "me.png", Data: []byte("png")}, "")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/i.jpg", res.ImageURL)
		assert.Equal(t, "r9", res.ResultID)
	})
}

func TestClient_GetMashup(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/results/r%2F1", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{"imageUrl":"https://cdn/x.jpg","character":"Leia"}`)
	})

	res, err := client.GetMashup(t.Context(), "r/1")
	require.NoError(t, err)
	assert.Equal(t, domain.MashupResult{ResultID: "r/1", ImageURL: "https://cdn/x.jpg", Character: "Leia"}, res)
}

func TestClient_FetchImage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/media/m.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = io.WriteString(w, "bytes")
	})

	img, err := client.FetchImage(t.Context(), "/media/m.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, []byte("bytes"), img.Data)

	_, err = client.FetchImage(t.Context(), "/media/missing.jpg")
	assert.True(t, domain.HasCode(err, domain.ErrNetwork))
}

func TestClient_SaveQuestion(t *testing.T) {
	var lastMethod, lastPath atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		lastMethod.Store(r.Method)
		lastPath.Store(r.URL.Path)
		var q domain.Question
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		if q.ID == "" {
			q.ID = "new-id"
		}
		require.NoError(t, json.NewEncoder(w).Encode(q))
	})

	t.Run("CreateWithoutID", func(t *testing.T) {
		saved, err := client.SaveQuestion(t.Context(), domain.Question{Text: "New?", Options: []domain.Option{{ID: "A"}}})
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, lastMethod.Load())
		assert.Equal(t, "/api/admin/questions", lastPath.Load())
		assert.Equal(t, "new-id", saved.ID)
	})

	t.Run("UpdateWithID", func(t *testing.T) {
		saved, err := client.SaveQuestion(t.Context(), domain.Question{ID: "q7", Text: "Edited"})
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, lastMethod.Load())
		assert.Equal(t, "/api/admin/questions/q7", lastPath.Load())
		assert.Equal(t, "q7", saved.ID)
	})
}

func TestClient_CharacterCRUD(t *testing.T) {
	var calls []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"items":[{"id":"c1","name":"Yoda","description":"Small","baseImageUrl":"https://img/yoda.png"}]}`)
		case http.MethodPut, http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			assert.True(t, strings.Contains(string(body), `"baseImageUrl"`))
			_, _ = w.Write(body)
		case http.MethodDelete:
			_, _ = io.WriteString(w, `{"ok":true}`)
		}
	})

	items, err := client.ListCharacters(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []domain.Character{{ID: "c1", Name: "Yoda", Description: "Small", BaseImageURL: "https://img/yoda.png"}}, items)

	_, err = client.SaveCharacter(t.Context(), items[0])
	require.NoError(t, err)
	require.NoError(t, client.DeleteCharacter(t.Context(), "c1"))

	assert.Equal(t, []string{
		"GET /api/admin/characters",
		"PUT /api/admin/characters/c1",
		"DELETE /api/admin/characters/c1",
	}, calls)
}

func TestClient_ListQuestionsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	items, err := client.ListQuestions(t.Context())
	assert.Nil(t, items)
	assert.True(t, domain.HasCode(err, domain.ErrNetwork))
}
