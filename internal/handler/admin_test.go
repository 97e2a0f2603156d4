package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRequiresLogin(t *testing.T) {
	env := newTestEnv(t, "letmein")

	resp, _ := env.get(t, "/admin")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))

	resp, _ = env.post(t, "/admin/questions/new", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := env.post(t, "/admin/login", url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid password")
	assert.NotContains(t, env.cookies, "starmatch_admin")
}

func TestAdminQuestionLifecycle(t *testing.T) {
	env := newTestEnv(t, "letmein")

	resp, _ := env.post(t, "/admin/login", url.Values{"password": {"letmein"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Contains(t, env.cookies, "starmatch_admin")

	resp, body := env.get(t, "/admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Pick a weapon")
	assert.Contains(t, body, "Log out")

	resp, _ = env.post(t, "/admin/questions/new", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// Blank text is rejected and nothing reaches the backend.
	resp, _ = env.post(t, "/admin/questions/save", url.Values{
		"option_id":   {"A", "B"},
		"option_text": {"Yes", "No"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body = env.get(t, "/admin?kind=questions")
	assert.Contains(t, body, "Failed to save")
	assert.Len(t, env.backend.questions, 2)

	resp, _ = env.post(t, "/admin/questions/save", url.Values{
		"text":        {"Pick a side"},
		"option_id":   {"A", "B", ""},
		"option_text": {"Light", "Dark", ""},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Len(t, env.backend.questions, 3)
	created := env.backend.questions[2]
	assert.Equal(t, "Pick a side", created.Text)
	assert.Len(t, created.Options, 2)

	_, body = env.get(t, "/admin?kind=questions")
	assert.Contains(t, body, "Pick a side")
	assert.NotContains(t, body, "Failed to save")

	// Deleting needs the confirmation box.
	resp, _ = env.post(t, "/admin/questions/"+created.ID+"/delete", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, env.backend.deleted)

	resp, _ = env.post(t, "/admin/questions/"+created.ID+"/delete", url.Values{"confirm": {"yes"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, []string{created.ID}, env.backend.deleted)

	_, body = env.get(t, "/admin?kind=questions")
	assert.NotContains(t, body, "Pick a side")
}

func TestAdminEditExistingQuestion(t *testing.T) {
	env := newTestEnv(t, "")

	_, body := env.get(t, "/admin")
	require.Contains(t, body, "Pick a weapon")
	assert.NotContains(t, body, "Log out")

	resp, _ := env.get(t, "/admin/questions/q1")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = env.post(t, "/admin/questions/save", url.Values{
		"text":        {"Pick a weapon, wisely"},
		"option_id":   {"a", "b"},
		"option_text": {"Lightsaber", "Blaster"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "Pick a weapon, wisely", env.backend.questions[0].Text)
	assert.Len(t, env.backend.questions, 2)

	resp, _ = env.get(t, "/admin/questions/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminCharacterListFailureShowsNotice(t *testing.T) {
	env := newTestEnv(t, "")
	env.backend.failCharacters = true

	resp, body := env.get(t, "/admin?kind=characters")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Failed to load characters")

	env.backend.failCharacters = false
	_, body = env.get(t, "/admin?kind=characters&reload=1")
	assert.Contains(t, body, "Yoda")
	assert.NotContains(t, body, "Failed to load characters")
}

func TestAdminUnknownKind(t *testing.T) {
	env := newTestEnv(t, "")
	resp, _ := env.get(t, "/admin?kind=planets")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminLogout(t *testing.T) {
	env := newTestEnv(t, "letmein")
	env.post(t, "/admin/login", url.Values{"password": {"letmein"}})
	require.Contains(t, env.cookies, "starmatch_admin")

	resp, _ := env.post(t, "/admin/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.NotContains(t, env.cookies, "starmatch_admin")

	resp, _ = env.get(t, "/admin")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}
