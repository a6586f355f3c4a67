package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upliftlab/affirmd/internal/kvstore"
	"github.com/upliftlab/affirmd/types"
)

type fakeGenerator struct {
	result types.GenerationResult
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(_ context.Context, _ types.GenerateRequest) (types.GenerationResult, error) {
	f.calls++
	return f.result, f.err
}

func newTestServer(t *testing.T) (*Server, *fakeGenerator, kvstore.Store) {
	t.Helper()
	store, err := kvstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	gen := &fakeGenerator{result: types.GenerationResult{Affirmations: []string{"I am calm."}}}
	return New(0, nil, store, gen, nil), gen, store
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func seed(t *testing.T, store kvstore.Store, keys ...string) {
	t.Helper()
	for _, key := range keys {
		_, err := store.CreateEntry(context.Background(), key, kvstore.TextValue("x"))
		require.NoError(t, err)
	}
}

func TestGenerateEmptyThemes(t *testing.T) {
	s, gen, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/generate", `{"themes": []}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "At least one theme is required"}`, rec.Body.String())
	assert.Zero(t, gen.calls, "the pipeline must not run for an empty request")
}

func TestGenerateMissingThemesField(t *testing.T) {
	s, gen, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/generate", `{"version": "af-01"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, gen.calls)
}

func TestGenerateSuccess(t *testing.T) {
	s, gen, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/generate", `{"themes": ["calm"]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, gen.calls)
	assert.Contains(t, rec.Body.String(), "I am calm.")
}

func TestGenerateInvalidBody(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/generate", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVersionsEndpoint(t *testing.T) {
	s, _, store := newTestServer(t)
	seed(t, store, "af-01.prompt.default", "gt-02.prompt.default")

	rec := doRequest(s, http.MethodGet, "/api/versions", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"versions": ["af-01", "gt-02"]}`, rec.Body.String())
}

func TestImplementationsDefaultFirst(t *testing.T) {
	s, _, store := newTestServer(t)
	seed(t, store,
		"af-01.prompt.zeta",
		"af-01.prompt.default",
		"af-01.prompt.alpha",
		"gt-02.prompt.other",
	)

	rec := doRequest(s, http.MethodGet, "/api/implementations?version=af-01", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"implementations": ["default", "alpha", "zeta"]}`, rec.Body.String())
}

func TestImplementationsRequiresVersion(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/implementations", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImplementationsEmpty(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/implementations?version=af-01", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"implementations": []}`, rec.Body.String())
}

func TestListEntriesRequiresBothParams(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/entries?version=af-01", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEntry(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/entries", `{"key": "af-01.prompt.default", "value": {"text": "hi"}}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "af-01.prompt.default")
}

func TestCreateEntryDuplicate(t *testing.T) {
	s, _, store := newTestServer(t)
	seed(t, store, "af-01.prompt.default")

	rec := doRequest(s, http.MethodPost, "/api/entries", `{"key": "af-01.prompt.default", "value": {"text": "hi"}}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error": "key already exists"}`, rec.Body.String())
}

func TestCreateEntryMissingFields(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/entries", `{"key": "af-01.prompt.default"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateEntryValueAndRename(t *testing.T) {
	s, _, store := newTestServer(t)
	entry, err := store.CreateEntry(context.Background(), "af-01.prompt.default", kvstore.TextValue("old"))
	require.NoError(t, err)

	rec := doRequest(s, http.MethodPut, "/api/entries/"+entry.ID,
		`{"key": "af-01.prompt.draft", "value": {"text": "new"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	updated, err := store.EntryByKey(context.Background(), "af-01.prompt.draft")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, updated.ID)
	assert.JSONEq(t, `{"text": "new"}`, string(updated.Value))
}

func TestUpdateEntryRequiresSomething(t *testing.T) {
	s, _, store := newTestServer(t)
	entry, err := store.CreateEntry(context.Background(), "af-01.prompt.default", kvstore.TextValue("old"))
	require.NoError(t, err)

	rec := doRequest(s, http.MethodPut, "/api/entries/"+entry.ID, `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateEntryNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPut, "/api/entries/nope", `{"value": {"text": "new"}}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteEntry(t *testing.T) {
	s, _, store := newTestServer(t)
	entry, err := store.CreateEntry(context.Background(), "af-01.prompt.default", kvstore.TextValue("x"))
	require.NoError(t, err)

	rec := doRequest(s, http.MethodDelete, "/api/entries/"+entry.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = store.EntryByKey(context.Background(), "af-01.prompt.default")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestDeleteEntryNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodDelete, "/api/entries/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateImplementation(t *testing.T) {
	s, _, store := newTestServer(t)
	seed(t, store, "af-01.prompt.default", "af-01.system.default")

	rec := doRequest(s, http.MethodPost, "/api/implementations",
		`{"version": "af-01", "source": "default", "name": "draft"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"copied": 2}`, rec.Body.String())
}

func TestCreateImplementationNoSource(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/implementations",
		`{"version": "af-01", "source": "default", "name": "draft"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateImplementationConflict(t *testing.T) {
	s, _, store := newTestServer(t)
	seed(t, store, "af-01.prompt.default", "af-01.prompt.draft")

	rec := doRequest(s, http.MethodPost, "/api/implementations",
		`{"version": "af-01", "source": "default", "name": "draft"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func preflight(s *Server, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
	req.Header.Set("Origin", origin)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestCORSPreflightNoAllowlist(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := preflight(s, "http://localhost:5173")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowlist(t *testing.T) {
	store, err := kvstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	s := New(0, []string{"http://app.example.com"}, store, &fakeGenerator{}, nil)

	rec := preflight(s, "http://app.example.com")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = preflight(s, "http://evil.example.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
