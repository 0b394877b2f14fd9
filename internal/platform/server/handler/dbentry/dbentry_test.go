package dbentry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"DPDB/internal/application/service"
	"DPDB/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type mockEntryRepository struct {
	entries map[string]interface{}
}

func (m *mockEntryRepository) Save(entry domain.DbEntry) (domain.DbEntry, error) {
	m.entries[entry.Key()] = entry.Value()
	return entry, nil
}

func (m *mockEntryRepository) Get(key string) (domain.DbEntry, bool) {
	v, found := m.entries[key]
	if !found {
		return domain.DbEntry{}, false
	}
	return domain.NewDbEntry(key, v), true
}

func (m *mockEntryRepository) Delete(key string) (*domain.DbEntry, bool) {
	v, found := m.entries[key]
	if !found {
		return nil, false
	}
	delete(m.entries, key)
	entry := domain.NewDbEntry(key, v)
	return &entry, true
}

func (m *mockEntryRepository) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

func (m *mockEntryRepository) Optimize() error { return nil }

func newTestRouter(repo domain.DbEntryRepository) *chi.Mux {
	h := NewDbEntryHandler(
		service.NewSaveEntryService(repo),
		service.NewDeleteEntryService(repo),
		service.NewGetEntryService(repo),
		service.NewListKeysService(repo),
		service.NewOptimizeService(repo),
	)
	r := chi.NewRouter()
	r.Get("/db", h.ListKeys)
	r.Get("/db/{key}", h.GetEntry)
	r.Post("/db/{key}", h.SaveEntry)
	r.Delete("/db/{key}", h.DeleteEntry)
	return r
}

func TestSaveAndGetEntry(t *testing.T) {
	repo := &mockEntryRepository{entries: map[string]interface{}{}}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/db/greeting", strings.NewReader(`{"value":"hola"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/db/greeting", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp EntryResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "greeting", resp.Key)
	assert.Equal(t, "hola", resp.Value)
}

func TestSaveNestedEntry(t *testing.T) {
	repo := &mockEntryRepository{entries: map[string]interface{}{}}
	router := newTestRouter(repo)

	body := `{"value":{"name":"ana","tags":["a","b"]}}`
	req := httptest.NewRequest(http.MethodPost, "/db/user", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	tree, ok := repo.entries["user"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "ana", tree["name"])
}

func TestGetMissingEntry(t *testing.T) {
	repo := &mockEntryRepository{entries: map[string]interface{}{}}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/db/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteEntry(t *testing.T) {
	repo := &mockEntryRepository{entries: map[string]interface{}{"k": "v"}}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodDelete, "/db/k", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, repo.entries, "k")

	req = httptest.NewRequest(http.MethodDelete, "/db/k", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListKeys(t *testing.T) {
	repo := &mockEntryRepository{entries: map[string]interface{}{"a": "1", "b": "2"}}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/db", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp KeysResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{"a", "b"}, resp.Keys)
}
