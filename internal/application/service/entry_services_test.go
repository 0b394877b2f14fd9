package service

import (
	"testing"

	"DPDB/internal/domain"

	"github.com/stretchr/testify/assert"
)

type mockEntryRepository struct {
	entries   map[string]interface{}
	optimized int
}

func newMockEntryRepository() *mockEntryRepository {
	return &mockEntryRepository{entries: map[string]interface{}{}}
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

func (m *mockEntryRepository) Optimize() error {
	m.optimized++
	return nil
}

func TestSaveEntryService(t *testing.T) {
	repo := newMockEntryRepository()
	svc := NewSaveEntryService(repo)

	result := svc.Execute(SaveEntryCommand{Key: "k", Value: "v"})

	assert.NoError(t, result.Err)
	assert.Equal(t, "k", result.Entry.Key())
	assert.Equal(t, "v", result.Entry.Value())
	assert.Equal(t, "v", repo.entries["k"])
}

func TestGetEntryService(t *testing.T) {
	repo := newMockEntryRepository()
	repo.entries["k"] = "v"
	svc := NewGetEntryService(repo)

	result := svc.Execute(GetEntryQuery{Key: "k"})
	assert.True(t, result.Found)
	assert.Equal(t, "v", result.Entry.Value())

	missing := svc.Execute(GetEntryQuery{Key: "nope"})
	assert.False(t, missing.Found)
}

func TestDeleteEntryService(t *testing.T) {
	repo := newMockEntryRepository()
	repo.entries["k"] = "v"
	svc := NewDeleteEntryService(repo)

	result := svc.Execute(DeleteEntryCommand{Key: "k"})
	assert.NoError(t, result.Err)
	assert.Equal(t, "v", result.Entry.Value())
	assert.NotContains(t, repo.entries, "k")

	again := svc.Execute(DeleteEntryCommand{Key: "k"})
	assert.Error(t, again.Err)
}

func TestListKeysService(t *testing.T) {
	repo := newMockEntryRepository()
	repo.entries["a"] = "1"
	repo.entries["b"] = "2"
	svc := NewListKeysService(repo)

	result := svc.Execute()
	assert.ElementsMatch(t, []string{"a", "b"}, result.Keys)
}

func TestOptimizeService(t *testing.T) {
	repo := newMockEntryRepository()
	svc := NewOptimizeService(repo)

	result := svc.Execute()
	assert.NoError(t, result.Err)
	assert.Equal(t, 1, repo.optimized)
}
