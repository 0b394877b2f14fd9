package repository

import (
	"strconv"

	"DPDB/internal/domain"
	"DPDB/internal/platform/repository/deepfile"
)

// DeepfileRepository adapts the map root of a deepfile database to the
// domain repository contract. Scalar entries round-trip as strings; nested
// JSON-shaped values are stored as real on-disk composites and come back as
// native trees through Export.
type DeepfileRepository struct {
	db *deepfile.DB
}

func NewDeepfileRepository(db *deepfile.DB) *DeepfileRepository {
	return &DeepfileRepository{
		db: db,
	}
}

func (r *DeepfileRepository) Save(entry domain.DbEntry) (domain.DbEntry, error) {
	if _, err := r.db.Put(entry.Key(), sanitize(entry.Value())); err != nil {
		return domain.DbEntry{}, err
	}
	return entry, nil
}

func (r *DeepfileRepository) Get(key string) (domain.DbEntry, bool) {
	v, found := r.db.Get(key)
	if !found {
		return domain.DbEntry{}, false
	}
	value, err := r.materialize(v)
	if err != nil {
		return domain.DbEntry{}, false
	}
	return domain.NewDbEntry(key, value), true
}

func (r *DeepfileRepository) Delete(key string) (*domain.DbEntry, bool) {
	v, found := r.db.Delete(key)
	if !found {
		return nil, false
	}
	value, err := r.materialize(v)
	if err != nil {
		return nil, false
	}
	entry := domain.NewDbEntry(key, value)
	return &entry, true
}

func (r *DeepfileRepository) Keys() []string {
	return r.db.Keys()
}

func (r *DeepfileRepository) Optimize() error {
	return r.db.Optimize()
}

// materialize turns an engine fetch result into a plain value, exporting
// child composites and releasing their handles.
func (r *DeepfileRepository) materialize(v interface{}) (interface{}, error) {
	child, ok := v.(*deepfile.DB)
	if !ok {
		return v, nil
	}
	defer child.Close()
	return child.Export()
}

// sanitize maps JSON-decoded values onto the engine's value domain: numbers
// and booleans become their decimal/literal strings, containers recurse.
func sanitize(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, vv := range t {
			out[k] = sanitize(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, vv := range t {
			out[i] = sanitize(vv)
		}
		return out
	default:
		return v
	}
}
