package deepfile

import (
	"fmt"

	"DPDB/internal/platform/utils"

	"github.com/davecgh/go-spew/spew"
)

// record is the normalized form a caller value takes on its way to disk:
// scalar bytes, null, an empty composite to be seeded, or a reference to a
// handle that already lives in the file.
type record struct {
	kind byte
	data []byte
	seed interface{}
	ref  *DB
}

func (rec record) contentSize(r *root) int {
	switch rec.kind {
	case tagData:
		return len(rec.data)
	case tagHash, tagArray:
		return r.indexSize()
	default:
		return 0
	}
}

const (
	tagHash  = TypeHash
	tagArray = TypeArray
)

// normalize maps a caller value into its on-disk record kind. Anything that
// is not a scalar, nil, map, list or handle is rejected at this boundary.
func (r *root) normalize(value interface{}) (record, error) {
	switch v := value.(type) {
	case nil:
		return record{kind: tagNull}, nil
	case string:
		return record{kind: tagData, data: []byte(v)}, nil
	case []byte:
		return record{kind: tagData, data: v}, nil
	case map[string]interface{}:
		return record{kind: tagHash, seed: v}, nil
	case []interface{}:
		return record{kind: tagArray, seed: v}, nil
	case *DB:
		if v.root != r {
			return record{}, ErrTiedValue
		}
		return record{kind: v.kind, ref: v}, nil
	default:
		r.debugf("rejected value: %s", spew.Sdump(value))
		return record{}, fmt.Errorf("%w: %T", ErrUnsupportedType, value)
	}
}

// writeValue writes the value record at loc: the tag, then the plain-key
// trailer. Composites get a zeroed index payload that becomes the root of
// their own digest trie. Records appended at the end of the file advance
// the end marker past the trailer.
func (db *DB) writeValue(loc uint64, plainKey []byte, rec record) error {
	r := db.root
	var content []byte
	switch rec.kind {
	case tagData:
		content = rec.data
	case tagHash, tagArray:
		content = make([]byte, r.indexSize())
	}

	appended := loc == r.end
	t, err := r.createTag(loc, rec.kind, content)
	if err != nil {
		return err
	}
	trailer := append(utils.PackUint(r.packSize, uint64(len(plainKey))), plainKey...)
	if err := utils.WriteAt(r.file, t.offset+t.size, trailer); err != nil {
		return err
	}
	if appended {
		r.end += uint64(len(trailer))
	}
	return nil
}

// readValue materializes the value record at off: scalar bytes come back as
// a string (optionally fetch-filtered), null as nil, and composites as a
// child handle sharing this handle's root.
func (db *DB) readValue(off uint64, fval bool) (interface{}, error) {
	r := db.root
	t, err := r.loadTag(off)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: dangling value offset %d", ErrIndexingFailed, off)
	}
	switch t.kind {
	case tagData:
		b := t.content
		if fval && r.filterFetchValue != nil {
			b = r.filterFetchValue(b)
		}
		return string(b), nil
	case tagNull:
		return nil, nil
	case tagHash, tagArray:
		return db.newChild(off, t.kind), nil
	default:
		return nil, fmt.Errorf("%w: unexpected tag %q at %d", ErrIndexingFailed, t.kind, off)
	}
}

func (db *DB) newChild(base uint64, kind byte) *DB {
	db.root.handles++
	return &DB{base: base, kind: kind, root: db.root}
}

// seedOf extracts the in-memory payload a composite value was stored with.
func seedOf(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case map[string]interface{}:
		return v, len(v) > 0
	case []interface{}:
		return v, len(v) > 0
	default:
		return nil, false
	}
}

func emptyComposite(value interface{}) interface{} {
	if _, ok := value.(map[string]interface{}); ok {
		return map[string]interface{}{}
	}
	return []interface{}{}
}

type seedJob struct {
	db   *DB
	seed interface{}
}

// seedWorklist populates child with the entries of seed through the public
// insert path, depth-first over an explicit worklist so arbitrarily deep
// trees never grow the stack. Handles created along the way are released as
// their subtree is finished.
func (db *DB) seedWorklist(child *DB, seed interface{}) error {
	work := []seedJob{{child, seed}}
	first := true
	for len(work) > 0 {
		j := work[len(work)-1]
		work = work[:len(work)-1]

		switch v := j.seed.(type) {
		case map[string]interface{}:
			for k, vv := range v {
				sub, err := j.db.seedEntry([]byte(k), vv, true)
				if err != nil {
					return err
				}
				if sub != nil {
					work = append(work, seedJob{sub, vv})
				}
			}
		case []interface{}:
			for i, vv := range v {
				sub, err := j.db.seedEntry(j.db.listKey(uint64(i)), vv, false)
				if err != nil {
					return err
				}
				if sub != nil {
					work = append(work, seedJob{sub, vv})
				}
			}
			if n, err := j.db.length(); err != nil {
				return err
			} else if uint64(len(v)) > n {
				if err := j.db.setLength(uint64(len(v))); err != nil {
					return err
				}
			}
		}
		if !first {
			j.db.release()
		}
		first = false
	}
	return nil
}

// seedEntry stores one entry; for a non-empty composite value it stores the
// empty composite and returns the freshly created child handle for the
// caller to enqueue.
func (db *DB) seedEntry(key []byte, value interface{}, fkey bool) (*DB, error) {
	seed, nonEmpty := seedOf(value)
	if seed == nil {
		_, err := db.store(key, value, fkey, true)
		return nil, err
	}
	if _, err := db.store(key, emptyComposite(value), fkey, true); err != nil {
		return nil, err
	}
	if !nonEmpty {
		return nil, nil
	}
	v, found, err := db.fetch(key, fkey, false)
	if err != nil {
		return nil, err
	}
	child, ok := v.(*DB)
	if !found || !ok {
		return nil, fmt.Errorf("%w: seeded composite not found", ErrIndexingFailed)
	}
	return child, nil
}

// Import merges a foreign in-memory tree into this composite through the
// public insert path. The tree's shape must match the handle's kind.
func (db *DB) Import(tree interface{}) error {
	r := db.root
	switch tree.(type) {
	case map[string]interface{}:
		if db.kind != TypeHash {
			return r.park(ErrWrongKind)
		}
	case []interface{}:
		if db.kind != TypeArray {
			return r.park(ErrWrongKind)
		}
	default:
		return r.park(fmt.Errorf("%w: %T", ErrUnsupportedType, tree))
	}
	if err := db.Lock(LockExclusive); err != nil {
		return r.park(err)
	}
	defer db.Unlock()
	if err := db.seedWorklist(db, tree); err != nil {
		return r.park(err)
	}
	return r.flush()
}

type exportJob struct {
	src    *DB
	owned  bool
	assign func(interface{})
}

// Export walks the composite and rebuilds it as native maps, slices,
// strings and nils. Keys and values come back through the public fetch path
// with filters applied.
func (db *DB) Export() (interface{}, error) {
	r := db.root
	if err := db.Lock(LockShared); err != nil {
		return nil, r.park(err)
	}
	defer db.Unlock()

	var out interface{}
	work := []exportJob{{db, false, func(v interface{}) { out = v }}}
	for len(work) > 0 {
		j := work[len(work)-1]
		work = work[:len(work)-1]

		if j.src.kind == TypeHash {
			m := map[string]interface{}{}
			for k, ok := j.src.FirstKey(); ok; k, ok = j.src.NextKey(k) {
				v, found := j.src.Get(k)
				if !found {
					continue
				}
				if child, isdb := v.(*DB); isdb {
					key := k
					work = append(work, exportJob{child, true, func(vv interface{}) { m[key] = vv }})
					continue
				}
				m[k] = v
			}
			j.assign(m)
		} else {
			n := j.src.Length()
			s := make([]interface{}, n)
			for i := uint64(0); i < n; i++ {
				v, found := j.src.GetIndex(int64(i))
				if !found {
					continue
				}
				if child, isdb := v.(*DB); isdb {
					idx := i
					work = append(work, exportJob{child, true, func(vv interface{}) { s[idx] = vv }})
					continue
				}
				s[i] = v
			}
			j.assign(s)
		}
		if j.owned {
			j.src.release()
		}
	}
	return out, nil
}
