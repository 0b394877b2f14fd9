package deepfile

import (
	"DPDB/internal/platform/utils"
)

// A list is stored as a map whose keys are the packed big-endian indices,
// plus one reserved entry under the literal key "length" holding the
// logical length. The length entry bypasses all filters.

var lengthKey = []byte("length")

func (db *DB) listKey(i uint64) []byte {
	return utils.PackUint(db.root.packSize, i)
}

func (db *DB) length() (uint64, error) {
	v, found, err := db.fetch(lengthKey, false, false)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	return utils.UnpackUint([]byte(s)), nil
}

func (db *DB) setLength(n uint64) error {
	_, err := db.store(lengthKey, string(utils.PackUint(db.root.packSize, n)), false, false)
	return err
}

// Length returns the logical length of the list.
func (db *DB) Length() uint64 {
	r := db.root
	if db.kind != TypeArray {
		r.park(ErrWrongKind)
		return 0
	}
	n, err := db.length()
	if err != nil {
		r.park(err)
		return 0
	}
	return n
}

// resolveIndex turns a possibly negative index into an absolute one.
// Negative indices count back from the end of the list.
func resolveIndex(i int64, n uint64) (uint64, bool) {
	if i < 0 {
		i += int64(n)
		if i < 0 {
			return 0, false
		}
	}
	return uint64(i), true
}

// GetIndex fetches the element at i. Negative indices resolve from the end;
// out-of-range reads are absent.
func (db *DB) GetIndex(i int64) (interface{}, bool) {
	r := db.root
	if db.kind != TypeArray {
		r.park(ErrWrongKind)
		return nil, false
	}
	if err := db.Lock(LockShared); err != nil {
		r.park(err)
		return nil, false
	}
	defer db.Unlock()

	n, err := db.length()
	if err != nil {
		r.park(err)
		return nil, false
	}
	idx, ok := resolveIndex(i, n)
	if !ok {
		return nil, false
	}
	v, found, err := db.fetch(db.listKey(idx), false, true)
	if err != nil {
		r.park(err)
		return nil, false
	}
	return v, found
}

// PutIndex stores value at i, extending the logical length when the store
// lands at or past the current end. A negative index that resolves below
// zero is a non-creatable subscript.
func (db *DB) PutIndex(i int64, value interface{}) (StoreResult, error) {
	r := db.root
	if db.kind != TypeArray {
		return StoreFailed, r.park(ErrWrongKind)
	}
	if err := db.Lock(LockExclusive); err != nil {
		return StoreFailed, r.park(err)
	}
	defer db.Unlock()

	n, err := db.length()
	if err != nil {
		return StoreFailed, r.park(err)
	}
	idx, ok := resolveIndex(i, n)
	if !ok {
		return StoreFailed, r.park(ErrNonCreatableSubscript)
	}
	res, err := db.put(db.listKey(idx), value, false)
	if err != nil {
		return res, err
	}
	if res == Inserted && idx >= n {
		if err := db.setLength(idx + 1); err != nil {
			return res, r.park(err)
		}
	}
	return res, nil
}

// Push appends values and returns the new length.
func (db *DB) Push(values ...interface{}) (uint64, error) {
	r := db.root
	if db.kind != TypeArray {
		return 0, r.park(ErrWrongKind)
	}
	if err := db.Lock(LockExclusive); err != nil {
		return 0, r.park(err)
	}
	defer db.Unlock()

	n, err := db.length()
	if err != nil {
		return 0, r.park(err)
	}
	for _, v := range values {
		if _, err := db.PutIndex(int64(n), v); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Pop removes and returns the last element.
func (db *DB) Pop() (interface{}, bool) {
	r := db.root
	if db.kind != TypeArray {
		r.park(ErrWrongKind)
		return nil, false
	}
	if err := db.Lock(LockExclusive); err != nil {
		r.park(err)
		return nil, false
	}
	defer db.Unlock()

	n, err := db.length()
	if err != nil || n == 0 {
		if err != nil {
			r.park(err)
		}
		return nil, false
	}
	v, _, err := db.fetch(db.listKey(n-1), false, true)
	if err != nil {
		r.park(err)
		return nil, false
	}
	if _, _, err := db.del(db.listKey(n-1), false); err != nil {
		r.park(err)
		return nil, false
	}
	if err := db.setLength(n - 1); err != nil {
		r.park(err)
		return nil, false
	}
	return v, true
}

// Shift removes and returns the first element, sliding the rest down.
func (db *DB) Shift() (interface{}, bool) {
	r := db.root
	if db.kind != TypeArray {
		r.park(ErrWrongKind)
		return nil, false
	}
	if err := db.Lock(LockExclusive); err != nil {
		r.park(err)
		return nil, false
	}
	defer db.Unlock()

	n, err := db.length()
	if err != nil || n == 0 {
		if err != nil {
			r.park(err)
		}
		return nil, false
	}
	v, _, err := db.fetch(db.listKey(0), false, true)
	if err != nil {
		r.park(err)
		return nil, false
	}
	for i := uint64(0); i+1 < n; i++ {
		if err := db.moveIndex(i+1, i); err != nil {
			r.park(err)
			return nil, false
		}
	}
	if _, _, err := db.del(db.listKey(n-1), false); err != nil {
		r.park(err)
		return nil, false
	}
	if err := db.setLength(n - 1); err != nil {
		r.park(err)
		return nil, false
	}
	return v, true
}

// Unshift prepends values, sliding existing elements up, and returns the
// new length.
func (db *DB) Unshift(values ...interface{}) (uint64, error) {
	r := db.root
	if db.kind != TypeArray {
		return 0, r.park(ErrWrongKind)
	}
	if err := db.Lock(LockExclusive); err != nil {
		return 0, r.park(err)
	}
	defer db.Unlock()

	n, err := db.length()
	if err != nil {
		return 0, r.park(err)
	}
	k := uint64(len(values))
	if k == 0 {
		return n, nil
	}
	for i := int64(n) - 1; i >= 0; i-- {
		if err := db.moveIndex(uint64(i), uint64(i)+k); err != nil {
			return 0, r.park(err)
		}
	}
	for j, v := range values {
		if _, err := db.put(db.listKey(uint64(j)), v, false); err != nil {
			return 0, err
		}
	}
	if err := db.setLength(n + k); err != nil {
		return 0, r.park(err)
	}
	return n + k, nil
}

// Splice removes `remove` elements starting at offset, writes the new
// values in their place, slides the tail to fit, and returns the removed
// elements. Negative offsets resolve from the end of the list.
func (db *DB) Splice(offset, remove int64, values ...interface{}) ([]interface{}, error) {
	r := db.root
	if db.kind != TypeArray {
		return nil, r.park(ErrWrongKind)
	}
	if err := db.Lock(LockExclusive); err != nil {
		return nil, r.park(err)
	}
	defer db.Unlock()

	n, err := db.length()
	if err != nil {
		return nil, r.park(err)
	}
	start, ok := resolveIndex(offset, n)
	if !ok {
		return nil, r.park(ErrNonCreatableSubscript)
	}
	if start > n {
		start = n
	}
	if remove < 0 {
		remove = 0
	}
	if uint64(remove) > n-start {
		remove = int64(n - start)
	}
	rm := uint64(remove)

	removed := make([]interface{}, 0, rm)
	for i := uint64(0); i < rm; i++ {
		v, _, err := db.fetch(db.listKey(start+i), false, true)
		if err != nil {
			return nil, r.park(err)
		}
		removed = append(removed, v)
	}

	added := uint64(len(values))
	switch {
	case added > rm:
		diff := added - rm
		for i := int64(n) - 1; i >= int64(start+rm); i-- {
			if err := db.moveIndex(uint64(i), uint64(i)+diff); err != nil {
				return nil, r.park(err)
			}
		}
	case added < rm:
		diff := rm - added
		for i := start + rm; i < n; i++ {
			if err := db.moveIndex(i, i-diff); err != nil {
				return nil, r.park(err)
			}
		}
		for i := n - diff; i < n; i++ {
			if _, _, err := db.del(db.listKey(i), false); err != nil {
				return nil, r.park(err)
			}
		}
	}
	for j, v := range values {
		if _, err := db.put(db.listKey(start+uint64(j)), v, false); err != nil {
			return nil, err
		}
	}
	if err := db.setLength(n - rm + added); err != nil {
		return nil, r.park(err)
	}
	return removed, nil
}

// moveIndex copies the binding at from onto to, preserving nulls, scalars
// and composite references; an absent source deletes the target.
func (db *DB) moveIndex(from, to uint64) error {
	v, found, err := db.fetch(db.listKey(from), false, false)
	if err != nil {
		return err
	}
	if !found {
		_, _, err := db.del(db.listKey(to), false)
		return err
	}
	_, err = db.store(db.listKey(to), v, false, false)
	if child, ok := v.(*DB); ok {
		child.release()
	}
	return err
}
