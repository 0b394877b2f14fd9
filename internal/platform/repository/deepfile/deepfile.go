// Package deepfile implements a single-file embedded key/value store that
// natively represents nested maps and ordered lists on disk. Every record in
// the file is a tagged binary frame; keys are located through a 256-way
// digest trie terminating in fixed-capacity bucket lists, and the file grows
// append-mostly. Files are portable across operating systems: all on-disk
// integers are big-endian and unsigned.
package deepfile

import (
	"fmt"
	"os"
)

// DB is a handle onto one composite (the file root or a nested map/list)
// inside a database file. Handles obtained from the same Open share one
// root record and therefore one file, one end marker and one lock state.
// A handle must not be used from more than one goroutine at a time.
type DB struct {
	base   uint64
	kind   byte
	root   *root
	closed bool
}

// Open opens or creates the database file described by cfg and returns a
// handle onto its root composite.
func Open(cfg Config) (*DB, error) {
	c := cfg.withDefaults()
	if c.PackSize != 4 && c.PackSize != 8 {
		return nil, fmt.Errorf("%w: pack size must be 4 or 8", ErrCannotOpen)
	}
	if c.Type != TypeHash && c.Type != TypeArray {
		return nil, fmt.Errorf("%w: type must be TypeHash or TypeArray", ErrCannotOpen)
	}

	flags := os.O_RDWR | os.O_CREATE
	if c.ReadOnly {
		flags = os.O_RDONLY
	}
	f, err := os.OpenFile(c.File, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotOpen, err)
	}

	r := &root{
		path:             c.File,
		file:             f,
		openFlags:        flags,
		packSize:         c.PackSize,
		hashSize:         c.HashSize,
		digest:           c.Digest,
		readOnly:         c.ReadOnly,
		locking:          c.Locking,
		autoflush:        c.Autoflush,
		volatileMode:     c.Volatile,
		debug:            c.Debug,
		filterStoreKey:   c.FilterStoreKey,
		filterStoreValue: c.FilterStoreValue,
		filterFetchKey:   c.FilterFetchKey,
		filterFetchValue: c.FilterFetchValue,
	}
	if err := r.setup(c.Type); err != nil {
		f.Close()
		return nil, err
	}
	r.handles = 1
	r.debugf("opened %s kind=%c end=%d", r.path, r.kind, r.end)
	return &DB{base: uint64(len(Signature)), kind: r.kind, root: r}, nil
}

// Type returns TypeHash or TypeArray for this composite.
func (db *DB) Type() byte { return db.kind }

// Path returns the name of the backing file.
func (db *DB) Path() string { return db.root.path }

// Error returns the last error parked on the shared root.
func (db *DB) Error() error { return db.root.lastErr }

// ClearError forgets the last parked error.
func (db *DB) ClearError() { db.root.lastErr = nil }

// Clone returns a new handle onto the same composite. No data is copied.
func (db *DB) Clone() *DB {
	db.root.handles++
	return &DB{base: db.base, kind: db.kind, root: db.root}
}

// Close releases this handle. The file itself closes when the last handle
// on its root goes away.
func (db *DB) Close() error {
	if db.closed {
		return nil
	}
	db.closed = true
	return db.release()
}

func (db *DB) release() error {
	r := db.root
	r.handles--
	if r.handles <= 0 && r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// Lock acquires the advisory lock in the given mode. Locks are reentrant
// per root: only the outermost Lock touches the OS.
func (db *DB) Lock(mode LockMode) error {
	return db.root.lock(mode)
}

// Unlock undoes one Lock.
func (db *DB) Unlock() error {
	return db.root.unlock()
}

// Put binds key to value in this composite. value may be a string, []byte,
// nil (a stored null, distinct from absent), a map[string]interface{}, a
// []interface{}, or another handle into the same file (which creates an
// on-disk reference, cycles included). Returns Inserted or Replaced.
func (db *DB) Put(key string, value interface{}) (StoreResult, error) {
	return db.put([]byte(key), value, true)
}

func (db *DB) put(key []byte, value interface{}, fkey bool) (StoreResult, error) {
	r := db.root
	seed, nonEmpty := seedOf(value)
	toStore := value
	if seed != nil {
		toStore = emptyComposite(value)
	}

	if err := db.Lock(LockExclusive); err != nil {
		return StoreFailed, r.park(err)
	}
	defer db.Unlock()

	res, err := db.store(key, toStore, fkey, true)
	if err != nil {
		return StoreFailed, err
	}
	if nonEmpty {
		v, found, err := db.fetch(key, fkey, false)
		if err != nil {
			return StoreFailed, r.park(err)
		}
		child, ok := v.(*DB)
		if !found || !ok {
			return StoreFailed, r.park(fmt.Errorf("%w: stored composite not found", ErrIndexingFailed))
		}
		err = db.seedWorklist(child, seed)
		child.release()
		if err != nil {
			return StoreFailed, r.park(err)
		}
	}
	return res, r.flush()
}

// store writes a single entry: digest the (possibly filtered) key, walk or
// build the trie path, and settle the record into its bucket.
func (db *DB) store(key []byte, value interface{}, fkey, fval bool) (StoreResult, error) {
	r := db.root
	if r.readOnly {
		return StoreFailed, r.park(ErrReadOnly)
	}
	rec, err := r.normalize(value)
	if err != nil {
		return StoreFailed, r.park(err)
	}
	if rec.kind == tagData && fval && r.filterStoreValue != nil {
		rec.data = r.filterStoreValue(rec.data)
	}
	if fkey && db.kind == TypeHash && r.filterStoreKey != nil {
		key = r.filterStoreKey(key)
	}
	dig := r.digestOf(key)

	if err := db.Lock(LockExclusive); err != nil {
		return StoreFailed, r.park(err)
	}
	defer db.Unlock()

	blist, err := db.findBucketList(dig, true)
	if err != nil {
		return StoreFailed, r.park(err)
	}
	res, err := db.addBucket(blist, dig, key, rec)
	if err != nil {
		return StoreFailed, r.park(err)
	}
	return res, nil
}

// Get fetches the value bound to key: a string for scalars, nil for a
// stored null (found is still true), or a child handle for nested
// composites. Each fetch of a composite returns a fresh handle onto the
// same offset.
func (db *DB) Get(key string) (interface{}, bool) {
	v, found, err := db.fetch([]byte(key), true, true)
	if err != nil {
		db.root.park(err)
		return nil, false
	}
	return v, found
}

func (db *DB) fetch(key []byte, fkey, fval bool) (interface{}, bool, error) {
	r := db.root
	if fkey && db.kind == TypeHash && r.filterStoreKey != nil {
		key = r.filterStoreKey(key)
	}
	dig := r.digestOf(key)

	if err := db.Lock(LockShared); err != nil {
		return nil, false, err
	}
	defer db.Unlock()

	blist, err := db.findBucketList(dig, false)
	if err != nil {
		return nil, false, err
	}
	if blist == nil {
		return nil, false, nil
	}
	return db.getBucketValue(blist, dig, fval)
}

// Exists reports whether key has a binding. Stored nulls exist.
func (db *DB) Exists(key string) bool {
	r := db.root
	k := []byte(key)
	if db.kind == TypeHash && r.filterStoreKey != nil {
		k = r.filterStoreKey(k)
	}
	dig := r.digestOf(k)

	if err := db.Lock(LockShared); err != nil {
		r.park(err)
		return false
	}
	defer db.Unlock()

	blist, err := db.findBucketList(dig, false)
	if err != nil || blist == nil {
		if err != nil {
			r.park(err)
		}
		return false
	}
	return db.bucketExists(blist, dig)
}

// Delete removes the binding for key and returns the value it held. The
// value record's bytes stay in the file until the next Optimize.
func (db *DB) Delete(key string) (interface{}, bool) {
	v, found, err := db.del([]byte(key), true)
	if err != nil {
		db.root.park(err)
		return nil, false
	}
	return v, found
}

func (db *DB) del(key []byte, filtered bool) (interface{}, bool, error) {
	r := db.root
	if r.readOnly {
		return nil, false, ErrReadOnly
	}
	if filtered && db.kind == TypeHash && r.filterStoreKey != nil {
		key = r.filterStoreKey(key)
	}
	dig := r.digestOf(key)

	if err := db.Lock(LockExclusive); err != nil {
		return nil, false, err
	}
	defer db.Unlock()

	blist, err := db.findBucketList(dig, false)
	if err != nil {
		return nil, false, err
	}
	if blist == nil {
		return nil, false, nil
	}
	v, found, err := db.getBucketValue(blist, dig, filtered)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	if _, err := db.deleteBucket(blist, dig); err != nil {
		return nil, false, err
	}
	return v, true, r.flush()
}

// Clear resets this composite to empty by rewriting its root index in
// place. Value records already written stay in the file as dead space.
func (db *DB) Clear() error {
	r := db.root
	if r.readOnly {
		return r.park(ErrReadOnly)
	}
	if err := db.Lock(LockExclusive); err != nil {
		return r.park(err)
	}
	defer db.Unlock()
	if _, err := r.createTag(db.base, db.kind, make([]byte, r.indexSize())); err != nil {
		return r.park(err)
	}
	return r.flush()
}

// FirstKey starts a key walk and returns the first plain key in trie order:
// digest-byte order across index nodes, slot order inside a bucket list.
// The order is unpredictable but repeats on every walk of an unchanged file.
// On list handles this walk exposes the packed index keys and the literal
// "length" entry.
func (db *DB) FirstKey() (string, bool) {
	r := db.root
	if err := db.Lock(LockShared); err != nil {
		r.park(err)
		return "", false
	}
	defer db.Unlock()

	key, ok, err := db.firstKeyRaw()
	if err != nil {
		r.park(err)
		return "", false
	}
	if !ok {
		return "", false
	}
	return db.fetchFilterKey(key), true
}

// NextKey continues a key walk from the previously returned key.
func (db *DB) NextKey(prev string) (string, bool) {
	r := db.root
	k := []byte(prev)
	if db.kind == TypeHash && r.filterStoreKey != nil {
		k = r.filterStoreKey(k)
	}
	dig := r.digestOf(k)

	if err := db.Lock(LockShared); err != nil {
		r.park(err)
		return "", false
	}
	defer db.Unlock()

	key, ok, err := db.nextKeyRaw(dig)
	if err != nil {
		r.park(err)
		return "", false
	}
	if !ok {
		return "", false
	}
	return db.fetchFilterKey(key), true
}

func (db *DB) fetchFilterKey(key []byte) string {
	r := db.root
	if db.kind == TypeHash && r.filterFetchKey != nil {
		key = r.filterFetchKey(key)
	}
	return string(key)
}

// Keys walks the whole composite and returns every plain key.
func (db *DB) Keys() []string {
	var keys []string
	for k, ok := db.FirstKey(); ok; k, ok = db.NextKey(k) {
		keys = append(keys, k)
	}
	return keys
}
