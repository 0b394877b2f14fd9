package deepfile

import (
	"errors"
	"fmt"
	"os"
	"path"
	"testing"
)

// helper para crear una base de datos temporal
func createTempDB(t *testing.T, cfg Config) *DB {
	t.Helper()
	dir, err := os.MkdirTemp("", "deepfiletest")
	if err != nil {
		t.Fatalf("error creando dir temporal: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})

	if cfg.File == "" {
		cfg.File = path.Join(dir, "test.db")
	} else {
		cfg.File = path.Join(dir, cfg.File)
	}
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("error abriendo base de datos: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func fileSize(t *testing.T, db *DB) int64 {
	t.Helper()
	st, err := os.Stat(db.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	return st.Size()
}

func TestOpenWritesSignature(t *testing.T) {
	db := createTempDB(t, Config{})

	f, err := os.Open(db.Path())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	sig := make([]byte, 4)
	if _, err := f.ReadAt(sig, 0); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(sig) != Signature {
		t.Errorf("expected signature %q, got %q", Signature, sig)
	}
}

func TestOpenRejectsForeignFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "deepfiletest")
	if err != nil {
		t.Fatalf("error creando dir temporal: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})

	name := path.Join(dir, "foreign.db")
	if err := os.WriteFile(name, []byte("not a dpdb file at all"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err = Open(Config{File: name})
	if !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	db := createTempDB(t, Config{})

	res, err := db.Put("key1", "value1")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if res != Inserted {
		t.Errorf("expected Inserted, got %v", res)
	}
	if _, err := db.Put("key2", "value2"); err != nil {
		t.Fatalf("put: %v", err)
	}

	v, found := db.Get("key1")
	if !found || v != "value1" {
		t.Errorf("get key1: got %v found=%v", v, found)
	}
	v, found = db.Get("key2")
	if !found || v != "value2" {
		t.Errorf("get key2: got %v found=%v", v, found)
	}
	if _, found := db.Get("missing"); found {
		t.Error("missing key reported as found")
	}
}

func TestReplaceSemantics(t *testing.T) {
	db := createTempDB(t, Config{})

	if _, err := db.Put("k", "first"); err != nil {
		t.Fatalf("put: %v", err)
	}
	res, err := db.Put("k", "second")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if res != Replaced {
		t.Errorf("expected Replaced, got %v", res)
	}
	v, _ := db.Get("k")
	if v != "second" {
		t.Errorf("expected 'second', got %v", v)
	}

	// exactamente un binding vivo
	keys := db.Keys()
	if len(keys) != 1 || keys[0] != "k" {
		t.Errorf("expected single key 'k', got %v", keys)
	}
}

func TestInPlaceReuse(t *testing.T) {
	db := createTempDB(t, Config{})

	if _, err := db.Put("k", "a long enough value"); err != nil {
		t.Fatalf("put: %v", err)
	}
	before := fileSize(t, db)
	if _, err := db.Put("k", "short"); err != nil {
		t.Fatalf("put: %v", err)
	}
	after := fileSize(t, db)
	if after != before {
		t.Errorf("in-place replace grew the file: %d -> %d", before, after)
	}
	if v, _ := db.Get("k"); v != "short" {
		t.Errorf("expected 'short', got %v", v)
	}

	// a longer value has to move to the end of the file
	if _, err := db.Put("k", "a value that is definitely longer than before"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if grown := fileSize(t, db); grown <= before {
		t.Errorf("grown replace did not extend the file: %d -> %d", before, grown)
	}
}

func TestDeleteThenReinsert(t *testing.T) {
	db := createTempDB(t, Config{})

	if _, err := db.Put("k", "v"); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, found := db.Delete("k")
	if !found || v != "v" {
		t.Errorf("delete returned %v found=%v", v, found)
	}
	if _, found := db.Get("k"); found {
		t.Error("deleted key still found")
	}
	if db.Exists("k") {
		t.Error("deleted key still exists")
	}
	if _, err := db.Put("k", "v2"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if v, _ := db.Get("k"); v != "v2" {
		t.Errorf("expected 'v2', got %v", v)
	}
}

func TestNullDistinctFromAbsent(t *testing.T) {
	db := createTempDB(t, Config{})

	if _, err := db.Put("n", nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, found := db.Get("n")
	if !found {
		t.Fatal("stored null reported absent")
	}
	if v != nil {
		t.Errorf("expected nil, got %v", v)
	}
	if !db.Exists("n") {
		t.Error("stored null does not exist")
	}
	if db.Exists("other") {
		t.Error("absent key exists")
	}
}

func TestEmptyKeyAndValue(t *testing.T) {
	db := createTempDB(t, Config{})

	if _, err := db.Put("", "empty key"); err != nil {
		t.Fatalf("put empty key: %v", err)
	}
	if v, found := db.Get(""); !found || v != "empty key" {
		t.Errorf("empty key round trip: %v found=%v", v, found)
	}

	if _, err := db.Put("empty value", ""); err != nil {
		t.Fatalf("put empty value: %v", err)
	}
	if v, found := db.Get("empty value"); !found || v != "" {
		t.Errorf("empty value round trip: %q found=%v", v, found)
	}
}

func TestEnumerationCompleteness(t *testing.T) {
	db := createTempDB(t, Config{})

	want := map[string]bool{}
	for i := 0; i < 100; i++ {
		k := fmt.Sprintf("key-%d", i)
		want[k] = false
		if _, err := db.Put(k, fmt.Sprintf("value-%d", i)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	count := 0
	for k, ok := db.FirstKey(); ok; k, ok = db.NextKey(k) {
		seen, exists := want[k]
		if !exists {
			t.Fatalf("enumeration produced unknown key %q", k)
		}
		if seen {
			t.Fatalf("enumeration produced key %q twice", k)
		}
		want[k] = true
		count++
	}
	if count != len(want) {
		t.Errorf("enumerated %d of %d keys", count, len(want))
	}
}

func TestReopenPersistence(t *testing.T) {
	db := createTempDB(t, Config{})
	name := db.Path()

	if _, err := db.Put("persist", "across reopen"); err != nil {
		t.Fatalf("put: %v", err)
	}
	db.Close()

	db2, err := Open(Config{File: name})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	if v, found := db2.Get("persist"); !found || v != "across reopen" {
		t.Errorf("value lost across reopen: %v found=%v", v, found)
	}
	if db2.Type() != TypeHash {
		t.Errorf("root kind lost across reopen: %c", db2.Type())
	}
}

func TestClear(t *testing.T) {
	// sobre una base recien creada Clear debe funcionar igualmente
	db := createTempDB(t, Config{})
	if err := db.Clear(); err != nil {
		t.Fatalf("clear on fresh db: %v", err)
	}

	for i := 0; i < 20; i++ {
		if _, err := db.Put(fmt.Sprintf("k%d", i), "v"); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if err := db.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, found := db.FirstKey(); found {
		t.Error("cleared database still enumerates keys")
	}
	if _, found := db.Get("k0"); found {
		t.Error("cleared database still serves values")
	}
}

func TestCloneSharesRoot(t *testing.T) {
	db := createTempDB(t, Config{})
	c := db.Clone()
	defer c.Close()

	if _, err := db.Put("k", "v"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if v, found := c.Get("k"); !found || v != "v" {
		t.Errorf("clone does not see writes: %v found=%v", v, found)
	}
	if db.root != c.root {
		t.Error("clone has a different root")
	}
}

func TestUnsupportedValueRejected(t *testing.T) {
	db := createTempDB(t, Config{})

	_, err := db.Put("k", 42)
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
	if !errors.Is(db.Error(), ErrUnsupportedType) {
		t.Errorf("error not parked: %v", db.Error())
	}
	db.ClearError()
	if db.Error() != nil {
		t.Errorf("ClearError left %v", db.Error())
	}
}

func TestForeignHandleRejected(t *testing.T) {
	db := createTempDB(t, Config{})
	other := createTempDB(t, Config{File: "other.db"})

	_, err := db.Put("k", other)
	if !errors.Is(err, ErrTiedValue) {
		t.Errorf("expected ErrTiedValue, got %v", err)
	}
}

func TestListOpOnMapRoot(t *testing.T) {
	db := createTempDB(t, Config{})

	if _, err := db.Push("x"); !errors.Is(err, ErrWrongKind) {
		t.Errorf("expected ErrWrongKind, got %v", err)
	}
	if n := db.Length(); n != 0 {
		t.Errorf("Length on map root returned %d", n)
	}
	if !errors.Is(db.Error(), ErrWrongKind) {
		t.Errorf("error not parked: %v", db.Error())
	}
}

func TestPackSize8(t *testing.T) {
	db := createTempDB(t, Config{PackSize: 8})

	for i := 0; i < 50; i++ {
		if _, err := db.Put(fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	for i := 0; i < 50; i++ {
		if v, found := db.Get(fmt.Sprintf("k%d", i)); !found || v != fmt.Sprintf("v%d", i) {
			t.Errorf("k%d: got %v found=%v", i, v, found)
		}
	}
}
