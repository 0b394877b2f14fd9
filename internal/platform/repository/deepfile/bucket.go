package deepfile

import (
	"bytes"
	"fmt"

	"DPDB/internal/platform/utils"
)

// StoreResult reports whether a store created a new binding or replaced an
// existing one.
type StoreResult int

const (
	StoreFailed StoreResult = iota
	Inserted
	Replaced
)

// addBucket settles the target location for the value record bound to dig
// inside blist and writes the bucket slot. Three outcomes:
//
//   - an empty slot is found: insert, the record goes at the end of the file;
//   - the digest matches a filled slot: replace, in place when the new
//     content fits inside the old record, otherwise at the end of the file;
//   - the list is full with no match: split one digest byte deeper, after
//     which the record goes at the end of the file.
//
// Same-file handles are stored as a slot pointing at the handle's own base
// tag; no value record is written for them.
func (db *DB) addBucket(blist *tag, dig, plainKey []byte, rec record) (StoreResult, error) {
	r := db.root
	w := r.packSize
	bs := r.bucketSize()

	internal := rec.ref != nil
	var location uint64
	result := StoreFailed

	i := 0
	for ; i < MaxBuckets; i++ {
		slot := blist.content[i*bs : (i+1)*bs]
		slotDig := slot[:r.hashSize]
		subloc := utils.UnpackUint(slot[r.hashSize:])

		if subloc == 0 {
			// Empty slot terminates the scan: insert here.
			if internal {
				location = rec.ref.base
			} else {
				location = r.end
			}
			entry := append(append([]byte{}, dig...), utils.PackUint(w, location)...)
			if err := utils.WriteAt(r.file, blist.offset+uint64(i*bs), entry); err != nil {
				return StoreFailed, err
			}
			result = Inserted
			break
		}

		if bytes.Equal(slotDig, dig) {
			result = Replaced
			if internal {
				location = rec.ref.base
				entry := append(append([]byte{}, dig...), utils.PackUint(w, location)...)
				if err := utils.WriteAt(r.file, blist.offset+uint64(i*bs), entry); err != nil {
					return StoreFailed, err
				}
				break
			}
			old, err := r.loadTag(subloc)
			if err != nil {
				return StoreFailed, err
			}
			if old == nil {
				return StoreFailed, fmt.Errorf("%w: dangling bucket slot", ErrIndexingFailed)
			}
			if uint64(rec.contentSize(r)) <= old.size {
				location = subloc
			} else {
				location = r.end
				off := blist.offset + uint64(i*bs+r.hashSize)
				if err := utils.WriteAt(r.file, off, utils.PackUint(w, location)); err != nil {
					return StoreFailed, err
				}
			}
			break
		}
	}

	if i == MaxBuckets {
		// Full bucket list and no digest match: re-index one byte deeper.
		newLoc := uint64(0)
		if internal {
			newLoc = rec.ref.base
		}
		if err := db.splitIndex(blist, dig, newLoc); err != nil {
			return StoreFailed, err
		}
		if internal {
			location = newLoc
		} else {
			location = r.end
		}
		result = Inserted
	}

	if !internal {
		if err := db.writeValue(location, plainKey, rec); err != nil {
			return StoreFailed, err
		}
	}
	return result, nil
}

// splitIndex replaces a full bucket list with a fresh index node one digest
// byte deeper. The parent slot that pointed at blist is re-pointed at the
// new index, then the sixteen existing entries plus the incoming one are
// redistributed into new bucket lists keyed by digest byte ch+1. The
// incoming entry (offset 0 in the synthetic list) is written with newLoc
// when nonzero, otherwise with the position its value record is about to be
// appended at.
func (db *DB) splitIndex(blist *tag, dig []byte, newLoc uint64) error {
	r := db.root
	w := r.packSize
	bs := r.bucketSize()

	if blist.ch+1 >= r.hashSize {
		return fmt.Errorf("%w: digest exhausted during split", ErrIndexingFailed)
	}

	idxOff := r.end
	if err := utils.WriteAt(r.file, blist.refLoc, utils.PackUint(w, idxOff)); err != nil {
		return err
	}
	idx, err := r.createTag(idxOff, tagIndex, make([]byte, r.indexSize()))
	if err != nil {
		return err
	}

	entries := append(append([]byte{}, blist.content...), dig...)
	entries = append(entries, utils.PackUint(w, 0)...)

	// Content offsets of the bucket lists created so far, by digest byte.
	var offsets [256]uint64

	for i := 0; i <= MaxBuckets; i++ {
		entryDig := entries[i*bs : i*bs+r.hashSize]
		oldSubloc := utils.UnpackUint(entries[i*bs+r.hashSize : (i+1)*bs])
		num := entryDig[blist.ch+1]

		if off := offsets[num]; off != 0 {
			placed := false
			sub := make([]byte, r.bucketListSize())
			if err := utils.ReadAt(r.file, off, sub); err != nil {
				return err
			}
			for k := 0; k < MaxBuckets; k++ {
				subloc := utils.UnpackUint(sub[k*bs+r.hashSize : (k+1)*bs])
				if subloc == 0 {
					entry := append(append([]byte{}, entryDig...), utils.PackUint(w, entryOffset(oldSubloc, newLoc, r.end))...)
					if err := utils.WriteAt(r.file, off+uint64(k*bs), entry); err != nil {
						return err
					}
					placed = true
					break
				}
			}
			if !placed {
				return fmt.Errorf("%w: over-full sub-bucket during split", ErrIndexingFailed)
			}
			continue
		}

		bOff := r.end
		slotPos := idx.offset + uint64(int(num)*w)
		if err := utils.WriteAt(r.file, slotPos, utils.PackUint(w, bOff)); err != nil {
			return err
		}
		bt, err := r.createTag(bOff, tagBucketList, make([]byte, r.bucketListSize()))
		if err != nil {
			return err
		}
		offsets[num] = bt.offset
		entry := append(append([]byte{}, entryDig...), utils.PackUint(w, entryOffset(oldSubloc, newLoc, r.end))...)
		if err := utils.WriteAt(r.file, bt.offset, entry); err != nil {
			return err
		}
	}
	return nil
}

// entryOffset picks the offset written into a redistributed slot: existing
// entries keep their record offset; the incoming entry gets its explicit
// location (same-file handles) or the current end of file, where its record
// is written next.
func entryOffset(oldSubloc, newLoc, end uint64) uint64 {
	if oldSubloc != 0 {
		return oldSubloc
	}
	if newLoc != 0 {
		return newLoc
	}
	return end
}

// getBucketValue scans blist for dig and materializes the value stored at
// the matching slot. The scan stops at the first empty slot.
func (db *DB) getBucketValue(blist *tag, dig []byte, fval bool) (interface{}, bool, error) {
	r := db.root
	bs := r.bucketSize()
	for i := 0; i < MaxBuckets; i++ {
		slot := blist.content[i*bs : (i+1)*bs]
		subloc := utils.UnpackUint(slot[r.hashSize:])
		if subloc == 0 {
			return nil, false, nil
		}
		if bytes.Equal(slot[:r.hashSize], dig) {
			v, err := db.readValue(subloc, fval)
			if err != nil {
				return nil, false, err
			}
			return v, true, nil
		}
	}
	return nil, false, nil
}

// bucketExists reports whether dig has a slot, without touching the value
// record. Null values exist.
func (db *DB) bucketExists(blist *tag, dig []byte) bool {
	r := db.root
	bs := r.bucketSize()
	for i := 0; i < MaxBuckets; i++ {
		slot := blist.content[i*bs : (i+1)*bs]
		if utils.UnpackUint(slot[r.hashSize:]) == 0 {
			return false
		}
		if bytes.Equal(slot[:r.hashSize], dig) {
			return true
		}
	}
	return false
}

// deleteBucket removes the slot holding dig by shifting the tail of the
// list one position left and zeroing the last slot. The value record keeps
// its bytes until the next compaction.
func (db *DB) deleteBucket(blist *tag, dig []byte) (bool, error) {
	r := db.root
	bs := r.bucketSize()
	for i := 0; i < MaxBuckets; i++ {
		slot := blist.content[i*bs : (i+1)*bs]
		subloc := utils.UnpackUint(slot[r.hashSize:])
		if subloc == 0 {
			return false, nil
		}
		if !bytes.Equal(slot[:r.hashSize], dig) {
			continue
		}
		tail := append(append([]byte{}, blist.content[(i+1)*bs:]...), make([]byte, bs)...)
		if err := utils.WriteAt(r.file, blist.offset+uint64(i*bs), tail); err != nil {
			return false, err
		}
		copy(blist.content[i*bs:], tail)
		return true, nil
	}
	return false, nil
}

// keyCursor carries enumeration state between nextKey calls: the digest of
// the previously returned key and whether the next live slot should be
// returned.
type keyCursor struct {
	prev       []byte
	returnNext bool
}

// traverseIndex walks the trie in byte-sorted slot order looking for the
// plain key that follows the cursor position. Index nodes are visited in
// digest-byte order; inside a bucket list keys come in slot order, which is
// insertion order, not digest order.
func (db *DB) traverseIndex(cur *keyCursor, off uint64, ch int) ([]byte, bool, error) {
	r := db.root
	t, err := r.loadTag(off)
	if err != nil {
		return nil, false, err
	}
	if t == nil {
		return nil, false, fmt.Errorf("%w: dangling slot during key walk", ErrIndexingFailed)
	}

	if t.kind == tagBucketList {
		bs := r.bucketSize()
		for i := 0; i < MaxBuckets; i++ {
			slot := t.content[i*bs : (i+1)*bs]
			subloc := utils.UnpackUint(slot[r.hashSize:])
			if subloc == 0 {
				break
			}
			if cur.returnNext {
				key, err := r.readPlainKey(subloc)
				if err != nil {
					return nil, false, err
				}
				return key, true, nil
			}
			if bytes.Equal(slot[:r.hashSize], cur.prev) {
				cur.returnNext = true
			}
		}
		cur.returnNext = true
		return nil, false, nil
	}

	w := r.packSize
	start := 0
	if !cur.returnNext {
		if ch >= r.hashSize {
			return nil, false, fmt.Errorf("%w: index deeper than digest", ErrIndexingFailed)
		}
		start = int(cur.prev[ch])
	}
	for i := start; i < 256; i++ {
		subloc := utils.UnpackUint(t.content[i*w : (i+1)*w])
		if subloc == 0 {
			continue
		}
		key, ok, err := db.traverseIndex(cur, subloc, ch+1)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return key, true, nil
		}
	}
	cur.returnNext = true
	return nil, false, nil
}

func (db *DB) firstKeyRaw() ([]byte, bool, error) {
	cur := &keyCursor{prev: make([]byte, db.root.hashSize), returnNext: true}
	return db.traverseIndex(cur, db.base, 0)
}

func (db *DB) nextKeyRaw(prevDig []byte) ([]byte, bool, error) {
	cur := &keyCursor{prev: prevDig}
	return db.traverseIndex(cur, db.base, 0)
}
