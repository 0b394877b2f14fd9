package deepfile

import (
	"fmt"

	"DPDB/internal/platform/utils"
)

// findBucketList walks the digest trie from the handle's base tag down to
// the bucket list responsible for dig. Each step consumes one digest byte:
// the 256-slot index payload of the current tag is indexed by the byte's
// value and the slot either terminates the walk (a bucket list), descends
// (another index node), or is empty.
//
// With create set, an empty slot materializes a fresh zeroed bucket list at
// the end of the file; without it the walk reports absent (nil, nil). The
// returned tag carries refLoc and ch so a later split can re-point the
// parent slot.
func (db *DB) findBucketList(dig []byte, create bool) (*tag, error) {
	r := db.root
	w := uint64(r.packSize)

	t, err := r.loadTag(db.base)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: missing base tag at %d", ErrIndexingFailed, db.base)
	}

	ch := 0
	for t.kind != tagBucketList {
		if ch >= r.hashSize {
			return nil, fmt.Errorf("%w: index deeper than digest", ErrIndexingFailed)
		}
		num := uint64(dig[ch])
		refLoc := t.offset + num*w
		subloc := utils.UnpackUint(t.content[num*w : num*w+w])

		if subloc == 0 {
			if !create {
				return nil, nil
			}
			if err := utils.WriteAt(r.file, refLoc, utils.PackUint(r.packSize, r.end)); err != nil {
				return nil, err
			}
			nt, err := r.createTag(r.end, tagBucketList, make([]byte, r.bucketListSize()))
			if err != nil {
				return nil, err
			}
			nt.refLoc = refLoc
			nt.ch = ch
			return nt, nil
		}

		nt, err := r.loadTag(subloc)
		if err != nil {
			return nil, err
		}
		if nt == nil {
			return nil, fmt.Errorf("%w: dangling slot at %d", ErrIndexingFailed, refLoc)
		}
		nt.refLoc = refLoc
		nt.ch = ch
		t = nt
		ch++
	}
	return t, nil
}
