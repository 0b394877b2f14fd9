package deepfile

import (
	"fmt"
	"os"
)

// Optimize rewrites every live binding into a fresh file and renames it
// over the original, reclaiming the dead space left behind by deletes and
// grown replaces. It refuses to run while any other handle points into the
// file. The copy goes through the public insert path of the temporary
// database, unfiltered, so live bindings survive byte-for-byte.
func (db *DB) Optimize() error {
	r := db.root
	if r.readOnly {
		return r.park(ErrReadOnly)
	}
	if r.handles > 1 {
		return r.park(ErrOptimizeBusy)
	}

	tmpPath := r.path + ".tmp"
	tmp, err := Open(Config{
		File:      tmpPath,
		Type:      r.kind,
		PackSize:  r.packSize,
		Digest:    r.digest,
		HashSize:  r.hashSize,
		Autoflush: r.autoflush,
	})
	if err != nil {
		return r.park(err)
	}

	if err := db.Lock(LockExclusive); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return r.park(err)
	}

	if err := copyNode(db, tmp); err != nil {
		db.Unlock()
		tmp.Close()
		os.Remove(tmpPath)
		return r.park(err)
	}
	if err := tmp.root.file.Sync(); err != nil {
		db.Unlock()
		tmp.Close()
		os.Remove(tmpPath)
		return r.park(err)
	}
	tmp.Close()

	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		db.Unlock()
		return r.park(fmt.Errorf("%w: %v", ErrOptimizeRename, err))
	}

	// Closing the old file releases the lock; blocked writers wake up,
	// notice the inode changed and reopen the compacted file.
	r.file.Close()
	f, err := os.OpenFile(r.path, r.openFlags, 0644)
	if err != nil {
		r.lockDepth = 0
		return r.park(fmt.Errorf("%w: %v", ErrCannotOpen, err))
	}
	r.file = f
	r.lockDepth = 0
	if err := r.refreshEnd(); err != nil {
		return r.park(err)
	}
	r.debugf("optimized %s end=%d", r.path, r.end)
	return nil
}

type copyJob struct {
	src, dst *DB
	owned    bool
}

// copyNode copies one composite tree into another database over an
// explicit worklist. Both sides run unfiltered and lists are copied as the
// maps they really are, packed index keys and "length" entry included.
func copyNode(src, dst *DB) error {
	work := []copyJob{{src, dst, false}}
	for len(work) > 0 {
		j := work[len(work)-1]
		work = work[:len(work)-1]

		key, ok, err := j.src.firstKeyRaw()
		for ; ok; key, ok, err = j.src.nextKeyRaw(j.src.root.digestOf(key)) {
			if err != nil {
				return err
			}
			v, found, ferr := j.src.fetch(key, false, false)
			if ferr != nil {
				return ferr
			}
			if !found {
				continue
			}
			if child, isdb := v.(*DB); isdb {
				if _, serr := j.dst.store(key, emptyOfKind(child.kind), false, false); serr != nil {
					return serr
				}
				dv, dfound, derr := j.dst.fetch(key, false, false)
				if derr != nil {
					return derr
				}
				dchild, isdst := dv.(*DB)
				if !dfound || !isdst {
					return fmt.Errorf("%w: copied composite not found", ErrIndexingFailed)
				}
				work = append(work, copyJob{child, dchild, true})
				continue
			}
			if _, serr := j.dst.store(key, v, false, false); serr != nil {
				return serr
			}
		}
		if err != nil {
			return err
		}
		if j.owned {
			j.src.release()
			j.dst.release()
		}
	}
	return nil
}

func emptyOfKind(kind byte) interface{} {
	if kind == TypeArray {
		return []interface{}{}
	}
	return map[string]interface{}{}
}
