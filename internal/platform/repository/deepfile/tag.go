package deepfile

import (
	"fmt"

	"DPDB/internal/platform/utils"
)

// tag is the universal framing record: one kind byte, a packSize-wide
// big-endian content length, then the content itself. offset is the absolute
// position of the content, not of the kind byte.
type tag struct {
	kind    byte
	size    uint64
	offset  uint64
	content []byte

	// refLoc is the absolute position of the slot in the parent index node
	// that points at this tag; ch is the digest byte depth that slot was
	// selected by. Both are filled in during trie walks and consumed by the
	// split algorithm.
	refLoc uint64
	ch     int
}

// createTag writes kind || packed length || content at off. Appends at the
// end of the file advance the end marker.
func (r *root) createTag(off uint64, kind byte, content []byte) (*tag, error) {
	w := r.packSize
	buf := make([]byte, 0, 1+w+len(content))
	buf = append(buf, kind)
	buf = append(buf, utils.PackUint(w, uint64(len(content)))...)
	buf = append(buf, content...)
	if err := utils.WriteAt(r.file, off, buf); err != nil {
		return nil, err
	}
	if off == r.end {
		r.end += uint64(len(buf))
	}
	return &tag{
		kind:    kind,
		size:    uint64(len(content)),
		offset:  off + 1 + uint64(w),
		content: content,
	}, nil
}

// loadTag reads the tag at off. Offsets at or past the end of the file load
// as absent (nil, nil).
func (r *root) loadTag(off uint64) (*tag, error) {
	if off >= r.end {
		return nil, nil
	}
	w := r.packSize
	hdr := make([]byte, 1+w)
	if err := utils.ReadAt(r.file, off, hdr); err != nil {
		return nil, err
	}
	size := utils.UnpackUint(hdr[1:])
	content := make([]byte, size)
	if size > 0 {
		if err := utils.ReadAt(r.file, off+1+uint64(w), content); err != nil {
			return nil, err
		}
	}
	return &tag{
		kind:    hdr[0],
		size:    size,
		offset:  off + 1 + uint64(w),
		content: content,
	}, nil
}

// readPlainKey reads the plain-key trailer stored after the value record at
// off without loading the value content.
func (r *root) readPlainKey(off uint64) ([]byte, error) {
	w := uint64(r.packSize)
	hdr := make([]byte, 1+r.packSize)
	if err := utils.ReadAt(r.file, off, hdr); err != nil {
		return nil, err
	}
	size := utils.UnpackUint(hdr[1:])

	lenBuf := make([]byte, r.packSize)
	if err := utils.ReadAt(r.file, off+1+w+size, lenBuf); err != nil {
		return nil, err
	}
	keyLen := utils.UnpackUint(lenBuf)
	key := make([]byte, keyLen)
	if keyLen > 0 {
		if err := utils.ReadAt(r.file, off+1+w+size+w, key); err != nil {
			return nil, err
		}
	}
	return key, nil
}

// setup initializes a fresh file (signature plus empty root index) or
// validates an existing one and recovers its root kind.
func (r *root) setup(requested byte) error {
	st, err := r.file.Stat()
	if err != nil {
		return err
	}
	if st.Size() == 0 {
		if r.readOnly {
			return fmt.Errorf("%w: %s is empty", ErrCannotOpen, r.path)
		}
		if err := utils.WriteAt(r.file, 0, []byte(Signature)); err != nil {
			return err
		}
		r.end = uint64(len(Signature))
		if _, err := r.createTag(r.end, requested, make([]byte, r.indexSize())); err != nil {
			return err
		}
		r.kind = requested
		return r.flush()
	}

	sig := make([]byte, len(Signature))
	if err := utils.ReadAt(r.file, 0, sig); err != nil {
		return err
	}
	if string(sig) != Signature {
		return ErrSignatureMismatch
	}
	r.end = uint64(st.Size())
	t, err := r.loadTag(uint64(len(Signature)))
	if err != nil {
		return err
	}
	if t == nil || (t.kind != TypeHash && t.kind != TypeArray) {
		return fmt.Errorf("%w: bad root tag", ErrSignatureMismatch)
	}
	r.kind = t.kind
	return nil
}
