package deepfile

import (
	"errors"
	"log"
)

var (
	// ErrSignatureMismatch means the file does not start with "DPDB".
	ErrSignatureMismatch = errors.New("deepfile: file signature mismatch")

	// ErrCannotOpen wraps failures to open or create the database file.
	ErrCannotOpen = errors.New("deepfile: cannot open file")

	// ErrIndexingFailed means a split produced an over-full sub-bucket.
	// The file is considered corrupted.
	ErrIndexingFailed = errors.New("deepfile: internal indexing failed, file may be corrupted")

	// ErrWrongKind means a list-only operation was called on a map root or
	// an import tree does not match the handle's kind.
	ErrWrongKind = errors.New("deepfile: operation does not match database kind")

	// ErrNonCreatableSubscript means a negative list index resolved below
	// zero on a write.
	ErrNonCreatableSubscript = errors.New("deepfile: cannot create list element at negative index")

	// ErrTiedValue means the value is a handle bound to a different file.
	ErrTiedValue = errors.New("deepfile: cannot store a handle bound to another file")

	// ErrUnsupportedType means the value is not a scalar, nil, map, list or
	// same-file handle.
	ErrUnsupportedType = errors.New("deepfile: unsupported value type")

	// ErrOptimizeBusy means more than one handle points into the file.
	ErrOptimizeBusy = errors.New("deepfile: optimize requires a single open handle")

	// ErrOptimizeRename means the compacted file could not replace the
	// original.
	ErrOptimizeRename = errors.New("deepfile: optimize could not rename compacted file")

	// ErrReadOnly means a write was attempted on a read-only handle.
	ErrReadOnly = errors.New("deepfile: database is read-only")
)

// park stores err as the root's last error so Error() can retrieve it, and
// returns it unchanged.
func (r *root) park(err error) error {
	if err == nil {
		return nil
	}
	r.lastErr = err
	if r.debug {
		log.Printf("deepfile: %s: %v", r.path, err)
	}
	return err
}

func (r *root) debugf(format string, args ...interface{}) {
	if r.debug {
		log.Printf("deepfile: "+format, args...)
	}
}
