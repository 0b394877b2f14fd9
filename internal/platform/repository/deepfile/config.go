package deepfile

import "crypto/md5"

// Tag kinds used on disk. TypeHash and TypeArray double as the database
// types selectable at open time.
const (
	TypeHash  byte = 'H'
	TypeArray byte = 'A'

	tagIndex      byte = 'I'
	tagBucketList byte = 'B'
	tagData       byte = 'D'
	tagNull       byte = 'N'
)

// Signature is the 4-byte marker every database file starts with.
const Signature = "DPDB"

// MaxBuckets is the fixed capacity of a bucket list. Lowering it below 16
// removes the probabilistic safety margin of the one-byte split and is not
// supported.
const MaxBuckets = 16

const (
	defaultPackSize = 4
	defaultHashSize = md5.Size
)

// Filter transforms key or value bytes on their way in or out of the file.
type Filter func([]byte) []byte

// Config carries the per-open parameters of a database file. A file's
// PackSize, Digest and HashSize are fixed when the file is first created and
// must be passed identically on every subsequent open of that file.
type Config struct {
	// File is the path of the database file.
	File string

	// Type selects TypeHash or TypeArray for the root. Only honored when
	// the file does not exist yet; an existing file keeps its root type.
	Type byte

	// ReadOnly opens the file without write access.
	ReadOnly bool

	// Locking enables advisory flock-based shared/exclusive locking around
	// every operation, making the file safe to share between processes.
	Locking bool

	// Autoflush fsyncs the file after every write operation.
	Autoflush bool

	// Volatile re-stats the file on every operation to pick up appends made
	// by other processes, without taking OS locks.
	Volatile bool

	// Debug logs every parked error and dumps rejected values.
	Debug bool

	// PackSize is the width in bytes of every offset and length on disk,
	// 4 (default, 4 GiB max file) or 8.
	PackSize int

	// Digest hashes raw key bytes; defaults to MD5. HashSize is the fixed
	// width of its output (default 16).
	Digest   func([]byte) []byte
	HashSize int

	// Optional process-local transform callbacks. Applied to map keys and
	// scalar values only; list index keys and the reserved list "length"
	// entry are never filtered. Not persisted.
	FilterStoreKey   Filter
	FilterStoreValue Filter
	FilterFetchKey   Filter
	FilterFetchValue Filter
}

func (cfg *Config) withDefaults() Config {
	c := *cfg
	if c.Type == 0 {
		c.Type = TypeHash
	}
	if c.PackSize == 0 {
		c.PackSize = defaultPackSize
	}
	if c.Digest == nil {
		c.Digest = func(b []byte) []byte {
			sum := md5.Sum(b)
			return sum[:]
		}
		if c.HashSize == 0 {
			c.HashSize = defaultHashSize
		}
	}
	if c.HashSize == 0 {
		c.HashSize = defaultHashSize
	}
	return c
}
