package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"morphsplit/internal/domain"
)

var (
	bucketMeta   = []byte("meta")
	bucketLemmas = []byte("lemmas")
	bucketForms  = []byte("forms")

	keyFormatVersion = []byte("format_version")
	keySchemaVersion = []byte("schema_version")
	keyAnalyzerPath  = []byte("analyzer_path")
	keyFingerprint   = []byte("fingerprint")
	keyBuiltAt       = []byte("built_at")
)

// batchSize bounds the number of keys written per transaction.
const batchSize = 50000

// ErrNotSnapshot is returned when a bolt file lacks the snapshot buckets.
var ErrNotSnapshot = errors.New("not a segmenter snapshot")

// BoltSnapshotStore persists model snapshots as bbolt databases.
type BoltSnapshotStore struct {
	lockTimeout time.Duration
}

// NewBoltSnapshotStore creates a snapshot store. lockTimeout bounds the wait
// for the file lock; zero means one second.
func NewBoltSnapshotStore(lockTimeout time.Duration) *BoltSnapshotStore {
	if lockTimeout <= 0 {
		lockTimeout = time.Second
	}
	return &BoltSnapshotStore{lockTimeout: lockTimeout}
}

// Save writes snap to a temporary file next to path and renames it into
// place, so path holds either a complete snapshot or its previous content.
func (s *BoltSnapshotStore) Save(path string, snap domain.Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := s.write(tmpPath, snap); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}
	return nil
}

func (s *BoltSnapshotStore) write(path string, snap domain.Snapshot) error {
	db, err := bbolt.Open(path, 0644, &bbolt.Options{Timeout: s.lockTimeout, NoSync: true})
	if err != nil {
		return fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		for _, name := range [][]byte{bucketLemmas, bucketForms} {
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		entries := map[string]string{
			string(keyFormatVersion): strconv.Itoa(CurrentFormatVersion),
			string(keySchemaVersion): strconv.Itoa(snap.SchemaVersion),
			string(keyAnalyzerPath):  snap.AnalyzerPath,
			string(keyFingerprint):   snap.Fingerprint,
			string(keyBuiltAt):       snap.BuiltAt.UTC().Format(time.RFC3339Nano),
		}
		for k, v := range entries {
			if err := meta.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		err = putBoundaries(db, bucketLemmas, snap.Lemmas)
	}
	if err == nil {
		err = putBoundaries(db, bucketForms, snap.Forms)
	}
	if err == nil {
		err = db.Sync()
	}
	if cerr := db.Close(); err == nil && cerr != nil {
		err = cerr
	}
	return err
}

// putBoundaries writes the table in batches of batchSize keys.
func putBoundaries(db *bbolt.DB, bucket []byte, table map[string][]int) error {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}

	for start := 0; start < len(keys); start += batchSize {
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		err := db.Update(func(tx *bbolt.Tx) error {
			b := tx.Bucket(bucket)
			for _, k := range keys[start:end] {
				data, err := msgpack.Marshal(table[k])
				if err != nil {
					return err
				}
				if err := b.Put([]byte(k), data); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", bucket, err)
		}
	}
	return nil
}

// open opens an existing snapshot read-only; the file is never modified.
func (s *BoltSnapshotStore) open(path string) (*bbolt.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0444, &bbolt.Options{ReadOnly: true, Timeout: s.lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	return db, nil
}

// ReadMeta reads the snapshot metadata and checks the container format.
func (s *BoltSnapshotStore) ReadMeta(path string) (domain.SnapshotMeta, error) {
	db, err := s.open(path)
	if err != nil {
		return domain.SnapshotMeta{}, err
	}
	defer db.Close()

	var meta domain.SnapshotMeta
	err = db.View(func(tx *bbolt.Tx) error {
		var err error
		meta, err = readMeta(tx)
		return err
	})
	return meta, err
}

// Load reads the whole snapshot into memory.
func (s *BoltSnapshotStore) Load(path string) (domain.Snapshot, error) {
	db, err := s.open(path)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer db.Close()

	var snap domain.Snapshot
	err = db.View(func(tx *bbolt.Tx) error {
		meta, err := readMeta(tx)
		if err != nil {
			return err
		}
		snap = domain.Snapshot{
			SchemaVersion: meta.SchemaVersion,
			AnalyzerPath:  meta.AnalyzerPath,
			Fingerprint:   meta.Fingerprint,
			BuiltAt:       meta.BuiltAt,
		}
		if snap.Lemmas, err = readBoundaries(tx, bucketLemmas); err != nil {
			return err
		}
		snap.Forms, err = readBoundaries(tx, bucketForms)
		return err
	})
	return snap, err
}

func readMeta(tx *bbolt.Tx) (domain.SnapshotMeta, error) {
	b := tx.Bucket(bucketMeta)
	if b == nil || tx.Bucket(bucketLemmas) == nil || tx.Bucket(bucketForms) == nil {
		return domain.SnapshotMeta{}, ErrNotSnapshot
	}

	if err := CheckFormat(b.Get(keyFormatVersion)); err != nil {
		return domain.SnapshotMeta{}, err
	}

	schema, err := strconv.Atoi(string(b.Get(keySchemaVersion)))
	if err != nil {
		return domain.SnapshotMeta{}, fmt.Errorf("invalid schema version: %w", err)
	}
	meta := domain.SnapshotMeta{
		SchemaVersion: schema,
		AnalyzerPath:  string(b.Get(keyAnalyzerPath)),
		Fingerprint:   string(b.Get(keyFingerprint)),
	}
	if raw := b.Get(keyBuiltAt); len(raw) > 0 {
		if meta.BuiltAt, err = time.Parse(time.RFC3339Nano, string(raw)); err != nil {
			return domain.SnapshotMeta{}, fmt.Errorf("invalid build time: %w", err)
		}
	}
	return meta, nil
}

func readBoundaries(tx *bbolt.Tx, bucket []byte) (map[string][]int, error) {
	b := tx.Bucket(bucket)
	table := make(map[string][]int, b.Stats().KeyN)
	err := b.ForEach(func(k, v []byte) error {
		var bounds []int
		if err := msgpack.Unmarshal(v, &bounds); err != nil {
			return fmt.Errorf("corrupt %s entry %q: %w", bucket, k, err)
		}
		table[string(k)] = bounds
		return nil
	})
	return table, err
}
