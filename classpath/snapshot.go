package classpath

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotSchema is bumped whenever the Document layout changes.
const snapshotSchema uint16 = 1

// snapshot is the on-disk form written by WriteSnapshot.
type snapshot struct {
	Schema    uint16      `msgpack:"schema"`
	Documents []*Document `msgpack:"documents"`
}

// ErrSnapshotSchema is returned when a snapshot was written by an
// incompatible version.
var ErrSnapshotSchema = errors.New("classpath: unsupported snapshot schema")

// WriteSnapshot encodes docs to w.
func WriteSnapshot(w io.Writer, docs []*Document) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(&snapshot{Schema: snapshotSchema, Documents: docs})
}

// ReadSnapshot decodes and validates the documents of a snapshot.
func ReadSnapshot(r io.Reader) ([]*Document, error) {
	var snap snapshot
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("classpath: decoding snapshot: %w", err)
	}
	if snap.Schema != snapshotSchema {
		return nil, fmt.Errorf("%w %d (want %d)", ErrSnapshotSchema, snap.Schema, snapshotSchema)
	}
	for _, doc := range snap.Documents {
		if doc == nil {
			return nil, errors.New("classpath: snapshot contains an empty document")
		}
		if err := doc.Validate(); err != nil {
			return nil, err
		}
	}
	return snap.Documents, nil
}

// WriteSnapshotFile writes docs to path atomically.
func WriteSnapshotFile(path string, docs []*Document) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if err = WriteSnapshot(f, docs); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadSnapshotFile reads the snapshot stored at path.
func ReadSnapshotFile(path string) ([]*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	defer f.Close()
	docs, err := ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}
