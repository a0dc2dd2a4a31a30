package rag

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Snapshot file layout:
//
//	[4]byte  magic "RAGS"
//	uint16   format version (big endian)
//	uint32   CRC32 (IEEE) of the payload
//	[]byte   payload: zstd stream of a gob-encoded Snapshot
const (
	snapshotMagic      = "RAGS"
	snapshotVersion    = 1
	snapshotHeaderSize = 4 + 2 + 4
)

var (
	errBadMagic    = errors.New("not a snapshot file")
	errBadChecksum = errors.New("snapshot checksum mismatch")
)

func encodeSnapshot(snap *Snapshot) ([]byte, error) {
	var payload bytes.Buffer
	enc, err := zstd.NewWriter(&payload, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	if err := gob.NewEncoder(enc).Encode(snap); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flush zstd writer: %w", err)
	}

	out := make([]byte, snapshotHeaderSize, snapshotHeaderSize+payload.Len())
	copy(out, snapshotMagic)
	binary.BigEndian.PutUint16(out[4:6], snapshotVersion)
	binary.BigEndian.PutUint32(out[6:10], crc32.ChecksumIEEE(payload.Bytes()))
	return append(out, payload.Bytes()...), nil
}

func decodeSnapshot(data []byte) (*Snapshot, error) {
	if len(data) < snapshotHeaderSize || string(data[:4]) != snapshotMagic {
		return nil, errBadMagic
	}
	if v := binary.BigEndian.Uint16(data[4:6]); v != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d (expected %d)", v, snapshotVersion)
	}
	payload := data[snapshotHeaderSize:]
	if crc32.ChecksumIEEE(payload) != binary.BigEndian.Uint32(data[6:10]) {
		return nil, errBadChecksum
	}

	dec, err := zstd.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()

	var snap Snapshot
	if err := gob.NewDecoder(dec).Decode(&snap); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	if err := snap.validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Snapshot) validate() error {
	n := len(s.Texts)
	if len(s.Embeddings) != n || len(s.Metadata) != n {
		return fmt.Errorf("%w: %d embeddings, %d texts, %d metadata", ErrLengthMismatch, len(s.Embeddings), n, len(s.Metadata))
	}
	for i, v := range s.Embeddings {
		if len(v) != s.Dimension {
			return fmt.Errorf("%w: embedding %d has %d entries, snapshot dimension is %d", ErrDimensionMismatch, i, len(v), s.Dimension)
		}
	}
	return nil
}

// writeSnapshot persists snap at path. The bytes go to a temporary file in the
// same directory which is then renamed over path, so readers see either the
// previous snapshot or the new one.
func writeSnapshot(path string, snap *Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return &PersistenceError{Op: "encode", Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &PersistenceError{Op: "rename", Path: path, Err: err}
	}

	syncDir(dir)
	return nil
}

// readSnapshot returns (nil, nil) when no snapshot exists at path.
func readSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &PersistenceError{Op: "read", Path: path, Err: err}
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return nil, &PersistenceError{Op: "decode", Path: path, Err: err}
	}
	return snap, nil
}

// syncDir flushes a rename to disk. Some platforms cannot fsync directories,
// so failures are ignored.
func syncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = f.Sync()
	_ = f.Close()
}
