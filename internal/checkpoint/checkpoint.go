// Package checkpoint persists named tensors for evaluation weights.
//
// The format is a small binary container: a header listing every tensor
// (name, dtype, shape), the concatenated payloads, and a trailing SHA-256
// checksum over everything before it. Loading validates the magic bytes,
// the version and the checksum before reconstructing any tensor.
package checkpoint

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/visgator-ml/visgator/internal/device"
	"github.com/visgator-ml/visgator/internal/tensor"
)

// Format constants.
const (
	version     = 1
	maxNameLen  = 1 << 10
	maxTensors  = 1 << 20
	checksumLen = sha256.Size
)

var magic = [4]byte{'V', 'G', 'C', 'P'}

// Common errors.
var (
	ErrInvalidMagic       = errors.New("checkpoint: invalid magic bytes")
	ErrUnsupportedVersion = errors.New("checkpoint: unsupported format version")
	ErrChecksumMismatch   = errors.New("checkpoint: checksum mismatch, file may be corrupted")
	ErrTensorNameTooLong  = errors.New("checkpoint: tensor name too long")
	ErrTooManyTensors     = errors.New("checkpoint: too many tensors")
)

// Save writes the named tensors to path. Entries are written in sorted
// name order so identical inputs produce identical files.
func Save(path string, tensors map[string]*tensor.RawTensor) error {
	if len(tensors) > maxTensors {
		return ErrTooManyTensors
	}

	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if len(name) > maxNameLen {
			return fmt.Errorf("%w: %q", ErrTensorNameTooLong, name[:32])
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.Write(magic[:])
	writeUint(&buf, uint64(version))
	writeUint(&buf, uint64(len(names)))

	for _, name := range names {
		t := tensors[name]
		writeUint(&buf, uint64(len(name)))
		buf.WriteString(name)
		writeUint(&buf, uint64(t.DType()))
		writeUint(&buf, uint64(t.Shape().Rank()))
		for _, dim := range t.Shape() {
			writeUint(&buf, uint64(dim))
		}
	}
	for _, name := range names {
		buf.Write(tensors[name].Bytes())
	}

	sum := sha256.Sum256(buf.Bytes())
	buf.Write(sum[:])

	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// Load reads every tensor in a checkpoint onto dev.
func Load(path string, dev device.Device) (map[string]*tensor.RawTensor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read %s: %w", path, err)
	}
	if len(data) < len(magic)+checksumLen {
		return nil, ErrInvalidMagic
	}

	body, stored := data[:len(data)-checksumLen], data[len(data)-checksumLen:]
	if sum := sha256.Sum256(body); !bytes.Equal(sum[:], stored) {
		return nil, ErrChecksumMismatch
	}

	r := bytes.NewReader(body)
	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil || gotMagic != magic {
		return nil, ErrInvalidMagic
	}

	v, err := readUint(r)
	if err != nil {
		return nil, err
	}
	if v != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	count, err := readUint(r)
	if err != nil {
		return nil, err
	}
	if count > maxTensors {
		return nil, ErrTooManyTensors
	}

	type entry struct {
		name  string
		dtype tensor.DataType
		shape tensor.Shape
	}
	entries := make([]entry, count)
	for i := range entries {
		nameLen, err := readUint(r)
		if err != nil {
			return nil, err
		}
		if nameLen > maxNameLen {
			return nil, ErrTensorNameTooLong
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, fmt.Errorf("checkpoint: truncated header: %w", err)
		}

		dtype, err := readUint(r)
		if err != nil {
			return nil, err
		}
		rank, err := readUint(r)
		if err != nil {
			return nil, err
		}
		shape := make(tensor.Shape, rank)
		for d := range shape {
			dim, err := readUint(r)
			if err != nil {
				return nil, err
			}
			shape[d] = int(dim)
		}
		entries[i] = entry{name: string(name), dtype: tensor.DataType(dtype), shape: shape}
	}

	out := make(map[string]*tensor.RawTensor, count)
	for _, e := range entries {
		t, err := tensor.NewRaw(e.shape, e.dtype, dev)
		if err != nil {
			return nil, fmt.Errorf("checkpoint: tensor %q: %w", e.name, err)
		}
		if _, err := io.ReadFull(r, t.Bytes()); err != nil {
			return nil, fmt.Errorf("checkpoint: tensor %q payload: %w", e.name, err)
		}
		out[e.name] = t
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("checkpoint: %d trailing bytes after last tensor", r.Len())
	}
	return out, nil
}

func writeUint(w io.Writer, v uint64) {
	// bytes.Buffer writes cannot fail.
	_ = binary.Write(w, binary.LittleEndian, v)
}

func readUint(r io.Reader) (uint64, error) {
	var v uint64
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("checkpoint: truncated header: %w", err)
	}
	return v, nil
}
