// Package snapshot serializes weighted point sets to a compact binary
// format with optional compression and checksum verification.
//
// Layout:
//
//	magic    uint32  "CST1"
//	version  uint32
//	compress uint8
//	codecLen uint16, codec name
//	headLen  uint32, header (codec-encoded)
//	payload  representatives as float32, then weights as float64
//	checksum uint32  CRC32 (IEEE) of everything above
//
// All integers and floats are little-endian. The payload is compressed
// as a whole according to the compress byte.
package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/hupe1980/coreset/blobstore"
	"github.com/hupe1980/coreset/codec"
)

const (
	// Magic identifies coreset snapshot blobs (ASCII "CST1").
	Magic = 0x43535431
	// Version is the current snapshot format version.
	Version = 1
)

var (
	// ErrInvalidMagic is returned when the blob does not start with the
	// snapshot magic number.
	ErrInvalidMagic = errors.New("invalid magic number")
	// ErrUnsupportedVersion is returned for snapshots written by a newer
	// format version.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	// ErrChecksumMismatch is returned when the stored checksum does not
	// match the blob contents.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrCorrupted is returned when the blob is structurally invalid.
	ErrCorrupted = errors.New("corrupted snapshot")
)

// header carries the payload geometry. Encoded with a named codec so the
// format can evolve without bumping the binary version.
type header struct {
	Count       uint64  `json:"count"`
	Dimension   uint32  `json:"dimension"`
	TotalWeight float64 `json:"total_weight"`
}

// Options configures snapshot encoding.
type Options struct {
	// Compression applied to the payload. Defaults to Zstd.
	Compression Compression

	// Codec used for the header. Defaults to codec.Default.
	Codec codec.Codec
}

// DefaultOptions returns the default encoding options.
func DefaultOptions() Options {
	return Options{
		Compression: CompressionZstd,
		Codec:       codec.Default,
	}
}

// Marshal encodes the weighted points into a snapshot blob.
// Every point must have the same dimension, and len(points) must equal
// len(weights).
func Marshal(points [][]float32, weights []float64, optFns ...func(o *Options)) ([]byte, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if len(points) != len(weights) {
		return nil, fmt.Errorf("%w: %d points but %d weights", ErrCorrupted, len(points), len(weights))
	}

	dim := 0
	if len(points) > 0 {
		dim = len(points[0])
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}

	head, err := opts.Codec.Marshal(header{
		Count:       uint64(len(points)),
		Dimension:   uint32(dim),
		TotalWeight: total,
	})
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}

	payload := make([]byte, 0, len(points)*dim*4+len(weights)*8)
	var scratch [8]byte
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("%w: point %d has dimension %d, want %d", ErrCorrupted, i, len(p), dim)
		}
		for _, v := range p {
			binary.LittleEndian.PutUint32(scratch[:4], math.Float32bits(v))
			payload = append(payload, scratch[:4]...)
		}
	}
	for _, w := range weights {
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(w))
		payload = append(payload, scratch[:]...)
	}

	payload, err = compress(opts.Compression, payload)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writeUint32(&buf, Magic)
	writeUint32(&buf, Version)
	buf.WriteByte(byte(opts.Compression))
	writeUint16(&buf, uint16(len(opts.Codec.Name())))
	buf.WriteString(opts.Codec.Name())
	writeUint32(&buf, uint32(len(head)))
	buf.Write(head)
	buf.Write(payload)

	writeUint32(&buf, crc32.ChecksumIEEE(buf.Bytes()))

	return buf.Bytes(), nil
}

// Unmarshal decodes a snapshot blob back into weighted points.
func Unmarshal(data []byte) ([][]float32, []float64, error) {
	if len(data) < 4+4+1+2+4+4 {
		return nil, nil, fmt.Errorf("%w: blob too short", ErrCorrupted)
	}

	body, sum := data[:len(data)-4], binary.LittleEndian.Uint32(data[len(data)-4:])
	if crc32.ChecksumIEEE(body) != sum {
		return nil, nil, ErrChecksumMismatch
	}

	r := bytes.NewReader(body)

	if magic, err := readUint32(r); err != nil || magic != Magic {
		return nil, nil, ErrInvalidMagic
	}
	version, err := readUint32(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: truncated version", ErrCorrupted)
	}
	if version > Version {
		return nil, nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, version)
	}

	compByte, err := r.ReadByte()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: truncated compression flag", ErrCorrupted)
	}
	compression := Compression(compByte)

	codecLen, err := readUint16(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: truncated codec name", ErrCorrupted)
	}
	codecName := make([]byte, codecLen)
	if _, err := io.ReadFull(r, codecName); err != nil {
		return nil, nil, fmt.Errorf("%w: truncated codec name", ErrCorrupted)
	}
	c, ok := codec.ByName(string(codecName))
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown codec %q", ErrCorrupted, codecName)
	}

	headLen, err := readUint32(r)
	if err != nil || int(headLen) > r.Len() {
		return nil, nil, fmt.Errorf("%w: truncated header", ErrCorrupted)
	}
	head := make([]byte, headLen)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, nil, fmt.Errorf("%w: truncated header", ErrCorrupted)
	}

	var h header
	if err := c.Unmarshal(head, &h); err != nil {
		return nil, nil, fmt.Errorf("decode header: %w", err)
	}

	payload := make([]byte, r.Len())
	if _, err := io.ReadFull(r, payload); err != nil && len(payload) > 0 {
		return nil, nil, fmt.Errorf("%w: truncated payload", ErrCorrupted)
	}
	payload, err = decompress(compression, payload)
	if err != nil {
		return nil, nil, err
	}

	want := int(h.Count)*int(h.Dimension)*4 + int(h.Count)*8
	if len(payload) != want {
		return nil, nil, fmt.Errorf("%w: payload size %d, want %d", ErrCorrupted, len(payload), want)
	}

	points := make([][]float32, h.Count)
	off := 0
	for i := range points {
		p := make([]float32, h.Dimension)
		for j := range p {
			p[j] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off:]))
			off += 4
		}
		points[i] = p
	}
	weights := make([]float64, h.Count)
	for i := range weights {
		weights[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[off:]))
		off += 8
	}

	return points, weights, nil
}

// Save encodes the weighted points and writes the blob to the store.
func Save(ctx context.Context, store blobstore.Store, name string, points [][]float32, weights []float64, optFns ...func(o *Options)) error {
	data, err := Marshal(points, weights, optFns...)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

// Load reads a snapshot blob from the store and decodes it.
func Load(ctx context.Context, store blobstore.Store, name string) ([][]float32, []float64, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	return Unmarshal(data)
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readUint16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
