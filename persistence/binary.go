package persistence

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"
)

// Writer streams a binary section: header, primitives, compressed blocks,
// trailing CRC32. Call Finish exactly once after the payload.
type Writer struct {
	out         io.Writer
	cw          *ChecksumWriter
	bw          *bufio.Writer
	compression CompressionType
}

// NewWriter creates a section writer on top of w.
func NewWriter(w io.Writer, compression CompressionType) *Writer {
	cw := NewChecksumWriter(w)
	return &Writer{
		out:         w,
		cw:          cw,
		bw:          bufio.NewWriterSize(cw, 256*1024),
		compression: compression,
	}
}

// WriteHeader writes the section header. Must be the first write.
func (w *Writer) WriteHeader(kind Kind) error {
	hdr := sectionHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Kind:        kind,
		Compression: w.compression,
	}
	return binary.Write(w.bw, binary.LittleEndian, &hdr)
}

// WriteUint32 writes a fixed-width uint32.
func (w *Writer) WriteUint32(v uint32) error {
	return binary.Write(w.bw, binary.LittleEndian, v)
}

// WriteUint64 writes a fixed-width uint64.
func (w *Writer) WriteUint64(v uint64) error {
	return binary.Write(w.bw, binary.LittleEndian, v)
}

// WriteBytes writes a length-prefixed byte slice.
func (w *Writer) WriteBytes(p []byte) error {
	if err := w.WriteUint32(uint32(len(p))); err != nil {
		return err
	}
	_, err := w.bw.Write(p)
	return err
}

// WriteString writes a length-prefixed string.
func (w *Writer) WriteString(s string) error {
	return w.WriteBytes([]byte(s))
}

// WriteStringSlice writes a count-prefixed sequence of strings.
func (w *Writer) WriteStringSlice(values []string) error {
	if err := w.WriteUint32(uint32(len(values))); err != nil {
		return err
	}
	for _, s := range values {
		if err := w.WriteString(s); err != nil {
			return err
		}
	}
	return nil
}

// WriteBlock writes a length-prefixed, compressed payload block.
func (w *Writer) WriteBlock(data []byte) error {
	block, err := compressBlock(data, w.compression)
	if err != nil {
		return err
	}
	return w.WriteBytes(block)
}

// WriteFloat32Block writes a float32 slice as a compressed block.
func (w *Writer) WriteFloat32Block(values []float32) error {
	if err := w.WriteUint32(uint32(len(values))); err != nil {
		return err
	}
	if len(values) == 0 {
		return w.WriteBlock(nil)
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*4)
	return w.WriteBlock(raw)
}

// WriteFloat64Block writes a float64 slice as a compressed block.
func (w *Writer) WriteFloat64Block(values []float64) error {
	if err := w.WriteUint32(uint32(len(values))); err != nil {
		return err
	}
	if len(values) == 0 {
		return w.WriteBlock(nil)
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*8)
	return w.WriteBlock(raw)
}

// WriteInt64Block writes an int64 slice as a compressed block.
func (w *Writer) WriteInt64Block(values []int64) error {
	if err := w.WriteUint32(uint32(len(values))); err != nil {
		return err
	}
	if len(values) == 0 {
		return w.WriteBlock(nil)
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*8)
	return w.WriteBlock(raw)
}

// WriteBoolBlock writes a bool slice as a compressed block of bytes.
func (w *Writer) WriteBoolBlock(values []bool) error {
	if err := w.WriteUint32(uint32(len(values))); err != nil {
		return err
	}
	raw := make([]byte, len(values))
	for i, v := range values {
		if v {
			raw[i] = 1
		}
	}
	return w.WriteBlock(raw)
}

// Finish flushes buffered payload and appends the CRC32 of everything
// written so far.
func (w *Writer) Finish() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	return binary.Write(w.out, binary.LittleEndian, w.cw.Sum())
}

// Reader decodes a binary section from a fully materialized byte slice.
// The trailing CRC32 is verified on construction.
type Reader struct {
	data        []byte
	off         int
	compression CompressionType
}

// NewReader validates the checksum and returns a reader positioned at the
// section header.
func NewReader(data []byte) (*Reader, error) {
	if len(data) < 16 {
		return nil, io.ErrUnexpectedEOF
	}
	payload := data[:len(data)-4]
	want := binary.LittleEndian.Uint32(data[len(data)-4:])
	if got := CalculateChecksum(payload); got != want {
		return nil, fmt.Errorf("%w: expected 0x%08x, got 0x%08x", ErrChecksum, want, got)
	}
	return &Reader{data: payload}, nil
}

// ReadHeader reads and validates the section header against the expected
// kind. It records the compression type for subsequent block reads.
func (r *Reader) ReadHeader(expect Kind) error {
	var hdr sectionHeader
	size := binary.Size(&hdr)
	if r.off+size > len(r.data) {
		return io.ErrUnexpectedEOF
	}
	if err := binary.Read(bytes.NewReader(r.data[r.off:r.off+size]), binary.LittleEndian, &hdr); err != nil {
		return err
	}
	r.off += size

	if hdr.Magic != MagicNumber {
		return fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, hdr.Magic)
	}
	if hdr.Version != Version {
		return fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, hdr.Version)
	}
	if hdr.Kind != expect {
		return fmt.Errorf("%w: got %d, expected %d", ErrInvalidKind, hdr.Kind, expect)
	}
	r.compression = hdr.Compression
	return nil
}

// ReadUint32 reads a fixed-width uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	if r.off+4 > len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

// ReadUint64 reads a fixed-width uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	if r.off+8 > len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

// ReadBytes reads a length-prefixed byte slice. The result aliases the
// reader's buffer.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if r.off+int(n) > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	out := r.data[r.off : r.off+int(n)]
	r.off += int(n)
	return out, nil
}

// ReadString reads a length-prefixed string.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadStringSlice reads a count-prefixed sequence of strings.
func (r *Reader) ReadStringSlice() ([]string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		if out[i], err = r.ReadString(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadBlock reads and decompresses a payload block.
func (r *Reader) ReadBlock() ([]byte, error) {
	block, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}
	return decompressBlock(block, r.compression)
}

// ReadFloat32Block reads a block written by WriteFloat32Block.
func (r *Reader) ReadFloat32Block() ([]float32, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	raw, err := r.ReadBlock()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if len(raw) != int(n)*4 {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]float32, n)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(raw)), raw)
	return out, nil
}

// ReadFloat64Block reads a block written by WriteFloat64Block.
func (r *Reader) ReadFloat64Block() ([]float64, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	raw, err := r.ReadBlock()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if len(raw) != int(n)*8 {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]float64, n)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(raw)), raw)
	return out, nil
}

// ReadInt64Block reads a block written by WriteInt64Block.
func (r *Reader) ReadInt64Block() ([]int64, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	raw, err := r.ReadBlock()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if len(raw) != int(n)*8 {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]int64, n)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(raw)), raw)
	return out, nil
}

// ReadBoolBlock reads a block written by WriteBoolBlock.
func (r *Reader) ReadBoolBlock() ([]bool, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	raw, err := r.ReadBlock()
	if err != nil {
		return nil, err
	}
	if len(raw) != int(n) {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]bool, n)
	for i, b := range raw {
		out[i] = b != 0
	}
	return out, nil
}
