// Package persistence provides the binary section format used inside mudgo
// container files: a small magic/version header, fixed-width primitives,
// length-prefixed strings, and compressed payload blocks, all covered by a
// trailing CRC32.
package persistence

import "errors"

const (
	// MagicNumber identifies mudgo binary sections (ASCII: "MUD1").
	MagicNumber = 0x4d554431
	// Version is the current section format version.
	Version = 0x00010000
)

// Kind identifies what a binary section encodes.
type Kind uint16

const (
	// KindIndex is a global axis index (ordered string list).
	KindIndex Kind = 1
	// KindMembership is a per-axis membership matrix.
	KindMembership Kind = 2
	// KindAnnot is an annotation frame (table + matrices).
	KindAnnot Kind = 3
	// KindDense is a dense modality payload.
	KindDense Kind = 4
	// KindMeta is a modality's eager metadata (names and shape).
	KindMeta Kind = 5
)

var (
	// ErrInvalidMagic is returned when a section does not start with MagicNumber.
	ErrInvalidMagic = errors.New("invalid magic number")
	// ErrInvalidVersion is returned for unsupported format versions.
	ErrInvalidVersion = errors.New("unsupported version")
	// ErrInvalidKind is returned when a section encodes something else than expected.
	ErrInvalidKind = errors.New("unexpected section kind")
	// ErrChecksum is returned when the trailing CRC32 does not match.
	ErrChecksum = errors.New("checksum mismatch")
)

// CompressionType defines the block compression algorithm.
type CompressionType uint8

const (
	// CompressionNone stores blocks uncompressed.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses ZSTD block compression (better ratio).
	CompressionZSTD CompressionType = 2
)

// String returns the stable name of the compression type.
func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

// sectionHeader is the 12-byte header at the start of every section.
type sectionHeader struct {
	Magic       uint32
	Version     uint32
	Kind        Kind
	Compression CompressionType
	Reserved    uint8
}
