// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kar is an api for an lz4 backed file format.
// The archive itself is not compressed, every entry is compressed on
// its own and the index at the front records where each entry lives,
// so a single entry can be read and decompressed without touching the
// others. An Archive can be read from concurrently.
package kar

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"

	"github.com/cockroachdb/errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a kar archive")
	ErrNotFound   = errors.New("no such entry in archive")
)

// Magic starts every archive
var Magic = [MagicLength]byte{'K', 'A', 'R', '\x00'}

// Sizes relevant to the header of file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 4
	prefixLength           = MagicLength + HeaderSizeNumberLength

	// MaxHeaderSize bounds the header size a prefix may declare
	MaxHeaderSize = 16 << 20
)

// Version of the format written by Builder
const Version = 2

// IndexEntry is info for one file in the file index.
// Offset is relative to the end of the header.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the file header for kar files.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

// Entry finds an index entry by name
func (h *Header) Entry(name string) (IndexEntry, bool) {
	for _, e := range h.Index {
		if e.Name == name {
			return e, true
		}
	}
	return IndexEntry{}, false
}

func encodePrefix(headerSize int) []byte {
	prefix := make([]byte, prefixLength)
	copy(prefix, Magic[:])
	binary.LittleEndian.PutUint32(prefix[MagicLength:], uint32(headerSize))
	return prefix
}

func decodePrefix(prefix []byte) (int64, error) {
	if len(prefix) < prefixLength || !bytes.Equal(prefix[:MagicLength], Magic[:]) {
		return 0, ErrFileFormat
	}
	return int64(binary.LittleEndian.Uint32(prefix[MagicLength:])), nil
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	dec := gob.NewDecoder(bytes.NewBuffer(bts))
	return dec.Decode(obj)
}
