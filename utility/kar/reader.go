// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"io"
	"io/ioutil"

	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4"
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	prefix := make([]byte, prefixLength)
	if _, err := r.ReadAt(prefix, 0); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read prefix"), ErrFileFormat)
	}
	headerSize, err := decodePrefix(prefix)
	if err != nil {
		return nil, err
	}
	if limit := headerLimit(r); headerSize > limit {
		return nil, errors.Mark(errors.Newf("header size %d exceeds %d", headerSize, limit), ErrFileFormat)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := r.ReadAt(headerBytes, prefixLength); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read header"), ErrFileFormat)
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode header"), ErrFileFormat)
	}

	return &Archive{
		reader:     r,
		header:     header,
		dataOffset: prefixLength + headerSize,
	}, nil
}

// headerLimit is the largest header r can hold
func headerLimit(r io.ReaderAt) int64 {
	limit := int64(MaxHeaderSize)
	var size int64 = -1
	switch sized := r.(type) {
	case interface{ Size() int64 }:
		size = sized.Size()
	case interface{ Len() int }:
		size = int64(sized.Len())
	}
	if size >= 0 && size-prefixLength < limit {
		limit = size - prefixLength
	}
	return limit
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader     io.ReaderAt
	header     Header
	dataOffset int64
}

// Header returns the archive header including the index
func (a *Archive) Header() Header {
	return a.header
}

// Names lists entries in the order they were added
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.header.Index))
	for _, e := range a.header.Index {
		names = append(names, e.Name)
	}
	return names
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress %s", name)
	}
	if int64(len(data)) != r.entry.Size {
		return nil, errors.Mark(errors.Newf("%s: expected %d bytes, got %d", name, r.entry.Size, len(data)), ErrFileFormat)
	}
	return data, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.header.Entry(name)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s", name)
	}
	section := io.NewSectionReader(a.reader, a.dataOffset+entry.Offset, entry.CompressedSize)
	return &Reader{
		entry:  entry,
		reader: lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry  IndexEntry
	reader io.Reader
}

// Entry returns the index entry being read
func (r *Reader) Entry() IndexEntry {
	return r.entry
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.reader.Read(p)
}
