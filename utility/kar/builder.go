// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4"
)

// NewBuilder creates a new Builder. Do not fill the Index in
// the header, it will be overwritten anyway.
func NewBuilder(header Header) *Builder {
	header.Version = Version
	header.Index = nil
	return &Builder{header: header}
}

type pending struct {
	name       string
	size       int64
	compressed []byte
}

// Builder is the high level builder for the archive format.
// Archives cannot be appended to once written, entries are
// collected with Add and bundled together by WriteTo.
type Builder struct {
	header Header

	mutex   sync.Mutex
	entries []pending
}

// Add compresses data and stores it under name. Is safe
// to use concurrently in different goroutines. Names must be unique.
func (b *Builder) Add(name string, data []byte) error {
	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		return errors.Wrapf(err, "compress %s", name)
	}
	if err := writer.Close(); err != nil {
		return errors.Wrapf(err, "compress %s", name)
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, e := range b.entries {
		if e.name == name {
			return errors.Newf("duplicate entry %s", name)
		}
	}
	b.entries = append(b.entries, pending{
		name:       name,
		size:       int64(len(data)),
		compressed: buf.Bytes(),
	})
	return nil
}

// WriteTo bundles and writes all of the entries added to the Builder
// into a kar archive that is ready to use.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	header := b.header
	var offset int64
	for _, e := range b.entries {
		header.Index = append(header.Index, IndexEntry{
			Name:           e.name,
			Offset:         offset,
			Size:           e.size,
			CompressedSize: int64(len(e.compressed)),
		})
		offset += int64(len(e.compressed))
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, errors.Wrap(err, "encode header")
	}

	var written int64
	for _, chunk := range [][]byte{encodePrefix(len(rawHeader)), rawHeader} {
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	for _, e := range b.entries {
		n, err := w.Write(e.compressed)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
