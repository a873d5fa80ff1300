// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"golang.org/x/exp/mmap"

	"github.com/devblok/vkctx/utility/kar"
)

var entries = map[string][]byte{
	"profile":    []byte(`{"name":"test"}`),
	"device/000": []byte(strings.Repeat("discrete ", 200)),
	"device/001": {},
}

func build(c *qt.C) []byte {
	builder := kar.NewBuilder(kar.Header{
		Author:      "koru",
		DateCreated: time.Date(2019, 9, 1, 0, 0, 0, 0, time.UTC).Unix(),
	})
	for _, name := range []string{"profile", "device/000", "device/001"} {
		c.Assert(builder.Add(name, entries[name]), qt.IsNil)
	}

	var buf bytes.Buffer
	n, err := builder.WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, int64(buf.Len()))
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	c := qt.New(t)
	data := build(c)

	archive, err := kar.Open(bytes.NewReader(data))
	c.Assert(err, qt.IsNil)
	c.Assert(archive.Names(), qt.DeepEquals, []string{"profile", "device/000", "device/001"})
	c.Assert(archive.Header().Author, qt.Equals, "koru")
	c.Assert(archive.Header().Version, qt.Equals, int64(kar.Version))

	for name, want := range entries {
		got, err := archive.ReadAll(name)
		c.Assert(err, qt.IsNil, qt.Commentf("%s", name))
		c.Assert(got, qt.DeepEquals, want, qt.Commentf("%s", name))
	}
}

func TestCompression(t *testing.T) {
	c := qt.New(t)
	archive, err := kar.Open(bytes.NewReader(build(c)))
	c.Assert(err, qt.IsNil)

	r, err := archive.Open("device/000")
	c.Assert(err, qt.IsNil)
	c.Assert(r.Entry().Size, qt.Equals, int64(len(entries["device/000"])))
	c.Assert(r.Entry().CompressedSize < r.Entry().Size, qt.IsTrue)
}

func TestOpenMissingEntry(t *testing.T) {
	c := qt.New(t)
	archive, err := kar.Open(bytes.NewReader(build(c)))
	c.Assert(err, qt.IsNil)

	_, err = archive.ReadAll("device/002")
	c.Assert(errors.Is(err, kar.ErrNotFound), qt.IsTrue)
}

func TestOpenNotAnArchive(t *testing.T) {
	c := qt.New(t)

	_, err := kar.Open(strings.NewReader("TAR\x00\x01\x00\x00\x00x"))
	c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue)

	_, err = kar.Open(strings.NewReader("KA"))
	c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue)

	data := build(c)
	_, err = kar.Open(bytes.NewReader(data[:12]))
	c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue)
}

func TestOpenOversizedHeader(t *testing.T) {
	c := qt.New(t)

	_, err := kar.Open(strings.NewReader("KAR\x00\xff\xff\xff\xffgarbage"))
	c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "header size 4294967295 exceeds 7")

	data := build(c)
	data[4], data[5], data[6] = 0xff, 0xff, 0x00
	_, err = kar.Open(bytes.NewReader(data))
	c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "header size 65535 exceeds .*")
}

func TestDuplicateEntry(t *testing.T) {
	c := qt.New(t)
	builder := kar.NewBuilder(kar.Header{})
	c.Assert(builder.Add("a", []byte("1")), qt.IsNil)
	c.Assert(builder.Add("a", []byte("2")), qt.ErrorMatches, "duplicate entry a")
}

func TestOpenMmap(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(c.TempDir(), "test.kar")
	c.Assert(ioutil.WriteFile(path, build(c), 0644), qt.IsNil)

	r, err := mmap.Open(path)
	c.Assert(err, qt.IsNil)
	defer r.Close()

	archive, err := kar.Open(r)
	c.Assert(err, qt.IsNil)
	c.Assert(archive.Header().Author, qt.Equals, "koru")
	data, err := archive.ReadAll("device/000")
	c.Assert(err, qt.IsNil)
	c.Assert(data, qt.DeepEquals, entries["device/000"])
}

func BenchmarkReadAll(b *testing.B) {
	builder := kar.NewBuilder(kar.Header{})
	builder.Add("blob", bytes.Repeat([]byte("koru"), 1<<14))
	var buf bytes.Buffer
	builder.WriteTo(&buf)
	archive, err := kar.Open(bytes.NewReader(buf.Bytes()))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for idx := 0; idx < b.N; idx++ {
		archive.ReadAll("blob")
	}
}
