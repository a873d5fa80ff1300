// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/vkctx/core"
)

func TestParseVersion(t *testing.T) {
	c := qt.New(t)

	v, err := core.ParseVersion("1.0.0")
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint32(0<<29|1<<22|0<<12|0))

	v, err = core.ParseVersion("1.2.3")
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint32(0<<29|1<<22|2<<12|3))
}

func TestParseVersionMatchesPacking(t *testing.T) {
	c := qt.New(t)
	for _, major := range []uint32{0, 1, 2, 127} {
		for _, minor := range []uint32{0, 1, 3, 1023} {
			for _, patch := range []uint32{0, 7, 131, 4095} {
				s := core.VersionString(core.MakeVersion(0, major, minor, patch))
				v, err := core.ParseVersion(s)
				c.Assert(err, qt.IsNil, qt.Commentf("version %s", s))
				c.Assert(v, qt.Equals, core.MakeVersion(0, major, minor, patch))
				c.Assert(core.VersionMajor(v), qt.Equals, major)
				c.Assert(core.VersionMinor(v), qt.Equals, minor)
				c.Assert(core.VersionPatch(v), qt.Equals, patch)
			}
		}
	}
}

func TestParseVersionErrors(t *testing.T) {
	for _, input := range []string{"", "1", "1.0", "1.0.0.0", "a.b.c", "1.-1.0", "1..0", "1.0.x"} {
		t.Run(input, func(t *testing.T) {
			c := qt.New(t)
			_, err := core.ParseVersion(input)
			c.Assert(err, qt.IsNotNil)
			c.Assert(errors.Is(err, core.ErrConfiguration), qt.IsTrue)

			var perr *core.ParseError
			c.Assert(errors.As(err, &perr), qt.IsTrue)
			c.Assert(perr.Input, qt.Equals, input)
		})
	}
}

func TestMakeVersionVariant(t *testing.T) {
	c := qt.New(t)
	v := core.MakeVersion(1, 1, 3, 0)
	c.Assert(core.VersionVariant(v), qt.Equals, uint32(1))
	c.Assert(core.VersionString(v), qt.Equals, "1.3.0")
}

func TestNativeString(t *testing.T) {
	c := qt.New(t)

	buf, err := core.NativeString("VK_KHR_surface")
	c.Assert(err, qt.IsNil)
	c.Assert(buf, qt.DeepEquals, append([]byte("VK_KHR_surface"), 0))

	buf, err = core.NativeString("")
	c.Assert(err, qt.IsNil)
	c.Assert(buf, qt.DeepEquals, []byte{0})
}

func TestNativeStringEmbeddedNul(t *testing.T) {
	c := qt.New(t)

	_, err := core.NativeString("VK_\x00KHR")
	c.Assert(errors.Is(err, core.ErrConfiguration), qt.IsTrue)

	var eerr *core.EncodingError
	c.Assert(errors.As(err, &eerr), qt.IsTrue)
	c.Assert(eerr.Offset, qt.Equals, 3)

	_, err = core.NativeStrings([]string{"ok", "bad\x00"})
	c.Assert(errors.As(err, &eerr), qt.IsTrue)
	c.Assert(eerr.Input, qt.Equals, "bad\x00")
}

func TestNativeStrings(t *testing.T) {
	c := qt.New(t)
	safe, err := core.NativeStrings([]string{"a", "bc"})
	c.Assert(err, qt.IsNil)
	c.Assert(safe, qt.DeepEquals, []string{"a\x00", "bc\x00"})
}

func BenchmarkParseVersion(b *testing.B) {
	for idx := 0; idx < b.N; idx++ {
		core.ParseVersion("1.2.3")
	}
}

func BenchmarkNativeStrings(b *testing.B) {
	names := []string{core.SurfaceExtension, core.XlibSurfaceExtension, core.DebugUtilsExtension}
	for idx := 0; idx < b.N; idx++ {
		core.NativeStrings(names)
	}
}
