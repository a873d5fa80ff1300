// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrConfiguration marks every error caused by malformed configuration
// input. Such errors are recoverable: fix the input and try again.
var ErrConfiguration = errors.New("configuration error")

// ParseError reports a version string that is not "major.minor.patch".
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse version %q: %s", e.Input, e.Reason)
}

// EncodingError reports a string that cannot be handed to the native API
// because it contains a NUL byte at Offset.
type EncodingError struct {
	Input  string
	Offset int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("native string %q: embedded NUL at offset %d", e.Input, e.Offset)
}

// MakeVersion packs a version the way the native API expects it.
// Components are not range checked.
func MakeVersion(variant, major, minor, patch uint32) uint32 {
	return variant<<29 | major<<22 | minor<<12 | patch
}

// VersionVariant extracts the variant from a packed version.
func VersionVariant(v uint32) uint32 { return v >> 29 }

// VersionMajor extracts the major component from a packed version.
func VersionMajor(v uint32) uint32 { return (v >> 22) & 0x7f }

// VersionMinor extracts the minor component from a packed version.
func VersionMinor(v uint32) uint32 { return (v >> 12) & 0x3ff }

// VersionPatch extracts the patch component from a packed version.
func VersionPatch(v uint32) uint32 { return v & 0xfff }

// VersionString formats a packed version as "major.minor.patch".
func VersionString(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", VersionMajor(v), VersionMinor(v), VersionPatch(v))
}

// ParseVersion parses "major.minor.patch" into a packed version with
// variant 0. The returned error is a *ParseError marked ErrConfiguration.
func ParseVersion(s string) (uint32, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return 0, parseError(s, fmt.Sprintf("expected 3 components, got %d", len(parts)))
	}

	var nums [3]uint32
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return 0, parseError(s, fmt.Sprintf("component %d (%q) is not an unsigned integer", i, p))
		}
		nums[i] = uint32(n)
	}
	return MakeVersion(0, nums[0], nums[1], nums[2]), nil
}

func parseError(s, reason string) error {
	return errors.Mark(&ParseError{Input: s, Reason: reason}, ErrConfiguration)
}

// NativeString converts s into a NUL terminated byte buffer.
func NativeString(s string) ([]byte, error) {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return nil, errors.Mark(&EncodingError{Input: s, Offset: i}, ErrConfiguration)
	}
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return buf, nil
}

// NativeStrings NUL terminates every string in ss, in the form the
// binding takes them. The first string that fails conversion aborts.
func NativeStrings(ss []string) ([]string, error) {
	safe := make([]string, 0, len(ss))
	for _, s := range ss {
		buf, err := NativeString(s)
		if err != nil {
			return nil, err
		}
		safe = append(safe, string(buf))
	}
	return safe, nil
}
