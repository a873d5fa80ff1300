// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build !linux && !windows

package vkd

import (
	"unsafe"

	"github.com/cockroachdb/errors"
)

func defaultProcAddr() (unsafe.Pointer, error) {
	return nil, errors.Wrap(ErrLoaderNotFound, "no default loader on this platform, pass the loader's vkGetInstanceProcAddr")
}
