// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkd

import (
	"unsafe"

	"github.com/cockroachdb/errors"
)

func defaultProcAddr() (unsafe.Pointer, error) {
	proc := openLoader()
	if proc == nil {
		return nil, errors.Wrap(ErrLoaderNotFound, "libvulkan.so.1")
	}
	return proc, nil
}
