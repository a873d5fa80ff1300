// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkd

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/windows"
)

func defaultProcAddr() (unsafe.Pointer, error) {
	dll, err := windows.LoadDLL("vulkan-1.dll")
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "vulkan-1.dll"), ErrLoaderNotFound)
	}
	proc, err := dll.FindProc("vkGetInstanceProcAddr")
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "vulkan-1.dll"), ErrLoaderNotFound)
	}
	return unsafe.Pointer(proc.Addr()), nil
}
