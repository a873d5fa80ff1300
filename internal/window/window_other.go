// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build !windows

package window

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/vkctx/device"
)

func win32Handles(*sdl.SysWMInfo) (device.WindowHandle, device.DisplayHandle, error) {
	return nil, nil, errors.New("win32 window outside of windows")
}
