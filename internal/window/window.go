// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package window extracts native window system handles from SDL
// windows.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/vkctx/device"
)

// NativeHandles asks SDL for the window system handles of window
func NativeHandles(window *sdl.Window) (device.WindowHandle, device.DisplayHandle, error) {
	info, err := window.GetWMInfo()
	if err != nil {
		return nil, nil, errors.Wrap(err, "sdl.GetWMInfo()")
	}

	switch info.Subsystem {
	case sdl.SYSWM_X11:
		x11 := info.GetX11Info()
		return device.XlibWindow{Window: uint64(x11.Window)},
			device.XlibDisplay{Display: uintptr(x11.Display)}, nil
	case sdl.SYSWM_WINDOWS:
		return win32Handles(info)
	default:
		return nil, nil, errors.Newf("window system %d has no surface support", info.Subsystem)
	}
}
