// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/sys/windows"

	"github.com/devblok/vkctx/device"
)

func win32Handles(info *sdl.SysWMInfo) (device.WindowHandle, device.DisplayHandle, error) {
	var module windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
		return nil, nil, errors.Wrap(err, "GetModuleHandleEx()")
	}
	return device.Win32Window{
		HInstance: uintptr(module),
		HWnd:      uintptr(info.GetWindowsInfo().Window),
	}, device.WindowsDisplay{}, nil
}
