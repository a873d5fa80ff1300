// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import "fmt"

// WindowHandle is one of Win32Window, WaylandWindow, XcbWindow or
// XlibWindow.
type WindowHandle interface {
	windowHandle()
}

// DisplayHandle is one of WindowsDisplay, WaylandDisplay, XcbDisplay or
// XlibDisplay.
type DisplayHandle interface {
	displayHandle()
}

// Win32Window is a Win32 window
type Win32Window struct {
	HInstance uintptr
	HWnd      uintptr
}

// WaylandWindow is a wl_surface
type WaylandWindow struct {
	Surface uintptr
}

// XcbWindow is an xcb_window_t
type XcbWindow struct {
	Window uint32
}

// XlibWindow is an Xlib Window
type XlibWindow struct {
	Window uint64
}

// WindowsDisplay is the Windows desktop, it carries no handle
type WindowsDisplay struct{}

// WaylandDisplay is a wl_display
type WaylandDisplay struct {
	Display uintptr
}

// XcbDisplay is an xcb_connection_t
type XcbDisplay struct {
	Connection uintptr
}

// XlibDisplay is an Xlib Display
type XlibDisplay struct {
	Display uintptr
}

func (Win32Window) windowHandle()   {}
func (WaylandWindow) windowHandle() {}
func (XcbWindow) windowHandle()     {}
func (XlibWindow) windowHandle()    {}

func (WindowsDisplay) displayHandle() {}
func (WaylandDisplay) displayHandle() {}
func (XcbDisplay) displayHandle()     {}
func (XlibDisplay) displayHandle()    {}

func platformOf(handle interface{}) string {
	switch handle.(type) {
	case Win32Window, WindowsDisplay:
		return "win32"
	case WaylandWindow, WaylandDisplay:
		return "wayland"
	case XcbWindow, XcbDisplay:
		return "xcb"
	case XlibWindow, XlibDisplay:
		return "xlib"
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", handle)
	}
}
